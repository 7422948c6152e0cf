package controller

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/controller/formatting"
	"github.com/Freeeeeet/tutor_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Sender отправка сообщения в Telegram
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Notifier доставляет напоминания сообщениями в чат родителя
type Notifier struct {
	sender Sender
	loc    *time.Location
}

func NewNotifier(sender Sender, loc *time.Location) *Notifier {
	return &Notifier{sender: sender, loc: loc}
}

// NotifyReminder отправляет напоминание о вхождении
func (n *Notifier) NotifyReminder(ctx context.Context, r service.DueReminder) error {
	_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    r.ChatID,
		Text:      ReminderText(r, n.loc),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}
	return nil
}

// ReminderText текст напоминания
func ReminderText(r service.DueReminder, loc *time.Location) string {
	o := r.Occurrence
	startsAt := r.StartsAt.In(loc)

	text := fmt.Sprintf("🔔 <b>%s</b>\n%s, %s",
		html.EscapeString(o.Title),
		formatting.FormatDateWithWeekday(startsAt),
		formatting.FormatClockRange(o.StartTime, o.EndTime),
	)
	if o.Location != "" {
		text += "\n📍 " + html.EscapeString(o.Location)
	}
	return text
}

var _ service.Notifier = (*Notifier)(nil)
