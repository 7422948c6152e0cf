package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/controller/formatting"
	"github.com/Freeeeeet/tutor_scheduler/internal/controller/keyboard"
	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/schedule"
	"github.com/Freeeeeet/tutor_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Лимит длины текста сообщения Telegram
const maxMessageRunes = 4000

// HandleToday обрабатывает команду /today
func (h *Handlers) HandleToday(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handleViewCommand(ctx, b, update, schedule.ViewDay)
}

// HandleWeek обрабатывает команду /week
func (h *Handlers) HandleWeek(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handleViewCommand(ctx, b, update, schedule.ViewWeek)
}

// HandleMonth обрабатывает команду /month
func (h *Handlers) HandleMonth(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handleViewCommand(ctx, b, update, schedule.ViewMonth)
}

func (h *Handlers) handleViewCommand(ctx context.Context, b *bot.Bot, update *models.Update, mode schedule.ViewMode) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	user, ok := h.requireUser(ctx, b, chatID, update.Message.From.ID)
	if !ok {
		return
	}

	ref := h.today()
	if args := commandArgs(update.Message.Text); len(args) > 0 {
		d, err := parseUserDate(args[0], ref)
		if err != nil {
			h.replyError(ctx, b, chatID, "parse view date", err)
			return
		}
		ref = d
	}

	h.sendView(ctx, b, chatID, user, mode, ref)
}

// sendView отправляет вид расписания новым сообщением: неделю картинкой, день и месяц текстом
func (h *Handlers) sendView(ctx context.Context, b *bot.Bot, chatID int64, user *model.User, mode schedule.ViewMode, ref time.Time) {
	if mode == schedule.ViewWeek {
		h.sendWeekImage(ctx, b, chatID, user, ref)
		return
	}

	text, markup, err := h.renderTextView(ctx, user, mode, ref)
	if err != nil {
		h.replyError(ctx, b, chatID, "build view", err)
		return
	}
	h.sendWithMarkup(ctx, b, chatID, text, markup)
}

func (h *Handlers) sendWeekImage(ctx context.Context, b *bot.Bot, chatID int64, user *model.User, ref time.Time) {
	image, err := h.scheduleService.WeekImage(ctx, user, ref, h.now())
	if err != nil {
		h.replyError(ctx, b, chatID, "render week", err)
		return
	}

	start := schedule.WeekStart(ref)
	caption := fmt.Sprintf("🗓 Неделя %s - %s", start.Format("02.01"), formatting.FormatDate(start.AddDate(0, 0, 6)))
	markup := keyboard.NewBuilder().AddViewNavigation(schedule.ViewWeek, ref, h.today()).Build()

	_, err = b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:      chatID,
		Photo:       &models.InputFileUpload{Filename: "week.png", Data: bytes.NewReader(image)},
		Caption:     caption,
		ReplyMarkup: markup,
	})
	if err != nil {
		h.logger.Error("Failed to send week image", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// renderTextView текст и клавиатура дневного или месячного вида
func (h *Handlers) renderTextView(ctx context.Context, user *model.User, mode schedule.ViewMode, ref time.Time) (string, models.ReplyMarkup, error) {
	v, err := h.scheduleService.View(ctx, user, mode, ref)
	if err != nil {
		return "", nil, err
	}

	kb := keyboard.NewBuilder()
	if mode == schedule.ViewDay {
		kb.AddOccurrenceCancels(v.Occurrences())
	}
	kb.AddViewNavigation(mode, v.Reference, h.today())

	return truncateRunes(formatting.FormatView(v), maxMessageRunes), kb.Build(), nil
}

func (h *Handlers) onView(ctx context.Context, b *bot.Bot, cb *callbackContext) {
	modeArg, err := cb.data.Arg(0)
	if err != nil {
		cb.fail(ctx, b, h, "parse view", err)
		return
	}
	mode, err := schedule.ParseViewMode(modeArg)
	if err != nil {
		cb.fail(ctx, b, h, "parse view", err)
		return
	}
	ref, err := cb.data.Date(1)
	if err != nil {
		cb.fail(ctx, b, h, "parse view", err)
		return
	}
	user, err := cb.user(ctx, h)
	if err != nil {
		cb.fail(ctx, b, h, "load user", err)
		return
	}

	h.answerCallback(ctx, b, cb.id, "", false)
	h.showView(ctx, b, cb, user, mode, ref)
}

// showView показывает вид в ответ на callback: текстовое сообщение правится на месте,
// картинка недели всегда приходит новым сообщением
func (h *Handlers) showView(ctx context.Context, b *bot.Bot, cb *callbackContext, user *model.User, mode schedule.ViewMode, ref time.Time) {
	if mode == schedule.ViewWeek || len(cb.message.Photo) > 0 {
		h.sendView(ctx, b, cb.chatID, user, mode, ref)
		return
	}

	text, markup, err := h.renderTextView(ctx, user, mode, ref)
	if err != nil {
		h.replyError(ctx, b, cb.chatID, "build view", err)
		return
	}
	h.editMessage(ctx, b, cb.message, text, markup)
}

// HandleExport обрабатывает команду /export: файл .ics и публикация в CalDAV если настроена
func (h *Handlers) HandleExport(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	user, ok := h.requireUser(ctx, b, chatID, update.Message.From.ID)
	if !ok {
		return
	}

	now := h.now()
	data, err := h.scheduleService.ExportICal(ctx, user, now)
	if err != nil {
		h.replyError(ctx, b, chatID, "export ical", err)
		return
	}

	_, err = b.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   chatID,
		Document: &models.InputFileUpload{Filename: "schedule.ics", Data: bytes.NewReader(data)},
		Caption:  "📤 Календарь для Google, Apple или Outlook",
	})
	if err != nil {
		h.logger.Error("Failed to send calendar", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	n, err := h.scheduleService.Publish(ctx, user, now)
	switch {
	case errors.Is(err, service.ErrPublishingDisabled):
		return
	case err != nil:
		h.replyError(ctx, b, chatID, "publish calendar", err)
	default:
		h.sendMessage(ctx, b, chatID, fmt.Sprintf("☁️ Опубликовано в CalDAV: %d %s", n, formatting.PluralizeEvents(n)))
	}
}

// truncateRunes обрезает текст до limit символов по границе строки
func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	cut := string(r[:limit-1])
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i+1]
	}
	return cut + "…"
}
