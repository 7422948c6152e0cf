package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutor_scheduler/internal/controller/formatting"
	"github.com/Freeeeeet/tutor_scheduler/internal/controller/keyboard"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandleAvailability обрабатывает команду /availability
func (h *Handlers) HandleAvailability(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	user, ok := h.requireTutor(ctx, b, chatID, update.Message.From.ID)
	if !ok {
		return
	}

	text, markup, err := h.renderAvailability(ctx, user.ID)
	if err != nil {
		h.replyError(ctx, b, chatID, "list slots", err)
		return
	}
	h.sendWithMarkup(ctx, b, chatID, text, markup)
}

func (h *Handlers) renderAvailability(ctx context.Context, tutorID int64) (string, models.ReplyMarkup, error) {
	slots, err := h.availabilityService.ListSlots(ctx, tutorID)
	if err != nil {
		return "", nil, err
	}

	if len(slots) == 0 {
		return "🗓 Окон доступности нет.\n\nДобавить: /addslot пн 10:00-14:00", nil, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🗓 <b>%d %s доступности</b>\n\n", len(slots), formatting.PluralizeSlots(len(slots)))

	kb := keyboard.NewBuilder()
	for _, s := range slots {
		sb.WriteString(formatting.FormatSlot(s) + "\n")

		toggle := "⏸ Пауза"
		if !s.IsAvailable {
			toggle = "▶️ Включить"
		}
		label := fmt.Sprintf("%s %s", formatting.GetWeekdayShortName(s.Weekday), formatting.FormatClockRange(s.StartTime, s.EndTime))
		kb.Row(
			keyboard.Button(label+" "+toggle, keyboard.Encode(keyboard.PrefixSlotToggle, s.ID)),
			keyboard.Button("🗑", keyboard.Encode(keyboard.PrefixSlotDelete, s.ID)),
		)
	}

	return strings.TrimRight(sb.String(), "\n"), kb.Build(), nil
}

// HandleAddSlot обрабатывает команду /addslot <день> <HH:MM-HH:MM>
func (h *Handlers) HandleAddSlot(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	user, ok := h.requireTutor(ctx, b, chatID, update.Message.From.ID)
	if !ok {
		return
	}

	args := commandArgs(update.Message.Text)
	if len(args) < 2 {
		h.sendMessage(ctx, b, chatID, "ℹ️ Формат: /addslot пн 10:00-14:00")
		return
	}
	weekday, err := parseWeekday(args[0])
	if err != nil {
		h.replyError(ctx, b, chatID, "parse weekday", err)
		return
	}
	start, end, err := parseClockRange(strings.Join(args[1:], ""))
	if err != nil {
		h.replyError(ctx, b, chatID, "parse slot time", err)
		return
	}

	slot, err := h.availabilityService.AddSlot(ctx, user.ID, weekday, start, end)
	if err != nil {
		h.replyError(ctx, b, chatID, "add slot", err)
		return
	}

	h.sendMessage(ctx, b, chatID, "✅ Окно добавлено\n"+formatting.FormatSlot(*slot))
}

func (h *Handlers) onSlotToggle(ctx context.Context, b *bot.Bot, cb *callbackContext) {
	h.slotAction(ctx, b, cb, func(tutorID, slotID int64) error {
		_, err := h.availabilityService.ToggleSlot(ctx, tutorID, slotID)
		return err
	})
}

func (h *Handlers) onSlotDelete(ctx context.Context, b *bot.Bot, cb *callbackContext) {
	h.slotAction(ctx, b, cb, func(tutorID, slotID int64) error {
		return h.availabilityService.RemoveSlot(ctx, tutorID, slotID)
	})
}

// slotAction выполняет действие над окном и перерисовывает список
func (h *Handlers) slotAction(ctx context.Context, b *bot.Bot, cb *callbackContext, action func(tutorID, slotID int64) error) {
	slotID, err := cb.data.ID(0)
	if err != nil {
		cb.fail(ctx, b, h, "parse slot", err)
		return
	}
	user, err := cb.user(ctx, h)
	if err != nil {
		cb.fail(ctx, b, h, "load user", err)
		return
	}

	if err := action(user.ID, slotID); err != nil {
		cb.fail(ctx, b, h, cb.data.Prefix, err)
		return
	}

	h.answerCallback(ctx, b, cb.id, "✅ Готово", false)

	text, markup, err := h.renderAvailability(ctx, user.ID)
	if err != nil {
		h.replyError(ctx, b, cb.chatID, "list slots", err)
		return
	}
	h.editMessage(ctx, b, cb.message, text, markup)
}
