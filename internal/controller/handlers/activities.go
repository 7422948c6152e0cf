package handlers

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/controller/formatting"
	"github.com/Freeeeeet/tutor_scheduler/internal/controller/keyboard"
	"github.com/Freeeeeet/tutor_scheduler/internal/controller/state"
	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/schedule"
	"github.com/Freeeeeet/tutor_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Варианты напоминания в диалоге, минуты до начала
var reminderChoices = []struct {
	Minutes int
	Title   string
}{
	{0, "🔕 Без напоминания"},
	{15, "🔔 За 15 минут"},
	{60, "🔔 За час"},
	{24 * 60, "🔔 За день"},
}

// HandleNewActivity начинает диалог создания активности
func (h *Handlers) HandleNewActivity(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	telegramID := update.Message.From.ID

	user, ok := h.requireUser(ctx, b, chatID, telegramID)
	if !ok {
		return
	}
	children, ok := h.requireChildren(ctx, b, chatID, user)
	if !ok {
		return
	}

	h.stateManager.ClearState(telegramID)

	if len(children) == 1 {
		h.stateManager.Advance(telegramID, state.KeyChildID, children[0].ID, state.StateNewActivityTitle)
		h.sendMessage(ctx, b, chatID, fmt.Sprintf("📝 Новое событие для <b>%s</b>\n\nВведите название:",
			html.EscapeString(children[0].Name)))
		return
	}

	kb := keyboard.NewBuilder()
	for _, c := range children {
		kb.Row(keyboard.Button("👦 "+c.Name, keyboard.Encode(keyboard.PrefixNewActChild, c.ID)))
	}
	h.stateManager.SetState(telegramID, state.StateNewActivityChild)
	h.sendWithMarkup(ctx, b, chatID, "📝 Для кого событие?", kb.Build())
}

func (h *Handlers) onNewActivityChild(ctx context.Context, b *bot.Bot, cb *callbackContext) {
	if h.stateManager.GetState(cb.telegramID) != state.StateNewActivityChild {
		h.answerCallback(ctx, b, cb.id, "Диалог устарел, начните заново: /newactivity", true)
		return
	}
	childID, err := cb.data.ID(0)
	if err != nil {
		cb.fail(ctx, b, h, "parse child", err)
		return
	}

	h.stateManager.Advance(cb.telegramID, state.KeyChildID, childID, state.StateNewActivityTitle)
	h.answerCallback(ctx, b, cb.id, "", false)
	h.editMessage(ctx, b, cb.message, "📝 Введите название события:", nil)
}

func (h *Handlers) newActivityTitle(ctx context.Context, b *bot.Bot, chatID, telegramID int64, text string) {
	h.stateManager.Advance(telegramID, state.KeyTitle, text, state.StateNewActivityDate)
	h.sendMessage(ctx, b, chatID, "📅 Дата (первого) события: <code>2024-03-04</code>, <code>04.03</code>, сегодня или завтра")
}

func (h *Handlers) newActivityDate(ctx context.Context, b *bot.Bot, chatID, telegramID int64, text string) {
	date, err := parseUserDate(text, h.today())
	if err != nil {
		h.sendMessage(ctx, b, chatID, "❌ Не понимаю дату. Пример: <code>04.03</code> или <code>2024-03-04</code>")
		return
	}

	h.stateManager.Advance(telegramID, state.KeyDate, date, state.StateNewActivityTime)
	h.sendMessage(ctx, b, chatID, "🕒 Время: <code>16:00-17:30</code>")
}

func (h *Handlers) newActivityTime(ctx context.Context, b *bot.Bot, chatID, telegramID int64, text string) {
	start, end, err := parseClockRange(text)
	if err != nil {
		h.sendMessage(ctx, b, chatID, "❌ Не понимаю время. Пример: <code>16:00-17:30</code>")
		return
	}

	h.stateManager.SetData(telegramID, state.KeyStartTime, start)
	h.stateManager.Advance(telegramID, state.KeyEndTime, end, state.StateNewActivityRecurrence)

	kb := keyboard.NewBuilder().
		Row(keyboard.Button("1️⃣ Однократно", keyboard.Encode(keyboard.PrefixNewActRepeat, keyboard.RepeatNone))).
		Row(
			keyboard.Button("Каждый день", keyboard.Encode(keyboard.PrefixNewActRepeat, model.FrequencyDaily)),
			keyboard.Button("Каждую неделю", keyboard.Encode(keyboard.PrefixNewActRepeat, model.FrequencyWeekly)),
		).
		Row(
			keyboard.Button("Каждый месяц", keyboard.Encode(keyboard.PrefixNewActRepeat, model.FrequencyMonthly)),
			keyboard.Button("Каждый год", keyboard.Encode(keyboard.PrefixNewActRepeat, model.FrequencyYearly)),
		)
	h.sendWithMarkup(ctx, b, chatID, "🔁 Повторять?", kb.Build())
}

func (h *Handlers) onNewActivityRecurrence(ctx context.Context, b *bot.Bot, cb *callbackContext) {
	if h.stateManager.GetState(cb.telegramID) != state.StateNewActivityRecurrence {
		h.answerCallback(ctx, b, cb.id, "Диалог устарел, начните заново: /newactivity", true)
		return
	}
	repeat, err := cb.data.Arg(0)
	if err != nil {
		cb.fail(ctx, b, h, "parse recurrence", err)
		return
	}

	h.stateManager.Advance(cb.telegramID, state.KeyRecurrence, repeat, state.StateNewActivityReminder)

	kb := keyboard.NewBuilder()
	for _, c := range reminderChoices {
		kb.Row(keyboard.Button(c.Title, keyboard.Encode(keyboard.PrefixNewActRemind, c.Minutes)))
	}
	h.answerCallback(ctx, b, cb.id, "", false)
	h.editMessage(ctx, b, cb.message, "🔔 Напомнить?", kb.Build())
}

func (h *Handlers) onNewActivityReminder(ctx context.Context, b *bot.Bot, cb *callbackContext) {
	if h.stateManager.GetState(cb.telegramID) != state.StateNewActivityReminder {
		h.answerCallback(ctx, b, cb.id, "Диалог устарел, начните заново: /newactivity", true)
		return
	}
	minutes, err := cb.data.ID(0)
	if err != nil {
		cb.fail(ctx, b, h, "parse reminder", err)
		return
	}

	user, err := cb.user(ctx, h)
	if err != nil {
		cb.fail(ctx, b, h, "load user", err)
		return
	}

	childID, in, err := h.activityDraft(cb.telegramID, int(minutes))
	if err != nil {
		h.stateManager.ClearState(cb.telegramID)
		cb.fail(ctx, b, h, "read activity draft", err)
		return
	}

	a, err := h.activityService.Create(ctx, user.ID, childID, in)
	if err != nil {
		h.stateManager.ClearState(cb.telegramID)
		h.answerCallback(ctx, b, cb.id, "", false)
		h.editMessage(ctx, b, cb.message, ErrorMessage(err)+"\n\nНачните заново: /newactivity", nil)
		if !isUserError(err) {
			h.logger.Error("Failed to create activity", zap.Error(err))
		}
		return
	}
	h.stateManager.ClearState(cb.telegramID)

	h.answerCallback(ctx, b, cb.id, "✅ Создано", false)
	h.editMessage(ctx, b, cb.message, "✅ Событие создано\n\n"+formatting.FormatActivity(a), nil)
}

// activityDraft собирает ввод активности из данных диалога
func (h *Handlers) activityDraft(telegramID int64, reminderMinutes int) (int64, service.ActivityInput, error) {
	childID, ok1 := state.Get[int64](h.stateManager, telegramID, state.KeyChildID)
	title, ok2 := state.Get[string](h.stateManager, telegramID, state.KeyTitle)
	date, ok3 := state.Get[time.Time](h.stateManager, telegramID, state.KeyDate)
	start, ok4 := state.Get[model.Clock](h.stateManager, telegramID, state.KeyStartTime)
	end, ok5 := state.Get[model.Clock](h.stateManager, telegramID, state.KeyEndTime)
	repeat, ok6 := state.Get[string](h.stateManager, telegramID, state.KeyRecurrence)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
		return 0, service.ActivityInput{}, fmt.Errorf("%w: incomplete dialog data", errBadArgs)
	}

	in := service.ActivityInput{
		Title:     title,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Priority:  model.PriorityMedium,
	}

	if repeat != keyboard.RepeatNone {
		var weekdays []time.Weekday
		if model.Frequency(repeat) == model.FrequencyWeekly {
			weekdays = []time.Weekday{date.Weekday()}
		}
		rule, err := model.NewRecurrenceRule(model.Frequency(repeat), weekdays)
		if err != nil {
			return 0, service.ActivityInput{}, fmt.Errorf("%w: %v", errBadArgs, err)
		}
		in.Recurrence = &model.RecurrencePattern{Rule: rule, Interval: 1}
	}

	if reminderMinutes > 0 {
		in.Reminders = []service.ReminderInput{{
			Channel:       model.ReminderChannelNotification,
			MinutesBefore: reminderMinutes,
			Enabled:       true,
		}}
	}

	return childID, in, nil
}

// HandleActivities обрабатывает команду /activities
func (h *Handlers) HandleActivities(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	user, ok := h.requireUser(ctx, b, chatID, update.Message.From.ID)
	if !ok {
		return
	}
	children, ok := h.requireChildren(ctx, b, chatID, user)
	if !ok {
		return
	}

	var sb strings.Builder
	kb := keyboard.NewBuilder()
	total := 0
	for _, c := range children {
		activities, err := h.activityService.ListByChild(ctx, user.ID, c.ID)
		if err != nil {
			h.replyError(ctx, b, chatID, "list activities", err)
			return
		}

		fmt.Fprintf(&sb, "👦 <b>%s</b>\n", html.EscapeString(c.Name))
		if len(activities) == 0 {
			sb.WriteString("   нет событий\n")
		}
		for _, a := range activities {
			sb.WriteString(formatting.FormatActivity(a) + "\n")
			kb.Row(keyboard.Button("🗑 "+a.Title, keyboard.Encode(keyboard.PrefixDeleteAct, a.ID)))
		}
		sb.WriteString("\n")
		total += len(activities)
	}

	h.sendWithMarkup(ctx, b, chatID,
		fmt.Sprintf("📋 %d %s\n\n%s", total, formatting.PluralizeEvents(total), strings.TrimRight(sb.String(), "\n")),
		kb.Build(),
	)
}

func (h *Handlers) onDeleteActivity(ctx context.Context, b *bot.Bot, cb *callbackContext) {
	activityID, err := cb.data.ID(0)
	if err != nil {
		cb.fail(ctx, b, h, "parse activity", err)
		return
	}
	user, err := cb.user(ctx, h)
	if err != nil {
		cb.fail(ctx, b, h, "load user", err)
		return
	}

	result, err := h.activityService.Delete(ctx, user.ID, activityID, h.now().In(h.loc))
	if err != nil {
		cb.fail(ctx, b, h, "delete activity", err)
		return
	}

	text := "🗑 Событие удалено"
	if result == service.DeleteTruncated {
		text = "⏹ Серия остановлена, прошедшие события сохранены"
	}
	h.answerCallback(ctx, b, cb.id, text, true)
}

func (h *Handlers) onCancelOccurrence(ctx context.Context, b *bot.Bot, cb *callbackContext) {
	activityID, err := cb.data.ID(0)
	if err != nil {
		cb.fail(ctx, b, h, "parse activity", err)
		return
	}
	date, err := cb.data.Date(1)
	if err != nil {
		cb.fail(ctx, b, h, "parse date", err)
		return
	}
	user, err := cb.user(ctx, h)
	if err != nil {
		cb.fail(ctx, b, h, "load user", err)
		return
	}

	if err := h.activityService.CancelOccurrence(ctx, user.ID, activityID, date); err != nil {
		cb.fail(ctx, b, h, "cancel occurrence", err)
		return
	}

	h.answerCallback(ctx, b, cb.id, "❌ Отменено на "+formatting.FormatDate(date), false)
	h.showView(ctx, b, cb, user, schedule.ViewDay, date)
}
