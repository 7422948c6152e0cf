package handlers

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/tutor_scheduler/internal/controller/state"
	"github.com/Freeeeeet/tutor_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "📚 Справка по командам:\n\n" +
	"Расписание:\n" +
	"/today - Расписание на сегодня\n" +
	"/week - Неделя картинкой\n" +
	"/month - Месяц\n" +
	"/export - Календарь .ics\n\n" +
	"Семья:\n" +
	"/addchild Имя - Добавить ребёнка\n" +
	"/newactivity - Новое событие\n" +
	"/activities - Список событий\n" +
	"/book id дата HH:MM минуты [child_id] - Записаться к репетитору\n" +
	"/lessons - Занятия\n\n" +
	"Для репетиторов:\n" +
	"/becometutor - Стать репетитором\n" +
	"/availability - Окна доступности\n" +
	"/addslot пн 10:00-14:00 - Добавить окно\n\n" +
	"/cancel - Отменить текущий диалог"

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	user := update.Message.From

	// Регистрируем пользователя
	registeredUser, err := h.userService.RegisterUser(
		ctx,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.LanguageCode,
	)
	if err != nil {
		h.logger.Error("Failed to register user", zap.Error(err))
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка при регистрации. Попробуйте позже.")
		return
	}

	welcomeText := fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Я веду расписание семьи: кружки, секции и занятия с репетиторами.\n"+
			"Ваш ID: <code>%d</code>\n\n%s",
		html.EscapeString(registeredUser.FirstName),
		registeredUser.ID,
		helpText,
	)

	h.sendMessage(ctx, b, update.Message.Chat.ID, welcomeText)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	telegramID := update.Message.From.ID
	if h.stateManager.GetState(telegramID) == state.StateNone {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Нет активных операций для отмены.")
		return
	}

	// Очищаем состояние
	h.stateManager.ClearState(telegramID)

	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Операция отменена.\n\nИспользуйте /help для просмотра доступных команд.")
}

// HandleBecomeTutor обрабатывает команду /becometutor
func (h *Handlers) HandleBecomeTutor(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	user, ok := h.requireUser(ctx, b, chatID, update.Message.From.ID)
	if !ok {
		return
	}
	if user.IsTutor {
		h.sendMessage(ctx, b, chatID, "ℹ️ Вы уже репетитор. Окна доступности: /availability")
		return
	}

	if err := h.userService.BecomeTutor(ctx, user.ID); err != nil {
		h.replyError(ctx, b, chatID, "become tutor", err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf(
		"🎓 Теперь вы репетитор!\n\n"+
			"Ваш ID для записи: <code>%d</code>\n"+
			"Добавьте окна доступности: /addslot пн 10:00-14:00",
		user.ID,
	))
}

// HandleAddChild обрабатывает команду /addchild Имя
func (h *Handlers) HandleAddChild(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	telegramID := update.Message.From.ID

	if _, ok := h.requireUser(ctx, b, chatID, telegramID); !ok {
		return
	}

	name := strings.Join(commandArgs(update.Message.Text), " ")
	if name == "" {
		h.stateManager.SetState(telegramID, state.StateAddChildName)
		h.sendMessage(ctx, b, chatID, "👶 Как зовут ребёнка?")
		return
	}

	h.addChild(ctx, b, chatID, telegramID, name)
}

func (h *Handlers) addChild(ctx context.Context, b *bot.Bot, chatID, telegramID int64, name string) {
	user, ok := h.requireUser(ctx, b, chatID, telegramID)
	if !ok {
		return
	}

	child, err := h.userService.AddChild(ctx, user.ID, service.AddChildInput{Name: name})
	if err != nil {
		h.replyError(ctx, b, chatID, "add child", err)
		return
	}
	h.stateManager.ClearState(telegramID)

	h.sendMessage(ctx, b, chatID, fmt.Sprintf(
		"✅ Добавлен: <b>%s</b> (ID <code>%d</code>)\n\nСоздать событие: /newactivity",
		html.EscapeString(child.Name), child.ID,
	))
}

// HandleTextMessage обрабатывает текстовые сообщения в зависимости от состояния пользователя
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	// Игнорируем команды (они обрабатываются другими handlers)
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)
	currentState := h.stateManager.GetState(telegramID)

	h.logger.Debug("Text message",
		zap.Int64("telegram_id", telegramID),
		zap.String("state", string(currentState)))

	switch currentState {
	case state.StateNone:
		return
	case state.StateAddChildName:
		h.addChild(ctx, b, chatID, telegramID, text)
	case state.StateNewActivityTitle:
		h.newActivityTitle(ctx, b, chatID, telegramID, text)
	case state.StateNewActivityDate:
		h.newActivityDate(ctx, b, chatID, telegramID, text)
	case state.StateNewActivityTime:
		h.newActivityTime(ctx, b, chatID, telegramID, text)
	case state.StateNewActivityChild, state.StateNewActivityRecurrence, state.StateNewActivityReminder:
		h.sendMessage(ctx, b, chatID, "👆 Выберите вариант кнопкой выше или /cancel")
	default:
		h.logger.Warn("Unknown state", zap.String("state", string(currentState)))
	}
}
