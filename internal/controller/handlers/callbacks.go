package handlers

import (
	"context"

	"github.com/Freeeeeet/tutor_scheduler/internal/controller/keyboard"
	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// callbackContext общие данные обработки callback
type callbackContext struct {
	id         string
	telegramID int64
	chatID     int64
	message    *models.Message
	data       keyboard.Data
}

// user загружает зарегистрированного пользователя callback
func (cb *callbackContext) user(ctx context.Context, h *Handlers) (*model.User, error) {
	user, err := h.userService.GetByTelegramID(ctx, cb.telegramID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, service.ErrNotFound
	}
	return user, nil
}

// fail отвечает всплывающим сообщением об ошибке и логирует её
func (cb *callbackContext) fail(ctx context.Context, b *bot.Bot, h *Handlers, op string, err error) {
	if isUserError(err) {
		h.logger.Debug("Callback rejected", zap.String("op", op), zap.String("data", cb.data.Prefix), zap.Error(err))
	} else {
		h.logger.Error("Callback failed", zap.String("op", op), zap.String("data", cb.data.Prefix), zap.Error(err))
	}
	h.answerCallback(ctx, b, cb.id, ErrorMessage(err), true)
}

// HandleCallbackQuery распределяет callback query по обработчикам
func (h *Handlers) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	callback := update.CallbackQuery
	if callback == nil {
		return
	}

	msg := callback.Message.Message
	if msg == nil {
		h.answerCallback(ctx, b, callback.ID, "❌ Сообщение устарело", true)
		return
	}

	cb := &callbackContext{
		id:         callback.ID,
		telegramID: callback.From.ID,
		chatID:     msg.Chat.ID,
		message:    msg,
		data:       keyboard.Parse(callback.Data),
	}

	h.logger.Debug("Routing callback",
		zap.String("data", callback.Data),
		zap.Int64("telegram_id", cb.telegramID))

	switch cb.data.Prefix {
	case keyboard.Noop:
		h.answerCallback(ctx, b, cb.id, "", false)
	case keyboard.PrefixView:
		h.onView(ctx, b, cb)
	case keyboard.PrefixCancelOcc:
		h.onCancelOccurrence(ctx, b, cb)
	case keyboard.PrefixDeleteAct:
		h.onDeleteActivity(ctx, b, cb)
	case keyboard.PrefixLessonCancel:
		h.onLessonCancel(ctx, b, cb)
	case keyboard.PrefixLessonConfirm, keyboard.PrefixLessonDone, keyboard.PrefixLessonNoShow:
		h.onLessonTutorAction(ctx, b, cb)
	case keyboard.PrefixSlotToggle:
		h.onSlotToggle(ctx, b, cb)
	case keyboard.PrefixSlotDelete:
		h.onSlotDelete(ctx, b, cb)
	case keyboard.PrefixNewActChild:
		h.onNewActivityChild(ctx, b, cb)
	case keyboard.PrefixNewActRepeat:
		h.onNewActivityRecurrence(ctx, b, cb)
	case keyboard.PrefixNewActRemind:
		h.onNewActivityReminder(ctx, b, cb)
	default:
		h.logger.Warn("Unknown callback", zap.String("data", callback.Data))
		h.answerCallback(ctx, b, cb.id, "❌ Неизвестное действие", true)
	}
}
