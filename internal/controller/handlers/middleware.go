package handlers

import (
	"context"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// requireUser проверяет что пользователь зарегистрирован
// Возвращает user и true если OK, nil и false если нет
func (h *Handlers) requireUser(ctx context.Context, b *bot.Bot, chatID, telegramID int64) (*model.User, bool) {
	user, err := h.userService.GetByTelegramID(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendMessage(ctx, b, chatID, "❌ Произошла ошибка. Попробуйте позже.")
		return nil, false
	}

	if user == nil {
		h.sendMessage(ctx, b, chatID, "❌ Пользователь не найден. Используйте /start для регистрации.")
		return nil, false
	}

	return user, true
}

// requireTutor проверяет что пользователь является репетитором
func (h *Handlers) requireTutor(ctx context.Context, b *bot.Bot, chatID, telegramID int64) (*model.User, bool) {
	user, ok := h.requireUser(ctx, b, chatID, telegramID)
	if !ok {
		return nil, false
	}

	if !user.IsTutor {
		h.sendMessage(ctx, b, chatID, "❌ Эта команда доступна только репетиторам.\n\nСтать репетитором: /becometutor")
		return nil, false
	}

	return user, true
}

// requireChildren загружает детей пользователя, подсказывая /addchild если их нет
func (h *Handlers) requireChildren(ctx context.Context, b *bot.Bot, chatID int64, user *model.User) ([]*model.Child, bool) {
	children, err := h.userService.ListChildren(ctx, user.ID)
	if err != nil {
		h.replyError(ctx, b, chatID, "list children", err)
		return nil, false
	}
	if len(children) == 0 {
		h.sendMessage(ctx, b, chatID, "👶 Сначала добавьте ребёнка: /addchild Имя")
		return nil, false
	}
	return children, true
}

// replyError логирует ошибку операции и отправляет понятное пользователю сообщение
func (h *Handlers) replyError(ctx context.Context, b *bot.Bot, chatID int64, op string, err error) {
	if isUserError(err) {
		h.logger.Debug("Operation rejected", zap.String("op", op), zap.Error(err))
	} else {
		h.logger.Error("Operation failed", zap.String("op", op), zap.Error(err))
	}
	h.sendMessage(ctx, b, chatID, ErrorMessage(err))
}

// sendMessage отправляет HTML сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	h.sendWithMarkup(ctx, b, chatID, text, nil)
}

// sendWithMarkup отправляет HTML сообщение с клавиатурой
func (h *Handlers) sendWithMarkup(ctx context.Context, b *bot.Bot, chatID int64, text string, markup models.ReplyMarkup) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// answerCallback отвечает на callback query; alert показывает всплывающее окно
func (h *Handlers) answerCallback(ctx context.Context, b *bot.Bot, callbackID, text string, alert bool) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		h.logger.Warn("Failed to answer callback", zap.Error(err))
	}
}

// editMessage заменяет текст и клавиатуру сообщения
func (h *Handlers) editMessage(ctx context.Context, b *bot.Bot, msg *models.Message, text string, markup models.ReplyMarkup) {
	_, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		h.logger.Warn("Failed to edit message", zap.Int("message_id", msg.ID), zap.Error(err))
	}
}
