package controller

import (
	"context"

	"github.com/Freeeeeet/tutor_scheduler/internal/controller/handlers"
	"github.com/Freeeeeet/tutor_scheduler/internal/controller/state"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewBotController(botInstance *bot.Bot, services handlers.Services, logger *zap.Logger) *BotController {
	// Создаём менеджер состояний
	stateManager := state.NewManager()

	return &BotController{
		bot:      botInstance,
		handlers: handlers.NewHandlers(services, stateManager, logger),
		logger:   logger,
	}
}

// command описание команды: обработчик и пункт меню
type command struct {
	name        string
	description string
	handler     bot.HandlerFunc
}

func (c *BotController) commands() []command {
	h := c.handlers
	return []command{
		{"start", "🚀 Начать работу с ботом", h.HandleStart},
		{"help", "❓ Справка по командам", h.HandleHelp},
		{"today", "📅 Расписание на сегодня", h.HandleToday},
		{"week", "🗓 Неделя", h.HandleWeek},
		{"month", "📆 Месяц", h.HandleMonth},
		{"newactivity", "➕ Новое событие", h.HandleNewActivity},
		{"activities", "📋 Список событий", h.HandleActivities},
		{"addchild", "👶 Добавить ребёнка", h.HandleAddChild},
		{"book", "📚 Записаться к репетитору", h.HandleBook},
		{"lessons", "🎓 Занятия", h.HandleLessons},
		{"export", "📤 Экспорт календаря", h.HandleExport},
		{"becometutor", "🎓 Стать репетитором", h.HandleBecomeTutor},
		{"availability", "🗓 Окна доступности (репетитор)", h.HandleAvailability},
		{"addslot", "➕ Добавить окно (репетитор)", h.HandleAddSlot},
		{"cancel", "✖️ Отменить диалог", h.HandleCancel},
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	for _, cmd := range c.commands() {
		// Команды с аргументами, поэтому сопоставляем по префиксу
		c.bot.RegisterHandlerMatchFunc(matchCommand(cmd.name), cmd.handler)
	}

	// Обработчик текстовых сообщений (для диалогов с состояниями)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, c.handlers.HandleTextMessage)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.handlers.HandleCallbackQuery)

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	cmds := c.commands()
	menu := make([]models.BotCommand, 0, len(cmds))
	for _, cmd := range cmds {
		menu = append(menu, models.BotCommand{Command: cmd.name, Description: cmd.description})
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: menu,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set", zap.Int("commands", len(menu)))
	return nil
}

// Start запускает бота и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting bot")
	c.bot.Start(ctx)
}
