package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/tutor_scheduler/internal/app"
	"github.com/Freeeeeet/tutor_scheduler/internal/config"
	"github.com/Freeeeeet/tutor_scheduler/internal/controller"
	"github.com/Freeeeeet/tutor_scheduler/internal/controller/handlers"
	"github.com/Freeeeeet/tutor_scheduler/internal/export"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository/base"
	"github.com/Freeeeeet/tutor_scheduler/internal/schedule"
	"github.com/Freeeeeet/tutor_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Bot stopped with error", zap.Error(err))
	}
	logger.Info("Bot stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting tutor scheduler bot",
		zap.String("environment", cfg.Environment),
		zap.String("timezone", cfg.Timezone.String()),
		zap.Bool("caldav", cfg.CalDAV.Enabled()),
	)

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsDir, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		return err
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("Failed to close migrator", zap.Error(err))
	}

	// Репозитории
	db := base.NewRepository(pool)
	users := repository.NewUserRepository(db)
	children := repository.NewChildRepository(db)
	activityTypes := repository.NewActivityTypeRepository(db)
	activities := repository.NewActivityRepository(db)
	overrides := repository.NewOverrideRepository(db)
	slots := repository.NewAvailabilityRepository(db)
	lessons := repository.NewLessonRepository(db)
	deliveries := repository.NewReminderDeliveryRepository(db)

	var publisher service.CalendarPublisher
	if cfg.CalDAV.Enabled() {
		p, err := export.NewCalDAVPublisher(cfg.CalDAV.URL, cfg.CalDAV.User, cfg.CalDAV.Password, cfg.CalDAV.CalendarPath)
		if err != nil {
			return err
		}
		publisher = p
	}

	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	// Сервисы
	expander := schedule.NewExpander(cfg.ExpansionMaxDays)
	services := handlers.Services{
		Users:        service.NewUserService(users, children, logger),
		Activities:   service.NewActivityService(children, activityTypes, activities, overrides, expander, logger),
		Schedule:     service.NewScheduleService(children, activities, overrides, lessons, expander, cfg.Timezone, publisher, logger),
		Availability: service.NewAvailabilityService(users, slots, logger),
		Booking:      service.NewBookingService(users, children, slots, lessons, expander, cfg.Timezone, cfg.ExpansionMaxDays, logger),
	}
	reminders := service.NewReminderService(
		children, activities, overrides, deliveries,
		controller.NewNotifier(b, cfg.Timezone),
		expander, cfg.Timezone, cfg.ReminderLookahead, logger,
	)

	scheduler, err := app.NewScheduler(ctx, reminders, services.Schedule, cfg.Timezone, cfg.ReminderCron, cfg.MaterializeCron, logger)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	botController := controller.NewBotController(b, services, logger)
	if err := botController.RegisterHandlers(ctx); err != nil {
		return fmt.Errorf("register handlers: %w", err)
	}

	// Блокируется до сигнала остановки
	botController.Start(ctx)
	return nil
}
