package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/service"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Окно отчёта о загрузке репетиторов
const loadReportWeeks = 4

// ReminderDispatcher рассылает наступившие напоминания
type ReminderDispatcher interface {
	Dispatch(ctx context.Context, now time.Time) (int, error)
}

// LoadReporter считает загрузку репетиторов
type LoadReporter interface {
	TutorLoads(ctx context.Context, from time.Time, weeks int) ([]service.TutorLoad, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	cron      *cron.Cron
	reminders ReminderDispatcher
	loads     LoadReporter
	now       func() time.Time
	logger    *zap.Logger
}

// NewScheduler создаёт новый планировщик и регистрирует задачи
func NewScheduler(
	ctx context.Context,
	reminders ReminderDispatcher,
	loads LoadReporter,
	loc *time.Location,
	reminderSpec, materializeSpec string,
	logger *zap.Logger,
) (*Scheduler, error) {
	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		reminders: reminders,
		loads:     loads,
		now:       time.Now,
		logger:    logger,
	}

	if _, err := s.cron.AddFunc(reminderSpec, func() { s.dispatchReminders(ctx) }); err != nil {
		return nil, fmt.Errorf("add reminder job: %w", err)
	}
	if _, err := s.cron.AddFunc(materializeSpec, func() { s.reportLoads(ctx) }); err != nil {
		return nil, fmt.Errorf("add load report job: %w", err)
	}

	return s, nil
}

// Start запускает фоновые задачи
func (s *Scheduler) Start() {
	s.logger.Info("Starting background scheduler", zap.Int("jobs", len(s.cron.Entries())))
	s.cron.Start()
}

// Stop останавливает планировщик и ждёт завершения запущенных задач
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) dispatchReminders(ctx context.Context) {
	sent, err := s.reminders.Dispatch(ctx, s.now())
	if err != nil {
		s.logger.Error("Failed to dispatch reminders", zap.Error(err))
		return
	}
	if sent > 0 {
		s.logger.Info("Reminders dispatched", zap.Int("sent", sent))
	}
}

func (s *Scheduler) reportLoads(ctx context.Context) {
	loads, err := s.loads.TutorLoads(ctx, s.now(), loadReportWeeks)
	if err != nil {
		s.logger.Error("Failed to compute tutor loads", zap.Error(err))
		return
	}

	for _, load := range loads {
		fields := []zap.Field{
			zap.Int64("tutor_id", load.TutorID),
			zap.Int("occurrences", load.Occurrences),
		}
		if len(load.ConflictDays) > 0 {
			days := make([]string, len(load.ConflictDays))
			for i, d := range load.ConflictDays {
				days[i] = d.Format(time.DateOnly)
			}
			s.logger.Warn("Tutor has overlapping lessons", append(fields, zap.Strings("days", days))...)
			continue
		}
		s.logger.Debug("Tutor load", fields...)
	}
}
