package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/schedule"
	"go.uber.org/zap"
)

// DueReminder напоминание, которое пора отправить
type DueReminder struct {
	ChatID     int64
	Occurrence model.Occurrence
	Reminder   model.Reminder
	StartsAt   time.Time
}

// Notifier доставляет напоминания пользователю
type Notifier interface {
	NotifyReminder(ctx context.Context, r DueReminder) error
}

// ReminderService рассылает напоминания о вхождениях активностей.
// Каждое напоминание отправляется один раз на вхождение.
type ReminderService struct {
	children   ChildStore
	activities ActivityStore
	overrides  OverrideStore
	deliveries DeliveryStore
	notifier   Notifier
	expander   *schedule.Expander
	loc        *time.Location
	lookahead  time.Duration
	logger     *zap.Logger
}

func NewReminderService(
	children ChildStore,
	activities ActivityStore,
	overrides OverrideStore,
	deliveries DeliveryStore,
	notifier Notifier,
	expander *schedule.Expander,
	loc *time.Location,
	lookahead time.Duration,
	logger *zap.Logger,
) *ReminderService {
	return &ReminderService{
		children:   children,
		activities: activities,
		overrides:  overrides,
		deliveries: deliveries,
		notifier:   notifier,
		expander:   expander,
		loc:        loc,
		lookahead:  lookahead,
		logger:     logger,
	}
}

// Due напоминания, время которых наступило к now, для вхождений, начинающихся в (now, now+lookahead].
// Отправка и учёт доставки не выполняются.
func (s *ReminderService) Due(ctx context.Context, now time.Time) ([]DueReminder, error) {
	now = now.In(s.loc)
	until := now.Add(s.lookahead)
	from, to := schedule.DateOf(now), schedule.DateOf(until)

	activities, err := s.activities.ListInWindow(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	activities = withReminders(activities)
	if len(activities) == 0 {
		return nil, nil
	}

	occurrences, err := materializeActivities(ctx, s.expander, s.overrides, activities, from, to, s.logger)
	if err != nil {
		return nil, err
	}

	childIDs := make([]int64, 0, len(activities))
	for _, a := range activities {
		childIDs = append(childIDs, a.ChildID)
	}
	chats, err := s.children.ParentTelegramIDs(ctx, childIDs)
	if err != nil {
		return nil, fmt.Errorf("get parent chats: %w", err)
	}

	var due []DueReminder
	for _, o := range occurrences {
		startsAt := o.StartsAt(s.loc)
		if !startsAt.After(now) || startsAt.After(until) {
			continue
		}
		chatID, ok := chats[o.OwnerID]
		if !ok {
			continue
		}
		for _, r := range o.Reminders {
			if !r.IsEnabled || r.Channel != model.ReminderChannelNotification {
				continue
			}
			if startsAt.Add(-time.Duration(r.MinutesBefore) * time.Minute).After(now) {
				continue
			}
			due = append(due, DueReminder{ChatID: chatID, Occurrence: o, Reminder: r, StartsAt: startsAt})
		}
	}

	return due, nil
}

// Dispatch отправляет наступившие напоминания. Доставка отмечается до отправки,
// при ошибке отправки отметка снимается и напоминание уйдёт на следующем запуске.
func (s *ReminderService) Dispatch(ctx context.Context, now time.Time) (int, error) {
	due, err := s.Due(ctx, now)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, d := range due {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		fresh, err := s.deliveries.MarkDelivered(ctx, d.Reminder.ID, d.Occurrence.OriginalDate)
		if err != nil {
			return sent, fmt.Errorf("mark reminder delivered: %w", err)
		}
		if !fresh {
			continue
		}

		if err := s.notifier.NotifyReminder(ctx, d); err != nil {
			s.logger.Error("Failed to send reminder",
				zap.Stringer("reminder_id", d.Reminder.ID),
				zap.Int64("activity_id", d.Occurrence.SourceID),
				zap.Int64("chat_id", d.ChatID),
				zap.Error(err),
			)
			if err := s.deliveries.Unmark(ctx, d.Reminder.ID, d.Occurrence.OriginalDate); err != nil {
				s.logger.Error("Failed to unmark reminder delivery", zap.Error(err))
			}
			continue
		}
		sent++
	}

	if sent > 0 {
		s.logger.Info("Reminders sent", zap.Int("count", sent))
	}

	return sent, nil
}

func withReminders(activities []*model.ScheduleActivity) []*model.ScheduleActivity {
	out := activities[:0:0]
	for _, a := range activities {
		for _, r := range a.Reminders {
			if r.IsEnabled && r.Channel == model.ReminderChannelNotification {
				out = append(out, a)
				break
			}
		}
	}
	return out
}
