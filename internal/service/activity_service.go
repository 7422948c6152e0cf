package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/schedule"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActivityService управляет активностями расписания детей.
// Правка одного вхождения сохраняется как override поверх серии,
// правка серии меняет саму активность.
type ActivityService struct {
	children   ChildStore
	types      ActivityTypeStore
	activities ActivityStore
	overrides  OverrideStore
	expander   *schedule.Expander
	logger     *zap.Logger
}

func NewActivityService(
	children ChildStore,
	types ActivityTypeStore,
	activities ActivityStore,
	overrides OverrideStore,
	expander *schedule.Expander,
	logger *zap.Logger,
) *ActivityService {
	return &ActivityService{
		children:   children,
		types:      types,
		activities: activities,
		overrides:  overrides,
		expander:   expander,
		logger:     logger,
	}
}

type ReminderInput struct {
	Channel       model.ReminderChannel `json:"channel" validate:"required,oneof=notification email sms"`
	MinutesBefore int                   `json:"minutes_before" validate:"gte=0,lte=10080"`
	Enabled       bool                  `json:"enabled"`
}

// ActivityInput поля активности при создании и правке серии
type ActivityInput struct {
	Title          string                   `json:"title" validate:"required,max=200"`
	Description    string                   `json:"description" validate:"max=2000"`
	ActivityTypeID *int64                   `json:"activity_type_id"`
	Date           time.Time                `json:"date" validate:"required"`
	StartTime      model.Clock              `json:"start_time" validate:"gte=0,lte=1440"`
	EndTime        model.Clock              `json:"end_time" validate:"gte=0,lte=1440"`
	Location       string                   `json:"location" validate:"max=200"`
	Recurrence     *model.RecurrencePattern `json:"recurrence"`
	Priority       model.Priority           `json:"priority" validate:"omitempty,oneof=low medium high"`
	Reminders      []ReminderInput          `json:"reminders" validate:"max=10,dive"`
	Notes          string                   `json:"notes" validate:"max=2000"`
}

// OccurrenceEdit правка одного вхождения. Пустые поля не меняются.
type OccurrenceEdit struct {
	Date      *time.Time   `json:"date"`
	StartTime *model.Clock `json:"start_time"`
	EndTime   *model.Clock `json:"end_time"`
	Title     *string      `json:"title" validate:"omitempty,max=200"`
	Location  *string      `json:"location" validate:"omitempty,max=200"`
}

// DeleteResult что произошло при удалении активности
type DeleteResult int

const (
	DeleteRemoved   DeleteResult = iota // активность удалена целиком
	DeleteTruncated                     // серия остановлена, прошедшие вхождения сохранены
)

// Create создаёт активность ребёнка. Для повторяющейся Date - якорная дата.
func (s *ActivityService) Create(ctx context.Context, parentID, childID int64, in ActivityInput) (*model.ScheduleActivity, error) {
	if _, err := ownedChild(ctx, s.children, parentID, childID); err != nil {
		return nil, err
	}

	a := &model.ScheduleActivity{ChildID: childID}
	if err := s.apply(ctx, a, in); err != nil {
		return nil, err
	}

	if err := s.activities.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}

	s.logger.Info("Activity created",
		zap.Int64("activity_id", a.ID),
		zap.Int64("child_id", childID),
		zap.Bool("recurring", a.IsRecurring),
		zap.String("date", schedule.FormatDate(a.Date)),
	)

	return a, nil
}

// Get получает активность родителя
func (s *ActivityService) Get(ctx context.Context, parentID, activityID int64) (*model.ScheduleActivity, error) {
	a, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	if a == nil {
		return nil, fmt.Errorf("activity %d: %w", activityID, ErrNotFound)
	}
	if _, err := ownedChild(ctx, s.children, parentID, a.ChildID); err != nil {
		return nil, err
	}
	return a, nil
}

// ListByChild все активности ребёнка
func (s *ActivityService) ListByChild(ctx context.Context, parentID, childID int64) ([]*model.ScheduleActivity, error) {
	if _, err := ownedChild(ctx, s.children, parentID, childID); err != nil {
		return nil, err
	}
	return s.activities.ListByChild(ctx, childID)
}

// UpdateSeries меняет всю серию: время, правило, напоминания
func (s *ActivityService) UpdateSeries(ctx context.Context, parentID, activityID int64, in ActivityInput) (*model.ScheduleActivity, error) {
	a, err := s.Get(ctx, parentID, activityID)
	if err != nil {
		return nil, err
	}

	if err := s.apply(ctx, a, in); err != nil {
		return nil, err
	}

	if err := s.activities.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update activity: %w", err)
	}

	s.logger.Info("Activity series updated", zap.Int64("activity_id", a.ID))

	return a, nil
}

// EditOccurrence меняет одно вхождение, не трогая серию
func (s *ActivityService) EditOccurrence(ctx context.Context, parentID, activityID int64, originalDate time.Time, edit OccurrenceEdit) (*model.OccurrenceOverride, error) {
	if err := validateInput(edit); err != nil {
		return nil, err
	}

	a, err := s.Get(ctx, parentID, activityID)
	if err != nil {
		return nil, err
	}
	originalDate = schedule.DateOf(originalDate)
	if err := s.checkOccurrence(a, originalDate); err != nil {
		return nil, err
	}

	start, end := a.StartTime, a.EndTime
	if edit.StartTime != nil {
		start = *edit.StartTime
	}
	if edit.EndTime != nil {
		end = *edit.EndTime
	}
	if err := schedule.NewTimeRange(originalDate, start, end).Validate(); err != nil {
		return nil, err
	}

	ov := &model.OccurrenceOverride{
		ActivityID:   a.ID,
		OriginalDate: originalDate,
		StartTime:    edit.StartTime,
		EndTime:      edit.EndTime,
		Title:        edit.Title,
		Location:     edit.Location,
	}
	if edit.Date != nil {
		d := schedule.DateOf(*edit.Date)
		ov.Date = &d
	}

	if err := s.overrides.Upsert(ctx, ov); err != nil {
		return nil, fmt.Errorf("save occurrence override: %w", err)
	}

	s.logger.Info("Occurrence edited",
		zap.Int64("activity_id", a.ID),
		zap.String("original_date", schedule.FormatDate(originalDate)),
	)

	return ov, nil
}

// CancelOccurrence отменяет одно вхождение серии
func (s *ActivityService) CancelOccurrence(ctx context.Context, parentID, activityID int64, originalDate time.Time) error {
	a, err := s.Get(ctx, parentID, activityID)
	if err != nil {
		return err
	}
	originalDate = schedule.DateOf(originalDate)
	if err := s.checkOccurrence(a, originalDate); err != nil {
		return err
	}

	ov := &model.OccurrenceOverride{ActivityID: a.ID, OriginalDate: originalDate, IsCancelled: true}
	if err := s.overrides.Upsert(ctx, ov); err != nil {
		return fmt.Errorf("cancel occurrence: %w", err)
	}

	s.logger.Info("Occurrence cancelled",
		zap.Int64("activity_id", a.ID),
		zap.String("original_date", schedule.FormatDate(originalDate)),
	)

	return nil
}

// Delete удаляет активность. Начавшаяся серия не удаляется, а останавливается
// вчерашним днём, чтобы прошедшие вхождения остались в истории.
// Уже завершённая серия удаляется целиком.
func (s *ActivityService) Delete(ctx context.Context, parentID, activityID int64, now time.Time) (DeleteResult, error) {
	a, err := s.Get(ctx, parentID, activityID)
	if err != nil {
		return DeleteRemoved, err
	}

	today := schedule.DateOf(now)
	if a.IsRecurring && a.Recurrence != nil && schedule.DateOf(a.Date).Before(today) {
		finished, err := s.seriesFinished(a, today)
		if err != nil {
			return DeleteRemoved, fmt.Errorf("check activity series: %w", err)
		}
		if !finished {
			yesterday := today.AddDate(0, 0, -1)
			a.Recurrence.EndDate = &yesterday
			if err := s.activities.Update(ctx, a); err != nil {
				return DeleteTruncated, fmt.Errorf("truncate activity series: %w", err)
			}

			s.logger.Info("Activity series truncated",
				zap.Int64("activity_id", a.ID),
				zap.String("end_date", schedule.FormatDate(yesterday)),
			)
			return DeleteTruncated, nil
		}
	}

	if err := s.activities.Delete(ctx, a.ID); err != nil {
		return DeleteRemoved, fmt.Errorf("delete activity: %w", err)
	}

	s.logger.Info("Activity deleted", zap.Int64("activity_id", a.ID))

	return DeleteRemoved, nil
}

// seriesFinished сообщает что у серии не осталось вхождений начиная с today.
// Такую серию повторное удаление убирает целиком.
func (s *ActivityService) seriesFinished(a *model.ScheduleActivity, today time.Time) (bool, error) {
	p := *a.Recurrence
	if p.EndDate != nil && schedule.DateOf(*p.EndDate).Before(today) {
		return true, nil
	}
	if p.MaxOccurrences == nil {
		return false, nil
	}
	past, err := s.expander.ExpandAll(p, a.Date, a.Date, today.AddDate(0, 0, -1))
	if err != nil {
		return false, err
	}
	return len(past) >= *p.MaxOccurrences, nil
}

// SetCompleted отмечает выполнение активности
func (s *ActivityService) SetCompleted(ctx context.Context, parentID, activityID int64, completed bool) error {
	if _, err := s.Get(ctx, parentID, activityID); err != nil {
		return err
	}
	if err := s.activities.SetCompleted(ctx, activityID, completed); err != nil {
		return fmt.Errorf("set activity completed: %w", err)
	}
	return nil
}

// ListTypes справочник типов активностей
func (s *ActivityService) ListTypes(ctx context.Context) ([]*model.ActivityType, error) {
	return s.types.List(ctx)
}

// apply проверяет ввод и переносит его в активность
func (s *ActivityService) apply(ctx context.Context, a *model.ScheduleActivity, in ActivityInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateInput(in); err != nil {
		return err
	}

	date := schedule.DateOf(in.Date)
	if err := schedule.NewTimeRange(date, in.StartTime, in.EndTime).Validate(); err != nil {
		return err
	}
	if in.Recurrence != nil {
		if err := schedule.ValidatePattern(*in.Recurrence, date); err != nil {
			return err
		}
	}

	if in.ActivityTypeID != nil {
		t, err := s.types.GetByID(ctx, *in.ActivityTypeID)
		if err != nil {
			return fmt.Errorf("get activity type: %w", err)
		}
		if t == nil {
			return schedule.NewValidationError("activity_type_id", "unknown activity type")
		}
		a.ActivityType = t
	}

	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	reminders := make([]model.Reminder, 0, len(in.Reminders))
	used := make(map[uuid.UUID]bool, len(a.Reminders))
	for _, r := range in.Reminders {
		reminders = append(reminders, model.Reminder{
			ID:            reminderID(a.Reminders, used, r),
			ActivityID:    a.ID,
			Channel:       r.Channel,
			MinutesBefore: r.MinutesBefore,
			IsEnabled:     r.Enabled,
		})
	}

	a.Title = in.Title
	a.Description = in.Description
	a.ActivityTypeID = in.ActivityTypeID
	a.Date = date
	a.StartTime = in.StartTime
	a.EndTime = in.EndTime
	a.Location = in.Location
	a.IsRecurring = in.Recurrence != nil
	a.Recurrence = in.Recurrence
	a.Priority = priority
	a.Reminders = reminders
	a.Notes = in.Notes

	return nil
}

// reminderID сохраняет id напоминания с тем же каналом и сроком,
// иначе отметки о доставке теряются и напоминание уходит повторно
func reminderID(existing []model.Reminder, used map[uuid.UUID]bool, in ReminderInput) uuid.UUID {
	for _, r := range existing {
		if !used[r.ID] && r.Channel == in.Channel && r.MinutesBefore == in.MinutesBefore {
			used[r.ID] = true
			return r.ID
		}
	}
	return uuid.New()
}

func (s *ActivityService) checkOccurrence(a *model.ScheduleActivity, date time.Time) error {
	if !a.IsRecurring || a.Recurrence == nil {
		if !schedule.DateOf(a.Date).Equal(date) {
			return ErrNotOccurrence
		}
		return nil
	}

	ok, err := s.expander.Occurs(*a.Recurrence, a.Date, date)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotOccurrence
	}
	return nil
}
