package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/schedule"
	"go.uber.org/zap"
)

// BookingService бронирование занятий у репетиторов
type BookingService struct {
	users    UserStore
	children ChildStore
	slots    AvailabilityStore
	lessons  LessonStore
	expander *schedule.Expander
	loc      *time.Location
	horizon  int // дней вперёд, на которые проверяется повторяющееся бронирование
	now      func() time.Time
	logger   *zap.Logger
}

func NewBookingService(
	users UserStore,
	children ChildStore,
	slots AvailabilityStore,
	lessons LessonStore,
	expander *schedule.Expander,
	loc *time.Location,
	horizonDays int,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		users:    users,
		children: children,
		slots:    slots,
		lessons:  lessons,
		expander: expander,
		loc:      loc,
		horizon:  horizonDays,
		now:      time.Now,
		logger:   logger,
	}
}

type BookLessonInput struct {
	TutorID         int64                    `json:"tutor_id" validate:"required"`
	StudentID       int64                    `json:"student_id" validate:"required"`
	Date            time.Time                `json:"date" validate:"required"`
	StartTime       model.Clock              `json:"start_time" validate:"gte=0,lt=1440"`
	DurationMinutes int                      `json:"duration_minutes" validate:"gt=0,lte=720"`
	Location        string                   `json:"location" validate:"max=200"`
	MeetingLink     string                   `json:"meeting_link" validate:"omitempty,url,max=500"`
	Recurrence      *model.RecurrencePattern `json:"recurrence"`
	Notes           string                   `json:"notes" validate:"max=2000"`
}

// Book бронирует занятие. Для повторяющегося занятия проверяется каждое вхождение
// в пределах горизонта. Проверка и вставка идут под блокировкой расписания репетитора.
func (s *BookingService) Book(ctx context.Context, parentID int64, in BookLessonInput) (*model.Lesson, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	student, err := ownedChild(ctx, s.children, parentID, in.StudentID)
	if err != nil {
		return nil, err
	}
	if err := requireTutor(ctx, s.users, in.TutorID); err != nil {
		return nil, err
	}

	date := schedule.DateOf(in.Date)
	end := in.StartTime + model.Clock(in.DurationMinutes)
	if end > model.MinutesPerDay {
		return nil, schedule.NewValidationError("duration_minutes", "lesson must end by midnight")
	}

	day, _ := windowInstants(s.loc, date, date)
	startsAt := in.StartTime.On(day)
	if !startsAt.After(s.now()) {
		return nil, ErrInPast
	}

	proposed := []time.Time{date}
	if in.Recurrence != nil {
		if proposed, err = s.expander.ExpandAll(*in.Recurrence, date, date, date.AddDate(0, 0, s.horizon-1)); err != nil {
			return nil, err
		}
		if len(proposed) == 0 {
			return nil, schedule.NewValidationError("recurrence", "recurrence has no occurrences")
		}
	}

	lesson := &model.Lesson{
		TutorID:         in.TutorID,
		StudentID:       in.StudentID,
		StartsAt:        startsAt,
		DurationMinutes: in.DurationMinutes,
		Location:        in.Location,
		MeetingLink:     in.MeetingLink,
		Status:          model.LessonStatusScheduled,
		Recurrence:      in.Recurrence,
		Notes:           in.Notes,
		Student:         student,
	}

	err = s.lessons.WithTutorLock(ctx, in.TutorID, func(ctx context.Context) error {
		if err := s.checkProposed(ctx, in.TutorID, proposed, in.StartTime, end); err != nil {
			return err
		}
		return s.lessons.Create(ctx, lesson)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Lesson booked",
		zap.Int64("lesson_id", lesson.ID),
		zap.Int64("tutor_id", lesson.TutorID),
		zap.Int64("student_id", lesson.StudentID),
		zap.Time("starts_at", lesson.StartsAt),
		zap.Int("occurrences_checked", len(proposed)),
	)

	return lesson, nil
}

// checkProposed проверяет даты бронирования против доступности и уже занятого времени репетитора
func (s *BookingService) checkProposed(ctx context.Context, tutorID int64, proposed []time.Time, start, end model.Clock) error {
	slots, err := s.slots.ListByTutor(ctx, tutorID)
	if err != nil {
		return fmt.Errorf("list availability: %w", err)
	}

	from, to := proposed[0], proposed[len(proposed)-1]
	windowStart, windowEnd := windowInstants(s.loc, from, to)
	lessons, err := s.lessons.ListByTutorInWindow(ctx, tutorID, windowStart, windowEnd)
	if err != nil {
		return fmt.Errorf("list tutor lessons: %w", err)
	}
	occupied, err := materializeLessons(s.expander, s.loc, lessons, from, to, s.logger)
	if err != nil {
		return err
	}

	byDate := make(map[time.Time][]schedule.TimeRange)
	for _, r := range schedule.RangesOf(occupied) {
		byDate[r.Date] = append(byDate[r.Date], r)
	}

	for _, d := range proposed {
		if err := schedule.CheckBooking(schedule.NewTimeRange(d, start, end), slots, byDate[d]); err != nil {
			return err
		}
	}
	return nil
}

// Cancel отменяет занятие. Отменить может репетитор или родитель ученика.
func (s *BookingService) Cancel(ctx context.Context, userID, lessonID int64) (*model.Lesson, error) {
	l, err := s.get(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if l.TutorID != userID {
		if _, err := ownedChild(ctx, s.children, userID, l.StudentID); err != nil {
			return nil, err
		}
	}
	if err := s.transition(ctx, l, model.LessonStatusCancelled); err != nil {
		return nil, err
	}
	return l, nil
}

// Confirm подтверждение занятия репетитором
func (s *BookingService) Confirm(ctx context.Context, tutorID, lessonID int64) (*model.Lesson, error) {
	return s.tutorTransition(ctx, tutorID, lessonID, model.LessonStatusConfirmed)
}

// Complete отмечает занятие проведённым
func (s *BookingService) Complete(ctx context.Context, tutorID, lessonID int64) (*model.Lesson, error) {
	return s.tutorTransition(ctx, tutorID, lessonID, model.LessonStatusCompleted)
}

// MarkNoShow отмечает что ученик не пришёл
func (s *BookingService) MarkNoShow(ctx context.Context, tutorID, lessonID int64) (*model.Lesson, error) {
	return s.tutorTransition(ctx, tutorID, lessonID, model.LessonStatusNoShow)
}

// TutorLessons ближайшие занятия репетитора
func (s *BookingService) TutorLessons(ctx context.Context, tutorID int64, limit int) ([]*model.Lesson, error) {
	return s.lessons.ListUpcomingByTutor(ctx, tutorID, s.now(), limit)
}

// FamilyLessons ближайшие занятия детей родителя
func (s *BookingService) FamilyLessons(ctx context.Context, parentID int64, limit int) ([]*model.Lesson, error) {
	children, err := s.children.ListByParent(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	ids := make([]int64, 0, len(children))
	for _, c := range children {
		ids = append(ids, c.ID)
	}
	return s.lessons.ListUpcomingByStudents(ctx, ids, s.now(), limit)
}

// allowedTransitions допустимые переходы статуса занятия
var allowedTransitions = map[model.LessonStatus][]model.LessonStatus{
	model.LessonStatusScheduled: {model.LessonStatusConfirmed, model.LessonStatusCancelled, model.LessonStatusCompleted, model.LessonStatusNoShow},
	model.LessonStatusConfirmed: {model.LessonStatusCancelled, model.LessonStatusCompleted, model.LessonStatusNoShow},
}

func (s *BookingService) tutorTransition(ctx context.Context, tutorID, lessonID int64, to model.LessonStatus) (*model.Lesson, error) {
	l, err := s.get(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if l.TutorID != tutorID {
		return nil, fmt.Errorf("lesson %d: %w", lessonID, ErrNotOwner)
	}
	if err := s.transition(ctx, l, to); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *BookingService) transition(ctx context.Context, l *model.Lesson, to model.LessonStatus) error {
	if !slices.Contains(allowedTransitions[l.Status], to) {
		return fmt.Errorf("lesson %d %s -> %s: %w", l.ID, l.Status, to, ErrInvalidStatus)
	}

	if err := s.lessons.UpdateStatus(ctx, l.ID, to); err != nil {
		return fmt.Errorf("update lesson status: %w", err)
	}

	s.logger.Info("Lesson status changed",
		zap.Int64("lesson_id", l.ID),
		zap.String("from", string(l.Status)),
		zap.String("to", string(to)),
	)

	l.Status = to
	return nil
}

func (s *BookingService) get(ctx context.Context, lessonID int64) (*model.Lesson, error) {
	l, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	if l == nil {
		return nil, fmt.Errorf("lesson %d: %w", lessonID, ErrNotFound)
	}
	return l, nil
}
