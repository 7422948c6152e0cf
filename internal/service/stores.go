package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/google/uuid"
)

// Интерфейсы хранилищ, которые нужны сервисам. Реализуются пакетом repository.

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	ListTutors(ctx context.Context) ([]*model.User, error)
}

type ChildStore interface {
	Create(ctx context.Context, child *model.Child) error
	GetByID(ctx context.Context, id int64) (*model.Child, error)
	ListByParent(ctx context.Context, parentID int64) ([]*model.Child, error)
	ParentTelegramIDs(ctx context.Context, childIDs []int64) (map[int64]int64, error)
}

type ActivityTypeStore interface {
	List(ctx context.Context) ([]*model.ActivityType, error)
	GetByID(ctx context.Context, id int64) (*model.ActivityType, error)
}

type ActivityStore interface {
	Create(ctx context.Context, a *model.ScheduleActivity) error
	GetByID(ctx context.Context, id int64) (*model.ScheduleActivity, error)
	ListByChildrenInWindow(ctx context.Context, childIDs []int64, from, to time.Time) ([]*model.ScheduleActivity, error)
	ListInWindow(ctx context.Context, from, to time.Time) ([]*model.ScheduleActivity, error)
	ListByChild(ctx context.Context, childID int64) ([]*model.ScheduleActivity, error)
	Update(ctx context.Context, a *model.ScheduleActivity) error
	SetCompleted(ctx context.Context, id int64, completed bool) error
	Delete(ctx context.Context, id int64) error
}

type OverrideStore interface {
	Upsert(ctx context.Context, ov *model.OccurrenceOverride) error
	ListByActivities(ctx context.Context, activityIDs []int64) ([]model.OccurrenceOverride, error)
}

type AvailabilityStore interface {
	Create(ctx context.Context, slot *model.ScheduleSlot) error
	GetByID(ctx context.Context, id int64) (*model.ScheduleSlot, error)
	ListByTutor(ctx context.Context, tutorID int64) ([]model.ScheduleSlot, error)
	SetAvailable(ctx context.Context, id int64, available bool) error
	Delete(ctx context.Context, id int64) error
}

type LessonStore interface {
	WithTutorLock(ctx context.Context, tutorID int64, fn func(ctx context.Context) error) error
	Create(ctx context.Context, l *model.Lesson) error
	GetByID(ctx context.Context, id int64) (*model.Lesson, error)
	ListByTutorInWindow(ctx context.Context, tutorID int64, from, to time.Time) ([]*model.Lesson, error)
	ListByStudentsInWindow(ctx context.Context, studentIDs []int64, from, to time.Time) ([]*model.Lesson, error)
	ListUpcomingByTutor(ctx context.Context, tutorID int64, from time.Time, limit int) ([]*model.Lesson, error)
	ListUpcomingByStudents(ctx context.Context, studentIDs []int64, from time.Time, limit int) ([]*model.Lesson, error)
	ListActiveTutorIDs(ctx context.Context) ([]int64, error)
	UpdateStatus(ctx context.Context, id int64, status model.LessonStatus) error
}

type DeliveryStore interface {
	MarkDelivered(ctx context.Context, reminderID uuid.UUID, occurrenceDate time.Time) (bool, error)
	Unmark(ctx context.Context, reminderID uuid.UUID, occurrenceDate time.Time) error
}
