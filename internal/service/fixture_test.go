package service

import (
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/schedule"
	"go.uber.org/zap/zaptest"
)

const (
	parentID   int64 = 1
	tutorID    int64 = 2
	strangerID int64 = 3

	childID      int64 = 10
	otherChildID int64 = 11
)

var fixedNow = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// fixture родитель с ребёнком, репетитор и посторонний пользователь со своим ребёнком
type fixture struct {
	t          *testing.T
	users      *fakeUsers
	children   *fakeChildren
	types      *fakeTypes
	activities *fakeActivities
	overrides  *fakeOverrides
	slots      *fakeSlots
	lessons    *fakeLessons
	deliveries *fakeDeliveries
	notifier   *fakeNotifier
	expander   *schedule.Expander
}

func newFixture(t *testing.T) *fixture {
	children := newFakeChildren(
		&model.Child{ID: childID, ParentID: parentID, Name: "Маша"},
		&model.Child{ID: otherChildID, ParentID: strangerID, Name: "Петя"},
	)
	children.parents[parentID] = 100
	children.parents[strangerID] = 300
	activities := newFakeActivities()
	deliveries := newFakeDeliveries()
	activities.deliveries = deliveries

	return &fixture{
		t: t,
		users: newFakeUsers(
			&model.User{ID: parentID, TelegramID: 100, FirstName: "Анна"},
			&model.User{ID: tutorID, TelegramID: 200, FirstName: "Игорь", LastName: "Петров", IsTutor: true},
			&model.User{ID: strangerID, TelegramID: 300, FirstName: "Олег"},
		),
		children: children,
		types: &fakeTypes{types: []*model.ActivityType{
			{ID: 1, Name: "Урок", Category: model.CategoryAcademic, DefaultDuration: 45},
		}},
		activities: activities,
		overrides:  &fakeOverrides{},
		slots:      newFakeSlots(),
		lessons:    newFakeLessons(),
		deliveries: deliveries,
		notifier:   &fakeNotifier{},
		expander:   schedule.NewExpander(366),
	}
}

func (f *fixture) userService() *UserService {
	return NewUserService(f.users, f.children, zaptest.NewLogger(f.t))
}

func (f *fixture) activityService() *ActivityService {
	return NewActivityService(f.children, f.types, f.activities, f.overrides, f.expander, zaptest.NewLogger(f.t))
}

func (f *fixture) scheduleService(publisher CalendarPublisher) *ScheduleService {
	return NewScheduleService(f.children, f.activities, f.overrides, f.lessons, f.expander, time.UTC, publisher, zaptest.NewLogger(f.t))
}

func (f *fixture) availabilityService() *AvailabilityService {
	return NewAvailabilityService(f.users, f.slots, zaptest.NewLogger(f.t))
}

func (f *fixture) bookingService() *BookingService {
	s := NewBookingService(f.users, f.children, f.slots, f.lessons, f.expander, time.UTC, 366, zaptest.NewLogger(f.t))
	s.now = func() time.Time { return fixedNow }
	return s
}

func (f *fixture) reminderService() *ReminderService {
	return NewReminderService(f.children, f.activities, f.overrides, f.deliveries, f.notifier, f.expander, time.UTC, 24*time.Hour, zaptest.NewLogger(f.t))
}

func (f *fixture) user(id int64) *model.User {
	return f.users.byID[id]
}

func clock(s string) model.Clock {
	c, err := model.ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func weeklyPattern(days ...time.Weekday) *model.RecurrencePattern {
	return &model.RecurrencePattern{Rule: model.Weekly{Weekdays: days}, Interval: 1}
}

func fieldNames(err error) []string {
	ve, ok := err.(*schedule.ValidationError)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		names = append(names, f.Field)
	}
	return names
}
