package main

import (
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
)

// demo расписание одной семьи с репетитором на неделю monday
type demo struct {
	activities []*model.ScheduleActivity
	overrides  map[int64][]model.OccurrenceOverride
	lessons    []*model.Lesson
}

func newDemo(monday time.Time, loc *time.Location) demo {
	day := func(offset int) time.Time { return monday.AddDate(0, 0, offset) }
	at := func(offset, hour, minute int) time.Time {
		d := day(offset)
		return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc)
	}
	weekly := func(days ...time.Weekday) *model.RecurrencePattern {
		return &model.RecurrencePattern{Rule: model.Weekly{Weekdays: days}, Interval: 1}
	}
	moved := day(4)
	movedStart := model.NewClock(18, 0)
	movedEnd := model.NewClock(19, 0)

	maria := &model.Child{ID: 1, ParentID: 1, Name: "Маша"}
	tutor := &model.User{ID: 2, FirstName: "Анна", LastName: "Петровна", IsTutor: true}

	return demo{
		activities: []*model.ScheduleActivity{
			{
				ID: 1, ChildID: maria.ID, Title: "Школа", Date: day(0),
				StartTime: model.NewClock(8, 30), EndTime: model.NewClock(13, 30),
				IsRecurring: true, Priority: model.PriorityHigh,
				Recurrence: weekly(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
			},
			{
				ID: 2, ChildID: maria.ID, Title: "Бассейн", Location: "ФОК", Date: day(0),
				StartTime: model.NewClock(17, 0), EndTime: model.NewClock(18, 0),
				IsRecurring: true, Priority: model.PriorityMedium,
				Recurrence: weekly(time.Monday, time.Wednesday),
			},
			{
				ID: 3, ChildID: maria.ID, Title: "Музыкалка", Date: day(1),
				StartTime: model.NewClock(15, 0), EndTime: model.NewClock(16, 30),
				IsRecurring: true, Priority: model.PriorityMedium,
				Recurrence: weekly(time.Tuesday, time.Thursday),
			},
			{
				ID: 4, ChildID: maria.ID, Title: "День рождения у Оли", Date: day(5),
				StartTime: model.NewClock(14, 0), EndTime: model.NewClock(17, 0),
				Priority: model.PriorityLow,
			},
		},
		overrides: map[int64][]model.OccurrenceOverride{
			// Бассейн в среду отменён
			2: {{ActivityID: 2, OriginalDate: day(2), IsCancelled: true}},
			// Музыкалка с четверга перенесена на пятницу вечером
			3: {{ActivityID: 3, OriginalDate: day(3), Date: &moved, StartTime: &movedStart, EndTime: &movedEnd}},
		},
		lessons: []*model.Lesson{
			{
				ID: 1, TutorID: tutor.ID, StudentID: maria.ID, Status: model.LessonStatusConfirmed,
				StartsAt: at(1, 18, 0), DurationMinutes: 60, Location: "Онлайн",
				Recurrence: weekly(time.Tuesday),
				Student:    maria, Tutor: tutor,
			},
			{
				ID: 2, TutorID: tutor.ID, StudentID: maria.ID, Status: model.LessonStatusScheduled,
				StartsAt: at(5, 11, 0), DurationMinutes: 90, MeetingLink: "https://meet.example.com/math",
				Student: maria, Tutor: tutor,
			},
		},
	}
}
