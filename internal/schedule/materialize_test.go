package schedule

import (
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActivity(opts ...func(*model.ScheduleActivity)) *model.ScheduleActivity {
	a := &model.ScheduleActivity{
		ID:        1,
		ChildID:   10,
		Title:     "Piano",
		Date:      date("2024-01-01"),
		StartTime: clock("16:00"),
		EndTime:   clock("17:00"),
		Priority:  model.PriorityMedium,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func withRecurrence(p model.RecurrencePattern) func(*model.ScheduleActivity) {
	return func(a *model.ScheduleActivity) {
		a.IsRecurring = true
		a.Recurrence = &p
	}
}

func occurrenceDates(occ []model.Occurrence) []time.Time {
	out := make([]time.Time, 0, len(occ))
	for _, o := range occ {
		out = append(out, o.Date)
	}
	return out
}

func TestMaterializeActivity_Single(t *testing.T) {
	e := NewExpander(366)
	a := newActivity()

	got, err := e.MaterializeActivity(a, nil, date("2024-01-01"), date("2024-01-07"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.SourceActivity, got[0].Source)
	assert.Equal(t, int64(10), got[0].OwnerID)
	assert.Equal(t, clock("16:00"), got[0].StartTime)

	got, err = e.MaterializeActivity(a, nil, date("2024-01-08"), date("2024-01-14"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMaterializeActivity_RecurringWithoutPattern(t *testing.T) {
	a := newActivity(func(a *model.ScheduleActivity) { a.IsRecurring = true })

	_, err := NewExpander(366).MaterializeActivity(a, nil, date("2024-01-01"), date("2024-01-07"))

	assert.True(t, IsValidation(err))
}

func TestMaterializeActivity_Overrides(t *testing.T) {
	e := NewExpander(366)
	a := newActivity(withRecurrence(weekly(1, time.Monday, time.Wednesday)))
	overrides := []model.OccurrenceOverride{
		{ActivityID: 1, OriginalDate: date("2024-01-03"), IsCancelled: true},
		{ActivityID: 1, OriginalDate: date("2024-01-08"), StartTime: ptr(clock("18:00")), EndTime: ptr(clock("19:00")), Title: ptr("Piano recital")},
		// перенос из следующей недели в текущее окно
		{ActivityID: 1, OriginalDate: date("2024-01-15"), Date: ptr(date("2024-01-13"))},
		// перенос из окна наружу
		{ActivityID: 1, OriginalDate: date("2024-01-10"), Date: ptr(date("2024-01-20"))},
		// чужая активность
		{ActivityID: 2, OriginalDate: date("2024-01-01"), IsCancelled: true},
	}

	got, err := e.MaterializeActivity(a, overrides, date("2024-01-01"), date("2024-01-14"))
	require.NoError(t, err)

	assert.Equal(t, dates("2024-01-01", "2024-01-08", "2024-01-13"), occurrenceDates(got))

	assert.False(t, got[0].Overridden)
	assert.Equal(t, "Piano recital", got[1].Title)
	assert.Equal(t, clock("18:00"), got[1].StartTime)
	assert.True(t, got[1].Overridden)
	assert.Equal(t, date("2024-01-15"), got[2].OriginalDate)
	assert.True(t, got[2].Overridden)
}

func TestMaterializeActivity_OverrideForNonOccurrenceIgnored(t *testing.T) {
	a := newActivity(withRecurrence(weekly(1, time.Monday)))
	overrides := []model.OccurrenceOverride{
		{ActivityID: 1, OriginalDate: date("2024-01-16"), Date: ptr(date("2024-01-05"))},
	}

	got, err := NewExpander(366).MaterializeActivity(a, overrides, date("2024-01-01"), date("2024-01-07"))
	require.NoError(t, err)

	assert.Equal(t, dates("2024-01-01"), occurrenceDates(got))
}

func TestMaterializeLesson(t *testing.T) {
	e := NewExpander(366)
	msk := time.FixedZone("MSK", 3*60*60)

	l := &model.Lesson{
		ID:              5,
		TutorID:         7,
		StartsAt:        time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC),
		DurationMinutes: 90,
		MeetingLink:     "https://meet.example/abc",
		Status:          model.LessonStatusScheduled,
		Student:         &model.Child{Name: "Masha"},
	}

	got, err := e.MaterializeLesson(l, msk, date("2024-01-01"), date("2024-01-07"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.SourceLesson, got[0].Source)
	assert.Equal(t, int64(7), got[0].OwnerID)
	assert.Equal(t, clock("10:00"), got[0].StartTime)
	assert.Equal(t, clock("11:30"), got[0].EndTime)
	assert.Equal(t, "Masha", got[0].Title)
	assert.Equal(t, "https://meet.example/abc", got[0].Location)
}

func TestMaterializeLesson_Recurring(t *testing.T) {
	p := weekly(1, time.Tuesday, time.Thursday)
	l := &model.Lesson{
		ID:              5,
		StartsAt:        time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          model.LessonStatusConfirmed,
		Recurrence:      &p,
	}

	got, err := NewExpander(366).MaterializeLesson(l, time.UTC, date("2024-01-01"), date("2024-01-14"))
	require.NoError(t, err)

	assert.Equal(t, dates("2024-01-02", "2024-01-04", "2024-01-09", "2024-01-11"), occurrenceDates(got))
}

func TestMaterializeLesson_LocalDateAndMidnightClamp(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	l := &model.Lesson{
		StartsAt:        time.Date(2024, 1, 1, 20, 30, 0, 0, time.UTC),
		DurationMinutes: 120,
		Status:          model.LessonStatusScheduled,
	}

	got, err := NewExpander(366).MaterializeLesson(l, msk, date("2024-01-01"), date("2024-01-07"))
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, date("2024-01-01"), got[0].Date)
	assert.Equal(t, clock("23:30"), got[0].StartTime)
	assert.Equal(t, model.MinutesPerDay, got[0].EndTime)
}

func TestMaterializeLesson_CancelledOccupiesNothing(t *testing.T) {
	l := &model.Lesson{
		StartsAt:        time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          model.LessonStatusCancelled,
	}

	got, err := NewExpander(366).MaterializeLesson(l, time.UTC, date("2024-01-01"), date("2024-01-07"))
	require.NoError(t, err)
	assert.Empty(t, got)
}
