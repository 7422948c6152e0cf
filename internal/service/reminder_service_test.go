package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createWithReminders(t *testing.T, f *fixture, in ActivityInput) *model.ScheduleActivity {
	t.Helper()
	a, err := f.activityService().Create(context.Background(), parentID, childID, in)
	require.NoError(t, err)
	return a
}

func swimmingInput(reminders ...ReminderInput) ActivityInput {
	return ActivityInput{
		Title:     "Бассейн",
		Date:      date("2024-01-10"),
		StartTime: clock("16:00"),
		EndTime:   clock("17:00"),
		Reminders: reminders,
	}
}

func TestReminderService_Due(t *testing.T) {
	f := newFixture(t)
	createWithReminders(t, f, swimmingInput(
		ReminderInput{Channel: model.ReminderChannelNotification, MinutesBefore: 30, Enabled: true},
		ReminderInput{Channel: model.ReminderChannelNotification, MinutesBefore: 10, Enabled: true},
		ReminderInput{Channel: model.ReminderChannelNotification, MinutesBefore: 60, Enabled: false},
		ReminderInput{Channel: model.ReminderChannelEmail, MinutesBefore: 60, Enabled: true},
	))
	svc := f.reminderService()

	tests := []struct {
		name    string
		now     time.Time
		minutes []int
	}{
		{name: "too early", now: time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)},
		{name: "first reminder", now: time.Date(2024, 1, 10, 15, 30, 0, 0, time.UTC), minutes: []int{30}},
		{name: "both reminders", now: time.Date(2024, 1, 10, 15, 55, 0, 0, time.UTC), minutes: []int{30, 10}},
		{name: "already started", now: time.Date(2024, 1, 10, 16, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			due, err := svc.Due(context.Background(), tt.now)
			require.NoError(t, err)

			var minutes []int
			for _, d := range due {
				assert.Equal(t, int64(100), d.ChatID)
				assert.Equal(t, time.Date(2024, 1, 10, 16, 0, 0, 0, time.UTC), d.StartsAt)
				minutes = append(minutes, d.Reminder.MinutesBefore)
			}
			assert.Equal(t, tt.minutes, minutes)
		})
	}
}

func TestReminderService_DispatchOncePerOccurrence(t *testing.T) {
	f := newFixture(t)
	in := swimmingInput(ReminderInput{Channel: model.ReminderChannelNotification, MinutesBefore: 60, Enabled: true})
	in.Recurrence = &model.RecurrencePattern{Rule: model.Daily{}, Interval: 1}
	createWithReminders(t, f, in)
	svc := f.reminderService()
	ctx := context.Background()

	dayOne := time.Date(2024, 1, 10, 15, 30, 0, 0, time.UTC)
	sent, err := svc.Dispatch(ctx, dayOne)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	sent, err = svc.Dispatch(ctx, dayOne.Add(time.Minute))
	require.NoError(t, err)
	assert.Zero(t, sent)

	sent, err = svc.Dispatch(ctx, dayOne.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	require.Len(t, f.notifier.sent, 2)
	assert.Equal(t, date("2024-01-10"), f.notifier.sent[0].Occurrence.OriginalDate)
	assert.Equal(t, date("2024-01-11"), f.notifier.sent[1].Occurrence.OriginalDate)
}

func TestReminderService_FailedDeliveryIsRetried(t *testing.T) {
	f := newFixture(t)
	createWithReminders(t, f, swimmingInput(ReminderInput{Channel: model.ReminderChannelNotification, MinutesBefore: 30, Enabled: true}))
	svc := f.reminderService()
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 15, 40, 0, 0, time.UTC)

	f.notifier.err = errors.New("bot was blocked by the user")
	sent, err := svc.Dispatch(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, f.deliveries.delivered)

	f.notifier.err = nil
	sent, err = svc.Dispatch(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestReminderService_MovedOccurrence(t *testing.T) {
	f := newFixture(t)
	in := swimmingInput(ReminderInput{Channel: model.ReminderChannelNotification, MinutesBefore: 30, Enabled: true})
	in.Recurrence = &model.RecurrencePattern{Rule: model.Daily{}, Interval: 1}
	a := createWithReminders(t, f, in)

	_, err := f.activityService().EditOccurrence(context.Background(), parentID, a.ID, date("2024-01-10"), OccurrenceEdit{
		StartTime: ptr(clock("18:00")),
		EndTime:   ptr(clock("19:00")),
	})
	require.NoError(t, err)

	due, err := f.reminderService().Due(context.Background(), time.Date(2024, 1, 10, 15, 40, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = f.reminderService().Due(context.Background(), time.Date(2024, 1, 10, 17, 45, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, clock("18:00"), due[0].Occurrence.StartTime)
}

func TestReminderService_SeriesEditKeepsDeliveries(t *testing.T) {
	f := newFixture(t)
	in := swimmingInput(ReminderInput{Channel: model.ReminderChannelNotification, MinutesBefore: 60, Enabled: true})
	in.Recurrence = &model.RecurrencePattern{Rule: model.Daily{}, Interval: 1}
	a := createWithReminders(t, f, in)
	reminderID := a.Reminders[0].ID
	svc := f.reminderService()
	ctx := context.Background()

	now := time.Date(2024, 1, 10, 15, 30, 0, 0, time.UTC)
	sent, err := svc.Dispatch(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, sent)

	in.Title = "Бассейн с тренером"
	updated, err := f.activityService().UpdateSeries(ctx, parentID, a.ID, in)
	require.NoError(t, err)
	require.Len(t, updated.Reminders, 1)
	assert.Equal(t, reminderID, updated.Reminders[0].ID)

	sent, err = svc.Dispatch(ctx, now.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Len(t, f.notifier.sent, 1)

	// новый срок - новое напоминание, оно приходит один раз
	in.Reminders = []ReminderInput{{Channel: model.ReminderChannelNotification, MinutesBefore: 30, Enabled: true}}
	updated, err = f.activityService().UpdateSeries(ctx, parentID, a.ID, in)
	require.NoError(t, err)
	assert.NotEqual(t, reminderID, updated.Reminders[0].ID)

	sent, err = svc.Dispatch(ctx, now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Len(t, f.notifier.sent, 2)
}
