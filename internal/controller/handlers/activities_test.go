package handlers

import (
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/controller/keyboard"
	"github.com/Freeeeeet/tutor_scheduler/internal/controller/state"
	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftHandlers(repeat string) (*Handlers, int64) {
	const user = int64(100)
	sm := state.NewManager()
	sm.Advance(user, state.KeyChildID, int64(10), state.StateNewActivityTitle)
	sm.Advance(user, state.KeyTitle, "Бассейн", state.StateNewActivityDate)
	sm.Advance(user, state.KeyDate, schedule.NewDate(2024, time.March, 6), state.StateNewActivityTime)
	sm.SetData(user, state.KeyStartTime, model.NewClock(17, 0))
	sm.Advance(user, state.KeyEndTime, model.NewClock(18, 0), state.StateNewActivityRecurrence)
	sm.Advance(user, state.KeyRecurrence, repeat, state.StateNewActivityReminder)
	return &Handlers{stateManager: sm}, user
}

func TestActivityDraft_WeeklyWithReminder(t *testing.T) {
	h, user := draftHandlers(string(model.FrequencyWeekly))

	childID, in, err := h.activityDraft(user, 60)
	require.NoError(t, err)

	assert.Equal(t, int64(10), childID)
	assert.Equal(t, "Бассейн", in.Title)
	assert.Equal(t, model.NewClock(17, 0), in.StartTime)
	assert.Equal(t, model.NewClock(18, 0), in.EndTime)
	require.NotNil(t, in.Recurrence)
	assert.Equal(t, model.FrequencyWeekly, in.Recurrence.Frequency())
	assert.Equal(t, []time.Weekday{time.Wednesday}, in.Recurrence.Weekdays())
	assert.Equal(t, 1, in.Recurrence.Interval)
	require.Len(t, in.Reminders, 1)
	assert.Equal(t, model.ReminderChannelNotification, in.Reminders[0].Channel)
	assert.Equal(t, 60, in.Reminders[0].MinutesBefore)
	assert.True(t, in.Reminders[0].Enabled)
}

func TestActivityDraft_SingleWithoutReminder(t *testing.T) {
	h, user := draftHandlers(keyboard.RepeatNone)

	_, in, err := h.activityDraft(user, 0)
	require.NoError(t, err)
	assert.Nil(t, in.Recurrence)
	assert.Empty(t, in.Reminders)
}

func TestActivityDraft_Incomplete(t *testing.T) {
	h := &Handlers{stateManager: state.NewManager()}
	h.stateManager.Advance(1, state.KeyTitle, "Бассейн", state.StateNewActivityDate)

	_, _, err := h.activityDraft(1, 0)
	assert.ErrorIs(t, err, errBadArgs)
}

func TestActivityDraft_UnknownFrequency(t *testing.T) {
	h, user := draftHandlers("hourly")

	_, _, err := h.activityDraft(user, 0)
	assert.ErrorIs(t, err, errBadArgs)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("short", 10))
	assert.Equal(t, "line1\n…", truncateRunes("line1\nline2 is long", 10))
}
