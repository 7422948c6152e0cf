package schedule

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(s string) model.Clock {
	c, err := model.ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func tr(day, start, end string) TimeRange {
	return NewTimeRange(date(day), clock(start), clock(end))
}

func slot(wd time.Weekday, start, end string, available bool) model.ScheduleSlot {
	return model.ScheduleSlot{Weekday: wd, StartTime: clock(start), EndTime: clock(end), IsAvailable: available}
}

func TestHasConflict(t *testing.T) {
	tests := []struct {
		name     string
		proposed TimeRange
		existing []TimeRange
		want     bool
	}{
		{"touching ranges", tr("2024-01-01", "10:00", "11:00"), []TimeRange{tr("2024-01-01", "09:00", "10:00")}, false},
		{"overlapping ranges", tr("2024-01-01", "09:30", "10:30"), []TimeRange{tr("2024-01-01", "09:00", "10:00")}, true},
		{"contained range", tr("2024-01-01", "09:15", "09:45"), []TimeRange{tr("2024-01-01", "09:00", "10:00")}, true},
		{"identical ranges", tr("2024-01-01", "09:00", "10:00"), []TimeRange{tr("2024-01-01", "09:00", "10:00")}, true},
		{"different dates", tr("2024-01-02", "09:00", "10:00"), []TimeRange{tr("2024-01-01", "09:00", "10:00")}, false},
		{"no existing ranges", tr("2024-01-01", "09:00", "10:00"), nil, false},
		{
			"any of several",
			tr("2024-01-01", "12:00", "13:00"),
			[]TimeRange{tr("2024-01-01", "09:00", "10:00"), tr("2024-01-01", "12:30", "14:00")},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasConflict(tt.proposed, tt.existing))
		})
	}
}

func TestHasConflict_Symmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	randomRange := func() TimeRange {
		start := model.Clock(rng.Intn(int(model.MinutesPerDay) - 15))
		end := start + model.Clock(rng.Intn(int(model.MinutesPerDay-start))+1)
		return NewTimeRange(date("2024-01-01").AddDate(0, 0, rng.Intn(2)), start, end)
	}

	for trial := 0; trial < 1000; trial++ {
		a, b := randomRange(), randomRange()
		assert.Equal(t, HasConflict(a, []TimeRange{b}), HasConflict(b, []TimeRange{a}),
			"trial %d: %s vs %s", trial, a, b)
	}
}

func TestFindConflicts(t *testing.T) {
	existing := []TimeRange{
		tr("2024-01-01", "08:00", "09:00"),
		tr("2024-01-01", "09:30", "10:30"),
		tr("2024-01-01", "10:45", "11:15"),
		tr("2024-01-02", "10:00", "11:00"),
	}

	got := FindConflicts(tr("2024-01-01", "09:00", "11:00"), existing)

	assert.Equal(t, []TimeRange{existing[1], existing[2]}, got)
}

func TestIsWithinAvailability(t *testing.T) {
	slots := []model.ScheduleSlot{
		slot(time.Monday, "09:00", "10:00", true),
		slot(time.Monday, "10:00", "11:00", true),
		slot(time.Tuesday, "12:00", "18:00", false),
		slot(time.Wednesday, "08:00", "20:00", true),
	}

	tests := []struct {
		name     string
		proposed WeeklyRange
		want     bool
	}{
		{"inside a slot", WeeklyRange{time.Wednesday, clock("09:00"), clock("10:30")}, true},
		{"exactly a slot", WeeklyRange{time.Monday, clock("09:00"), clock("10:00")}, true},
		{"spans adjacent slots", WeeklyRange{time.Monday, clock("09:30"), clock("10:30")}, false},
		{"slot not available", WeeklyRange{time.Tuesday, clock("13:00"), clock("14:00")}, false},
		{"another weekday", WeeklyRange{time.Thursday, clock("09:00"), clock("10:00")}, false},
		{"past slot end", WeeklyRange{time.Wednesday, clock("19:30"), clock("20:30")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWithinAvailability(tt.proposed, slots))
		})
	}

	assert.False(t, IsWithinAvailability(WeeklyRange{time.Monday, clock("09:00"), clock("10:00")}, nil),
		"no slots means no availability")
}

func TestCheckBooking(t *testing.T) {
	slots := []model.ScheduleSlot{slot(time.Monday, "09:00", "18:00", true)}
	existing := []TimeRange{tr("2024-01-01", "12:00", "13:00")}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, CheckBooking(tr("2024-01-01", "10:00", "11:00"), slots, existing))
	})

	t.Run("touching existing lesson", func(t *testing.T) {
		assert.NoError(t, CheckBooking(tr("2024-01-01", "13:00", "14:00"), slots, existing))
	})

	t.Run("end before start", func(t *testing.T) {
		err := CheckBooking(tr("2024-01-01", "11:00", "10:00"), slots, existing)
		assert.True(t, IsValidation(err))
	})

	t.Run("outside availability", func(t *testing.T) {
		err := CheckBooking(tr("2024-01-02", "10:00", "11:00"), slots, existing)
		assert.True(t, errors.Is(err, ErrOutsideAvailability))
	})

	t.Run("conflict", func(t *testing.T) {
		err := CheckBooking(tr("2024-01-01", "12:30", "13:30"), slots, existing)

		var cerr *ConflictError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, existing[0], cerr.Existing)
		assert.True(t, IsConflict(err))
	})
}

func TestTimeRange_Validate(t *testing.T) {
	assert.NoError(t, tr("2024-01-01", "23:00", "24:00").Validate())
	assert.Error(t, tr("2024-01-01", "10:00", "10:00").Validate())
	assert.Error(t, NewTimeRange(date("2024-01-01"), model.MinutesPerDay, model.MinutesPerDay+10).Validate())
}

func TestRangesOf(t *testing.T) {
	occ := []model.Occurrence{
		{Date: date("2024-01-01"), StartTime: clock("09:00"), EndTime: clock("10:00")},
		{Date: date("2024-01-02"), StartTime: clock("11:00"), EndTime: clock("11:30")},
	}

	assert.Equal(t, []TimeRange{tr("2024-01-01", "09:00", "10:00"), tr("2024-01-02", "11:00", "11:30")}, RangesOf(occ))
}
