package schedule

import (
	"errors"
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func dates(ss ...string) []time.Time {
	out := make([]time.Time, 0, len(ss))
	for _, s := range ss {
		out = append(out, date(s))
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}

func weekly(interval int, days ...time.Weekday) model.RecurrencePattern {
	return model.RecurrencePattern{Rule: model.Weekly{Weekdays: days}, Interval: interval}
}

func expandAll(t *testing.T, p model.RecurrencePattern, anchor, from, to string) []time.Time {
	t.Helper()
	got, err := NewExpander(0).ExpandAll(p, date(anchor), date(from), date(to))
	require.NoError(t, err)
	return got
}

func TestExpand_WeeklyMondayWednesdayJanuary(t *testing.T) {
	got := expandAll(t, weekly(1, time.Monday, time.Wednesday), "2024-01-01", "2024-01-01", "2024-01-31")

	assert.Equal(t, dates(
		"2024-01-01", "2024-01-03", "2024-01-08", "2024-01-10", "2024-01-15",
		"2024-01-17", "2024-01-22", "2024-01-24", "2024-01-29", "2024-01-31",
	), got)
}

func TestExpand_Daily(t *testing.T) {
	p := model.RecurrencePattern{Rule: model.Daily{}, Interval: 3}

	got := expandAll(t, p, "2024-01-01", "2024-01-05", "2024-01-15")

	assert.Equal(t, dates("2024-01-07", "2024-01-10", "2024-01-13"), got)
}

func TestExpand_MonthlyClampsToMonthEnd(t *testing.T) {
	p := model.RecurrencePattern{Rule: model.Monthly{}, Interval: 1}

	got := expandAll(t, p, "2024-01-31", "2024-01-01", "2024-04-30")

	assert.Equal(t, dates("2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"), got)
}

func TestExpand_MonthlyInterval(t *testing.T) {
	p := model.RecurrencePattern{Rule: model.Monthly{}, Interval: 2}

	got := expandAll(t, p, "2023-12-31", "2024-01-01", "2024-12-31")

	assert.Equal(t, dates("2024-02-29", "2024-04-30", "2024-06-30", "2024-08-31", "2024-10-31", "2024-12-31"), got)
}

func TestExpand_YearlyLeapDay(t *testing.T) {
	p := model.RecurrencePattern{Rule: model.Yearly{}, Interval: 1}

	got := expandAll(t, p, "2024-02-29", "2024-01-01", "2028-12-31")

	assert.Equal(t, dates("2024-02-29", "2025-02-28", "2026-02-28", "2027-02-28", "2028-02-29"), got)
}

func TestExpand_WeeklyEmptyWeekdaysUsesAnchorWeekday(t *testing.T) {
	got := expandAll(t, weekly(2), "2024-01-03", "2024-01-01", "2024-01-31")

	assert.Equal(t, dates("2024-01-03", "2024-01-17", "2024-01-31"), got)
}

func TestExpand_WeeklySkipsDaysBeforeAnchor(t *testing.T) {
	got := expandAll(t, weekly(1, time.Monday, time.Wednesday, time.Friday), "2024-01-03", "2024-01-01", "2024-01-14")

	assert.Equal(t, dates("2024-01-03", "2024-01-05", "2024-01-08", "2024-01-10", "2024-01-12"), got)
}

func TestExpand_WeeklySundayClosesMondayFirstWeek(t *testing.T) {
	got := expandAll(t, weekly(1, time.Sunday, time.Monday), "2024-01-01", "2024-01-01", "2024-01-14")

	assert.Equal(t, dates("2024-01-01", "2024-01-07", "2024-01-08", "2024-01-14"), got)
}

func TestExpand_WeeklyDuplicateWeekdaysEmittedOnce(t *testing.T) {
	got := expandAll(t, weekly(1, time.Monday, time.Monday), "2024-01-01", "2024-01-01", "2024-01-14")

	assert.Equal(t, dates("2024-01-01", "2024-01-08"), got)
}

func TestExpand_MaxOccurrencesExact(t *testing.T) {
	p := model.RecurrencePattern{Rule: model.Daily{}, Interval: 1, MaxOccurrences: ptr(5)}

	got, err := NewExpander(366).ExpandAll(p, date("2024-01-01"), date("2024-01-01"), date("2030-12-31"))
	require.NoError(t, err)

	assert.Len(t, got, 5)
	assert.Equal(t, date("2024-01-05"), got[4])
}

func TestExpand_MaxOccurrencesCountedFromAnchor(t *testing.T) {
	p := weekly(2, time.Monday, time.Wednesday)
	p.MaxOccurrences = ptr(6)

	got := expandAll(t, p, "2024-01-01", "2024-01-10", "2024-02-29")

	assert.Equal(t, dates("2024-01-15", "2024-01-17", "2024-01-29", "2024-01-31"), got)
}

func TestExpand_StopsAtFirstReachedBound(t *testing.T) {
	tests := []struct {
		name    string
		endDate string
		max     int
		want    []time.Time
	}{
		{"end date first", "2024-01-03", 10, dates("2024-01-01", "2024-01-02", "2024-01-03")},
		{"max occurrences first", "2024-01-31", 2, dates("2024-01-01", "2024-01-02")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := model.RecurrencePattern{
				Rule:           model.Daily{},
				Interval:       1,
				EndDate:        ptr(date(tt.endDate)),
				MaxOccurrences: ptr(tt.max),
			}
			assert.Equal(t, tt.want, expandAll(t, p, "2024-01-01", "2024-01-01", "2024-12-31"))
		})
	}
}

func TestExpand_WindowBeforeAnchorIsEmpty(t *testing.T) {
	p := model.RecurrencePattern{Rule: model.Daily{}, Interval: 1}

	assert.Empty(t, expandAll(t, p, "2024-03-01", "2024-01-01", "2024-02-28"))
}

func TestExpand_IsLazy(t *testing.T) {
	p := model.RecurrencePattern{Rule: model.Daily{}, Interval: 1}
	seq, err := Expand(p, date("2024-01-01"), date("2024-01-01"), date("2024-12-31"))
	require.NoError(t, err)

	var got []time.Time
	for d := range seq {
		got = append(got, d)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, dates("2024-01-01", "2024-01-02"), got)
}

func TestExpand_RejectsInvalidPattern(t *testing.T) {
	tests := []struct {
		name  string
		p     model.RecurrencePattern
		field string
	}{
		{"missing rule", model.RecurrencePattern{Interval: 1}, "frequency"},
		{"zero interval", model.RecurrencePattern{Rule: model.Daily{}}, "interval"},
		{"negative interval", model.RecurrencePattern{Rule: model.Monthly{}, Interval: -1}, "interval"},
		{"weekday out of range", weekly(1, time.Weekday(7)), "weekdays"},
		{"end before anchor", model.RecurrencePattern{Rule: model.Daily{}, Interval: 1, EndDate: ptr(date("2023-12-31"))}, "end_date"},
		{"zero max occurrences", model.RecurrencePattern{Rule: model.Daily{}, Interval: 1, MaxOccurrences: ptr(0)}, "max_occurrences"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Expand(tt.p, date("2024-01-01"), date("2024-01-01"), date("2024-01-31"))

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
		})
	}
}

func TestExpand_RejectsReversedWindow(t *testing.T) {
	_, err := Expand(weekly(1), date("2024-01-01"), date("2024-02-01"), date("2024-01-01"))

	assert.True(t, IsValidation(err))
}

func TestExpand_UnboundedWindowCap(t *testing.T) {
	e := NewExpander(366)
	p := weekly(1, time.Monday)

	_, err := e.Expand(p, date("2024-01-01"), date("2024-01-01"), date("2025-12-31"))

	var uerr *UnboundedExpansionError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, 731, uerr.WindowDays)
	assert.Equal(t, 366, uerr.MaxDays)

	_, err = e.Expand(p, date("2024-01-01"), date("2024-01-01"), date("2024-12-31"))
	assert.NoError(t, err, "a window within the cap is accepted")

	p.EndDate = ptr(date("2030-01-01"))
	_, err = e.Expand(p, date("2024-01-01"), date("2024-01-01"), date("2025-12-31"))
	assert.NoError(t, err, "bounded rules ignore the cap")
}

func TestExpander_Occurs(t *testing.T) {
	e := NewExpander(366)
	p := weekly(1, time.Monday, time.Wednesday)

	ok, err := e.Occurs(p, date("2024-01-01"), date("2024-05-15"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Occurs(p, date("2024-01-01"), date("2024-05-16"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func randomPattern(rng *rand.Rand) model.RecurrencePattern {
	p := model.RecurrencePattern{Interval: rng.Intn(4) + 1}
	switch rng.Intn(4) {
	case 0:
		p.Rule = model.Daily{}
	case 1:
		var days []time.Weekday
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			if rng.Intn(3) == 0 {
				days = append(days, wd)
			}
		}
		p.Rule = model.Weekly{Weekdays: days}
	case 2:
		p.Rule = model.Monthly{}
	default:
		p.Rule = model.Yearly{}
	}
	if rng.Intn(3) == 0 {
		p.MaxOccurrences = ptr(rng.Intn(40) + 1)
	}
	return p
}

// satisfiesRule проверяет дату относительно якоря без использования генератора
func satisfiesRule(p model.RecurrencePattern, anchor, d time.Time) bool {
	if d.Before(anchor) {
		return false
	}
	switch rule := p.Rule.(type) {
	case model.Daily:
		return DaysBetween(anchor, d)%p.Interval == 0
	case model.Weekly:
		days := rule.Weekdays
		if len(days) == 0 {
			days = []time.Weekday{anchor.Weekday()}
		}
		weeks := DaysBetween(WeekStart(anchor), WeekStart(d)) / 7
		return slices.Contains(days, d.Weekday()) && weeks%p.Interval == 0
	case model.Monthly, model.Yearly:
		months := (d.Year()-anchor.Year())*12 + int(d.Month()) - int(anchor.Month())
		step := p.Interval
		if _, ok := rule.(model.Yearly); ok {
			step *= 12
		}
		return months%step == 0 && d.Day() == min(anchor.Day(), DaysIn(d.Year(), d.Month()))
	}
	return false
}

func minDate(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}

func TestExpand_Invariants_RandomPatterns(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	e := NewExpander(0)
	base := date("2023-01-01")

	for trial := 0; trial < 500; trial++ {
		p := randomPattern(rng)
		anchor := base.AddDate(0, 0, rng.Intn(900))
		from := anchor.AddDate(0, 0, rng.Intn(500)-30)
		to := from.AddDate(0, 0, rng.Intn(120))

		got, err := e.ExpandAll(p, anchor, from, to)
		require.NoError(t, err, "trial %d", trial)

		for i, d := range got {
			assert.False(t, d.Before(from) || d.After(to), "trial %d: %s outside window", trial, FormatDate(d))
			assert.True(t, satisfiesRule(p, anchor, d), "trial %d: %s does not satisfy rule", trial, FormatDate(d))
			if i > 0 {
				assert.True(t, got[i-1].Before(d), "trial %d: dates must be strictly ascending", trial)
			}
		}

		// Окно, начинающееся не позже якоря, должно давать те же даты после фильтрации
		full, err := e.ExpandAll(p, anchor, minDate(anchor, from), to)
		require.NoError(t, err)
		var filtered []time.Time
		for _, d := range full {
			if !d.Before(from) {
				filtered = append(filtered, d)
			}
		}
		assert.Equal(t, filtered, got, "trial %d: window start must not change which dates are emitted", trial)

		if p.MaxOccurrences != nil {
			assert.LessOrEqual(t, len(full), *p.MaxOccurrences, "trial %d", trial)
		}
	}
}
