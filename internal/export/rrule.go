package export

import (
	"errors"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/schedule"
	"github.com/teambition/rrule-go"
)

// ErrNoOccurrences у серии нет ни одного вхождения
var ErrNoOccurrences = errors.New("recurrence has no occurrences")

var rruleWeekdays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// RecurrenceOption переводит правило в опции RRULE.
// Dtstart ставится на первое фактическое вхождение в start по часовому поясу loc.
// Поведение совпадает с разворачиванием в schedule: недели с понедельника,
// дни месяца после 28-го прижимаются к концу короткого месяца.
func RecurrenceOption(p model.RecurrencePattern, anchor time.Time, start model.Clock, loc *time.Location) (rrule.ROption, error) {
	anchor = schedule.DateOf(anchor)
	first, err := firstOccurrence(p, anchor)
	if err != nil {
		return rrule.ROption{}, err
	}

	opt := rrule.ROption{
		Interval: p.Interval,
		Wkst:     rrule.MO,
		Dtstart:  start.On(inLocation(first, loc)),
	}

	switch rule := p.Rule.(type) {
	case model.Daily:
		opt.Freq = rrule.DAILY
	case model.Weekly:
		opt.Freq = rrule.WEEKLY
		weekdays := rule.Weekdays
		if len(weekdays) == 0 {
			weekdays = []time.Weekday{anchor.Weekday()}
		}
		seen := make(map[time.Weekday]bool, len(weekdays))
		for _, wd := range weekdays {
			if !seen[wd] {
				seen[wd] = true
				opt.Byweekday = append(opt.Byweekday, rruleWeekdays[wd])
			}
		}
	case model.Monthly:
		opt.Freq = rrule.MONTHLY
		if day := anchor.Day(); day > 28 {
			opt.Bymonthday = monthDaysFrom28(day)
			opt.Bysetpos = []int{-1}
		}
	case model.Yearly:
		opt.Freq = rrule.YEARLY
		if anchor.Month() == time.February && anchor.Day() == 29 {
			opt.Bymonth = []int{2}
			opt.Bymonthday = []int{28, 29}
			opt.Bysetpos = []int{-1}
		}
	default:
		return rrule.ROption{}, schedule.NewValidationError("frequency", "frequency is required")
	}

	// В RRULE нельзя задавать COUNT и UNTIL одновременно, остаётся ближайшая граница
	switch {
	case p.MaxOccurrences != nil && p.EndDate != nil:
		last, err := lastByCount(p, anchor)
		if err != nil {
			return rrule.ROption{}, err
		}
		if end := schedule.DateOf(*p.EndDate); end.Before(last) {
			opt.Until = untilOf(end, loc)
		} else {
			opt.Count = *p.MaxOccurrences
		}
	case p.MaxOccurrences != nil:
		opt.Count = *p.MaxOccurrences
	case p.EndDate != nil:
		opt.Until = untilOf(schedule.DateOf(*p.EndDate), loc)
	}

	return opt, nil
}

// firstOccurrence первое вхождение не позже чем через год и интервал после якоря
func firstOccurrence(p model.RecurrencePattern, anchor time.Time) (time.Time, error) {
	seq, err := schedule.Expand(p, anchor, anchor, anchor.AddDate(1, 0, 7*p.Interval))
	if err != nil {
		return time.Time{}, err
	}
	for d := range seq {
		return d, nil
	}
	return time.Time{}, ErrNoOccurrences
}

// lastByCount дата последнего вхождения по MaxOccurrences без учёта EndDate
func lastByCount(p model.RecurrencePattern, anchor time.Time) (time.Time, error) {
	unbounded := p
	unbounded.EndDate = nil

	var last time.Time
	seq, err := schedule.Expand(unbounded, anchor, anchor, anchor.AddDate(0, 12*p.Interval*(*p.MaxOccurrences+1), 0))
	if err != nil {
		return time.Time{}, err
	}
	for d := range seq {
		last = d
	}
	return last, nil
}

func monthDaysFrom28(day int) []int {
	days := make([]int, 0, day-27)
	for d := 28; d <= day; d++ {
		days = append(days, d)
	}
	return days
}

// untilOf конец дня end в часовом поясе loc
func untilOf(end time.Time, loc *time.Location) time.Time {
	return inLocation(end, loc).AddDate(0, 0, 1).Add(-time.Second)
}

// inLocation полночь той же календарной даты в loc
func inLocation(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
