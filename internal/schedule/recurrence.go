package schedule

import (
	"iter"
	"slices"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
)

// Expander разворачивает правила повторения в конкретные даты.
// maxWindowDays ограничивает окно для правил без собственной границы, 0 - без ограничения.
type Expander struct {
	maxWindowDays int
}

func NewExpander(maxWindowDays int) *Expander {
	return &Expander{maxWindowDays: maxWindowDays}
}

// Expand разворачивает правило без ограничения размера окна
func Expand(p model.RecurrencePattern, anchor, windowStart, windowEnd time.Time) (iter.Seq[time.Time], error) {
	return (&Expander{}).Expand(p, anchor, windowStart, windowEnd)
}

// Expand возвращает ленивую возрастающую последовательность дат вхождений в [windowStart, windowEnd].
// MaxOccurrences считается от якорной даты, включая вхождения до начала окна.
func (e *Expander) Expand(p model.RecurrencePattern, anchor, windowStart, windowEnd time.Time) (iter.Seq[time.Time], error) {
	anchor, windowStart, windowEnd = DateOf(anchor), DateOf(windowStart), DateOf(windowEnd)

	if err := ValidatePattern(p, anchor); err != nil {
		return nil, err
	}
	if windowEnd.Before(windowStart) {
		return nil, NewValidationError("window", "window end is before window start")
	}
	if !p.IsBounded() && e.maxWindowDays > 0 {
		if days := DaysBetween(windowStart, windowEnd) + 1; days > e.maxWindowDays {
			return nil, &UnboundedExpansionError{WindowDays: days, MaxDays: e.maxWindowDays}
		}
	}

	last := windowEnd
	if p.EndDate != nil && DateOf(*p.EndDate).Before(last) {
		last = DateOf(*p.EndDate)
	}
	limit := -1
	if p.MaxOccurrences != nil {
		limit = *p.MaxOccurrences
	}
	seq := newSequence(p, anchor)

	return func(yield func(time.Time) bool) {
		for k := seq.seek(windowStart); limit < 0 || k < limit; k++ {
			d := seq.nth(k)
			if d.After(last) {
				return
			}
			if d.Before(windowStart) {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}, nil
}

// ExpandAll разворачивает правило в срез дат
func (e *Expander) ExpandAll(p model.RecurrencePattern, anchor, windowStart, windowEnd time.Time) ([]time.Time, error) {
	seq, err := e.Expand(p, anchor, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	return slices.Collect(seq), nil
}

// Occurs проверяет является ли date вхождением серии
func (e *Expander) Occurs(p model.RecurrencePattern, anchor, date time.Time) (bool, error) {
	seq, err := e.Expand(p, anchor, date, date)
	if err != nil {
		return false, err
	}
	for range seq {
		return true, nil
	}
	return false, nil
}

// ValidatePattern проверяет правило до начала разворачивания
func ValidatePattern(p model.RecurrencePattern, anchor time.Time) error {
	verr := &ValidationError{}

	if p.Rule == nil {
		verr.Add("frequency", "frequency is required")
	}
	if p.Interval < 1 {
		verr.Add("interval", "interval must be at least 1")
	}
	for _, wd := range p.Weekdays() {
		if wd < time.Sunday || wd > time.Saturday {
			verr.Add("weekdays", "weekday must be between 0 and 6")
			break
		}
	}
	if p.EndDate != nil && DateOf(*p.EndDate).Before(DateOf(anchor)) {
		verr.Add("end_date", "end date is before the anchor date")
	}
	if p.MaxOccurrences != nil && *p.MaxOccurrences < 1 {
		verr.Add("max_occurrences", "max occurrences must be at least 1")
	}

	return verr.OrNil()
}

// sequence нумерует вхождения серии от якоря: nth(0) - первое вхождение.
// Номер вхождения равен числу вхождений до него, поэтому MaxOccurrences сравнивается с k напрямую.
type sequence interface {
	nth(k int) time.Time
	// seek нижняя граница номера первого вхождения не раньше from
	seek(from time.Time) int
}

func newSequence(p model.RecurrencePattern, anchor time.Time) sequence {
	switch rule := p.Rule.(type) {
	case model.Weekly:
		return newWeeklySequence(rule, anchor, p.Interval)
	case model.Monthly:
		return monthlySequence{anchor: anchor, step: p.Interval}
	case model.Yearly:
		return monthlySequence{anchor: anchor, step: 12 * p.Interval}
	default:
		return dailySequence{anchor: anchor, step: p.Interval}
	}
}

type dailySequence struct {
	anchor time.Time
	step   int
}

func (s dailySequence) nth(k int) time.Time {
	return s.anchor.AddDate(0, 0, k*s.step)
}

func (s dailySequence) seek(from time.Time) int {
	return max(DaysBetween(s.anchor, from)/s.step, 0)
}

// monthlySequence используется и для yearly (шаг 12 месяцев).
// День месяца прижимается к последнему дню короткого месяца.
type monthlySequence struct {
	anchor time.Time
	step   int
}

func (s monthlySequence) nth(k int) time.Time {
	return addMonthsClamped(s.anchor, k*s.step)
}

func (s monthlySequence) seek(from time.Time) int {
	months := (from.Year()-s.anchor.Year())*12 + int(from.Month()) - int(s.anchor.Month())
	return max(months/s.step-1, 0)
}

// weeklySequence недели отсчитываются от понедельника недели якоря.
// В первой неделе пропускаются дни раньше якоря.
type weeklySequence struct {
	weekStart time.Time
	step      int
	offsets   []int // смещения от понедельника, по возрастанию
	first     []int // смещения первой недели
}

func newWeeklySequence(rule model.Weekly, anchor time.Time, interval int) *weeklySequence {
	weekdays := rule.Weekdays
	if len(weekdays) == 0 {
		weekdays = []time.Weekday{anchor.Weekday()}
	}

	offsets := make([]int, 0, len(weekdays))
	for _, wd := range weekdays {
		offsets = append(offsets, daysSinceMonday(wd))
	}
	slices.Sort(offsets)
	offsets = slices.Compact(offsets)

	anchorOffset := daysSinceMonday(anchor.Weekday())
	first := make([]int, 0, len(offsets))
	for _, off := range offsets {
		if off >= anchorOffset {
			first = append(first, off)
		}
	}

	return &weeklySequence{
		weekStart: WeekStart(anchor),
		step:      interval,
		offsets:   offsets,
		first:     first,
	}
}

func (s *weeklySequence) nth(k int) time.Time {
	if k < len(s.first) {
		return s.weekStart.AddDate(0, 0, s.first[k])
	}
	k -= len(s.first)
	week := 1 + k/len(s.offsets)
	return s.weekStart.AddDate(0, 0, week*7*s.step+s.offsets[k%len(s.offsets)])
}

func (s *weeklySequence) seek(from time.Time) int {
	weeks := DaysBetween(s.weekStart, WeekStart(from)) / 7 / s.step
	if weeks < 1 {
		return 0
	}
	return len(s.first) + (weeks-1)*len(s.offsets)
}
