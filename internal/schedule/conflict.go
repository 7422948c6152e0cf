package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
)

// TimeRange интервал [Start, End) в пределах одной календарной даты
type TimeRange struct {
	Date  time.Time
	Start model.Clock
	End   model.Clock
}

// NewTimeRange создаёт интервал, нормализуя дату
func NewTimeRange(date time.Time, start, end model.Clock) TimeRange {
	return TimeRange{Date: DateOf(date), Start: start, End: end}
}

func (r TimeRange) String() string {
	return fmt.Sprintf("%s %s-%s", FormatDate(r.Date), r.Start, r.End)
}

// Validate проверяет что интервал не пустой и лежит в пределах суток
func (r TimeRange) Validate() error {
	return validateClocks(r.Start, r.End)
}

// Overlaps пересекаются ли интервалы. Касание границами пересечением не считается.
func (r TimeRange) Overlaps(other TimeRange) bool {
	if !DateOf(r.Date).Equal(DateOf(other.Date)) {
		return false
	}
	return r.Start < other.End && other.Start < r.End
}

// Weekly переводит интервал в недельный для проверки доступности
func (r TimeRange) Weekly() WeeklyRange {
	return WeeklyRange{Weekday: r.Date.Weekday(), Start: r.Start, End: r.End}
}

// WeeklyRange интервал времени в день недели
type WeeklyRange struct {
	Weekday time.Weekday
	Start   model.Clock
	End     model.Clock
}

func (r WeeklyRange) Validate() error {
	if r.Weekday < time.Sunday || r.Weekday > time.Saturday {
		return NewValidationError("weekday", "weekday must be between 0 and 6")
	}
	return validateClocks(r.Start, r.End)
}

// HasConflict пересекается ли предложенный интервал хотя бы с одним существующим
func HasConflict(proposed TimeRange, existing []TimeRange) bool {
	_, found := FindConflict(proposed, existing)
	return found
}

// FindConflict возвращает первый существующий интервал, пересекающийся с предложенным
func FindConflict(proposed TimeRange, existing []TimeRange) (TimeRange, bool) {
	for _, r := range existing {
		if proposed.Overlaps(r) {
			return r, true
		}
	}
	return TimeRange{}, false
}

// FindConflicts возвращает все пересекающиеся интервалы
func FindConflicts(proposed TimeRange, existing []TimeRange) []TimeRange {
	var out []TimeRange
	for _, r := range existing {
		if proposed.Overlaps(r) {
			out = append(out, r)
		}
	}
	return out
}

// IsWithinAvailability целиком ли интервал помещается в один доступный слот этого дня недели.
// Интервал через два соседних слота не принимается.
func IsWithinAvailability(proposed WeeklyRange, slots []model.ScheduleSlot) bool {
	for _, s := range slots {
		if !s.IsAvailable || s.Weekday != proposed.Weekday {
			continue
		}
		if s.StartTime <= proposed.Start && proposed.End <= s.EndTime {
			return true
		}
	}
	return false
}

// CheckBooking проверяет бронирование: интервал корректен, лежит в доступности
// и не пересекается с занятым временем. existing должен содержать уже развёрнутые повторяющиеся занятия.
func CheckBooking(proposed TimeRange, slots []model.ScheduleSlot, existing []TimeRange) error {
	if err := proposed.Validate(); err != nil {
		return err
	}
	if !IsWithinAvailability(proposed.Weekly(), slots) {
		return ErrOutsideAvailability
	}
	if r, found := FindConflict(proposed, existing); found {
		return &ConflictError{Proposed: proposed, Existing: r}
	}
	return nil
}

// IsConflict проверяет является ли ошибка конфликтом времени
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// RangeOf интервал, занимаемый вхождением
func RangeOf(o model.Occurrence) TimeRange {
	return NewTimeRange(o.Date, o.StartTime, o.EndTime)
}

// RangesOf интервалы, занимаемые вхождениями
func RangesOf(occurrences []model.Occurrence) []TimeRange {
	out := make([]TimeRange, 0, len(occurrences))
	for _, o := range occurrences {
		out = append(out, RangeOf(o))
	}
	return out
}

func validateClocks(start, end model.Clock) error {
	verr := &ValidationError{}
	if !start.Valid() || start == model.MinutesPerDay {
		verr.Add("start_time", "start time is out of range")
	}
	if !end.Valid() {
		verr.Add("end_time", "end time is out of range")
	}
	if end <= start {
		verr.Add("end_time", "end time must be after start time")
	}
	return verr.OrNil()
}
