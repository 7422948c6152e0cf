package model

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// ErrWeekdaysNotAllowed дни недели указаны для правила, отличного от weekly
var ErrWeekdaysNotAllowed = errors.New("weekdays are only allowed for weekly rules")

// RecurrenceRule единица повторения. Реализации: Daily, Weekly, Monthly, Yearly.
// Дни недели есть только у Weekly, поэтому "monthly по средам" невыразимо.
type RecurrenceRule interface {
	Frequency() Frequency
	isRecurrenceRule()
}

type Daily struct{}

// Weekly повторение по дням недели (0 = Sunday, 6 = Saturday).
// Пустой список означает день недели якорной даты.
type Weekly struct {
	Weekdays []time.Weekday
}

type Monthly struct{}

type Yearly struct{}

func (Daily) Frequency() Frequency   { return FrequencyDaily }
func (Weekly) Frequency() Frequency  { return FrequencyWeekly }
func (Monthly) Frequency() Frequency { return FrequencyMonthly }
func (Yearly) Frequency() Frequency  { return FrequencyYearly }

func (Daily) isRecurrenceRule()   {}
func (Weekly) isRecurrenceRule()  {}
func (Monthly) isRecurrenceRule() {}
func (Yearly) isRecurrenceRule()  {}

// NewRecurrenceRule собирает правило из плоского представления (как хранится в БД)
func NewRecurrenceRule(freq Frequency, weekdays []time.Weekday) (RecurrenceRule, error) {
	if freq != FrequencyWeekly && len(weekdays) > 0 {
		return nil, ErrWeekdaysNotAllowed
	}

	switch freq {
	case FrequencyDaily:
		return Daily{}, nil
	case FrequencyWeekly:
		return Weekly{Weekdays: slices.Clone(weekdays)}, nil
	case FrequencyMonthly:
		return Monthly{}, nil
	case FrequencyYearly:
		return Yearly{}, nil
	default:
		return nil, fmt.Errorf("unknown frequency %q", freq)
	}
}

// RecurrencePattern правило повторения активности или занятия.
// Если заданы и EndDate, и MaxOccurrences, серия заканчивается на первой достигнутой границе.
type RecurrencePattern struct {
	Rule           RecurrenceRule `json:"-"`
	Interval       int            `json:"interval"`
	EndDate        *time.Time     `json:"end_date,omitempty"` // включительно
	MaxOccurrences *int           `json:"max_occurrences,omitempty"`
}

// Frequency возвращает частоту правила или пустую строку если правило не задано
func (p RecurrencePattern) Frequency() Frequency {
	if p.Rule == nil {
		return ""
	}
	return p.Rule.Frequency()
}

// Weekdays возвращает дни недели для weekly правила
func (p RecurrencePattern) Weekdays() []time.Weekday {
	if w, ok := p.Rule.(Weekly); ok {
		return w.Weekdays
	}
	return nil
}

// IsBounded сообщает задана ли у правила собственная граница
func (p RecurrencePattern) IsBounded() bool {
	return p.EndDate != nil || p.MaxOccurrences != nil
}
