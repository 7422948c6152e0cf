package repository

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
)

// recurrenceColumns плоское представление правила повторения в таблице
type recurrenceColumns struct {
	Frequency      *string
	Interval       *int32
	Weekdays       []int32
	EndDate        *time.Time
	MaxOccurrences *int32
}

func recurrenceToColumns(p *model.RecurrencePattern) recurrenceColumns {
	if p == nil {
		return recurrenceColumns{}
	}

	freq := string(p.Frequency())
	interval := int32(p.Interval)
	c := recurrenceColumns{
		Frequency: &freq,
		Interval:  &interval,
		EndDate:   p.EndDate,
	}
	for _, wd := range p.Weekdays() {
		c.Weekdays = append(c.Weekdays, int32(wd))
	}
	if p.MaxOccurrences != nil {
		n := int32(*p.MaxOccurrences)
		c.MaxOccurrences = &n
	}
	return c
}

func (c recurrenceColumns) pattern() (*model.RecurrencePattern, error) {
	if c.Frequency == nil {
		return nil, nil
	}

	weekdays := make([]time.Weekday, 0, len(c.Weekdays))
	for _, wd := range c.Weekdays {
		weekdays = append(weekdays, time.Weekday(wd))
	}
	rule, err := model.NewRecurrenceRule(model.Frequency(*c.Frequency), weekdays)
	if err != nil {
		return nil, fmt.Errorf("decode recurrence: %w", err)
	}

	p := &model.RecurrencePattern{Rule: rule, Interval: 1, EndDate: c.EndDate}
	if c.Interval != nil {
		p.Interval = int(*c.Interval)
	}
	if c.MaxOccurrences != nil {
		n := int(*c.MaxOccurrences)
		p.MaxOccurrences = &n
	}
	return p, nil
}
