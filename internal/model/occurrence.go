package model

import "time"

type OccurrenceSource string

const (
	SourceActivity OccurrenceSource = "activity"
	SourceLesson   OccurrenceSource = "lesson"
)

// Occurrence конкретное датированное вхождение активности или занятия
type Occurrence struct {
	Source       OccurrenceSource `json:"source"`
	SourceID     int64            `json:"source_id"`
	OwnerID      int64            `json:"owner_id"` // child_id для активности, tutor_id для занятия
	Title        string           `json:"title"`
	Date         time.Time        `json:"date"`
	OriginalDate time.Time        `json:"original_date"`
	StartTime    Clock            `json:"start_time"`
	EndTime      Clock            `json:"end_time"`
	Location     string           `json:"location"`
	Priority     Priority         `json:"priority"`
	Reminders    []Reminder       `json:"reminders"`
	Overridden   bool             `json:"overridden"`
}

// StartsAt момент начала вхождения в локации loc
func (o Occurrence) StartsAt(loc *time.Location) time.Time {
	y, m, d := o.Date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).Add(time.Duration(o.StartTime) * time.Minute)
}

// EndsAt момент окончания вхождения в локации loc
func (o Occurrence) EndsAt(loc *time.Location) time.Time {
	y, m, d := o.Date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).Add(time.Duration(o.EndTime) * time.Minute)
}
