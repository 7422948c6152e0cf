package model

import "time"

type LessonStatus string

const (
	LessonStatusScheduled LessonStatus = "scheduled"
	LessonStatusConfirmed LessonStatus = "confirmed"
	LessonStatusCompleted LessonStatus = "completed"
	LessonStatusCancelled LessonStatus = "cancelled"
	LessonStatusNoShow    LessonStatus = "no_show"
)

// Lesson занятие репетитора с учеником. Занятый интервал времени репетитора.
type Lesson struct {
	ID              int64              `json:"id"`
	TutorID         int64              `json:"tutor_id"`
	StudentID       int64              `json:"student_id"` // children.id
	StartsAt        time.Time          `json:"starts_at"`
	DurationMinutes int                `json:"duration_minutes"`
	Location        string             `json:"location"`
	MeetingLink     string             `json:"meeting_link"`
	Status          LessonStatus       `json:"status"`
	Recurrence      *RecurrencePattern `json:"recurrence,omitempty"`
	Notes           string             `json:"notes"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`

	// Дополнительные поля для удобства (не из БД)
	Tutor   *User  `json:"tutor,omitempty"`
	Student *Child `json:"student,omitempty"`
}

// EndsAt время окончания занятия
func (l *Lesson) EndsAt() time.Time {
	return l.StartsAt.Add(time.Duration(l.DurationMinutes) * time.Minute)
}

// Occupies сообщает занимает ли занятие время репетитора
func (l *Lesson) Occupies() bool {
	return l.Status != LessonStatusCancelled
}
