package model

import (
	"time"

	"github.com/google/uuid"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type ReminderChannel string

const (
	ReminderChannelNotification ReminderChannel = "notification"
	ReminderChannelEmail        ReminderChannel = "email"
	ReminderChannelSMS          ReminderChannel = "sms"
)

// Reminder напоминание об активности. Принадлежит активности, отдельного жизненного цикла нет.
type Reminder struct {
	ID            uuid.UUID       `json:"id"`
	ActivityID    int64           `json:"activity_id"`
	Channel       ReminderChannel `json:"channel"`
	MinutesBefore int             `json:"minutes_before"`
	IsEnabled     bool            `json:"is_enabled"`
}

// ScheduleActivity активность в расписании ребёнка.
// Date - якорная дата: единственное вхождение для разовой активности
// или точка отсчёта для повторяющейся.
type ScheduleActivity struct {
	ID             int64              `json:"id"`
	ChildID        int64              `json:"child_id"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	ActivityTypeID *int64             `json:"activity_type_id"`
	Date           time.Time          `json:"date"`
	StartTime      Clock              `json:"start_time"`
	EndTime        Clock              `json:"end_time"`
	Location       string             `json:"location"`
	IsRecurring    bool               `json:"is_recurring"`
	Recurrence     *RecurrencePattern `json:"recurrence,omitempty"`
	Priority       Priority           `json:"priority"`
	IsCompleted    bool               `json:"is_completed"`
	Reminders      []Reminder         `json:"reminders"`
	Notes          string             `json:"notes"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`

	// Не из БД
	ActivityType *ActivityType `json:"activity_type,omitempty"`
}

// Duration длительность одного вхождения
func (a *ScheduleActivity) Duration() time.Duration {
	return time.Duration(a.EndTime-a.StartTime) * time.Minute
}

// OccurrenceOverride правка одного вхождения повторяющейся активности.
// Накладывается поверх развёрнутой серии по OriginalDate.
type OccurrenceOverride struct {
	ID           int64      `json:"id"`
	ActivityID   int64      `json:"activity_id"`
	OriginalDate time.Time  `json:"original_date"`
	IsCancelled  bool       `json:"is_cancelled"`
	Date         *time.Time `json:"date,omitempty"`
	StartTime    *Clock     `json:"start_time,omitempty"`
	EndTime      *Clock     `json:"end_time,omitempty"`
	Title        *string    `json:"title,omitempty"`
	Location     *string    `json:"location,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
