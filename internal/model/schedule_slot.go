package model

import "time"

// ScheduleSlot заявленное репетитором еженедельное окно доступности
type ScheduleSlot struct {
	ID          int64        `json:"id"`
	TutorID     int64        `json:"tutor_id"`
	Weekday     time.Weekday `json:"weekday"` // 0 = Sunday, 6 = Saturday
	StartTime   Clock        `json:"start_time"`
	EndTime     Clock        `json:"end_time"`
	IsAvailable bool         `json:"is_available"`
	CreatedAt   time.Time    `json:"created_at"`
}
