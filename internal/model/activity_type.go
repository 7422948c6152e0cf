package model

import "time"

type ActivityCategory string

const (
	CategoryAcademic        ActivityCategory = "academic"
	CategoryExtracurricular ActivityCategory = "extracurricular"
	CategoryPersonal        ActivityCategory = "personal"
	CategoryHealth          ActivityCategory = "health"
	CategorySocial          ActivityCategory = "social"
)

// ActivityType справочник типов активностей ("Урок", "Учёба", "Игра" ...)
type ActivityType struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	Icon            string           `json:"icon"`
	Color           string           `json:"color"`            // "#RRGGBB"
	DefaultDuration int              `json:"default_duration"` // в минутах
	Category        ActivityCategory `json:"category"`
	CreatedAt       time.Time        `json:"created_at"`
}
