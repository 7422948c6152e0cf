package formatting

import "github.com/Freeeeeet/tutor_scheduler/internal/model"

// StatusDisplay представляет отображение статуса
type StatusDisplay struct {
	Emoji string
	Text  string
}

// GetLessonStatusDisplay возвращает emoji и текст для статуса занятия
func GetLessonStatusDisplay(status model.LessonStatus) StatusDisplay {
	displays := map[model.LessonStatus]StatusDisplay{
		model.LessonStatusScheduled: {"🕒", "Запланировано"},
		model.LessonStatusConfirmed: {"✅", "Подтверждено"},
		model.LessonStatusCompleted: {"✔️", "Проведено"},
		model.LessonStatusCancelled: {"❌", "Отменено"},
		model.LessonStatusNoShow:    {"🚫", "Неявка"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Неизвестно"}
}

// GetPriorityEmoji возвращает emoji приоритета активности
func GetPriorityEmoji(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "🔴"
	case model.PriorityLow:
		return "🟢"
	default:
		return "🟡"
	}
}
