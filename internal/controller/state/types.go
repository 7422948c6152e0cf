package state

// UserState представляет текущее состояние пользователя в диалоге
type UserState string

const (
	StateNone UserState = "" // Нет активного состояния

	// Диалог создания активности: ребёнок -> название -> дата -> время -> повторение -> напоминание
	StateNewActivityChild      UserState = "new_activity_child"
	StateNewActivityTitle      UserState = "new_activity_title"
	StateNewActivityDate       UserState = "new_activity_date"
	StateNewActivityTime       UserState = "new_activity_time"
	StateNewActivityRecurrence UserState = "new_activity_recurrence"
	StateNewActivityReminder   UserState = "new_activity_reminder"

	// Ввод имени ребёнка после /addchild без аргумента
	StateAddChildName UserState = "add_child_name"
)

// Ключи временных данных диалога
const (
	KeyChildID    = "child_id"
	KeyTitle      = "title"
	KeyDate       = "date"
	KeyStartTime  = "start_time"
	KeyEndTime    = "end_time"
	KeyRecurrence = "recurrence"
)

// UserData хранит временные данные пользователя во время диалога
type UserData struct {
	State UserState
	Data  map[string]any // Временные данные для текущего диалога
}
