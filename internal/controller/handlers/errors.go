package handlers

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/tutor_scheduler/internal/controller/keyboard"
	"github.com/Freeeeeet/tutor_scheduler/internal/schedule"
	"github.com/Freeeeeet/tutor_scheduler/internal/service"
)

// ErrorMessage возвращает пользовательское сообщение для ошибки
func ErrorMessage(err error) string {
	msg, _ := describeError(err)
	return msg
}

// isUserError сообщает что ошибка вызвана вводом пользователя, а не сбоем
func isUserError(err error) bool {
	_, ok := describeError(err)
	return ok
}

// describeError сообщение для пользователя и признак того, что ошибка ожидаемая
func describeError(err error) (string, bool) {
	var (
		validation *schedule.ValidationError
		conflict   *schedule.ConflictError
		unbounded  *schedule.UnboundedExpansionError
	)

	switch {
	case errors.As(err, &validation):
		lines := make([]string, 0, len(validation.Fields))
		for _, f := range validation.Fields {
			lines = append(lines, fmt.Sprintf("• %s: %s", f.Field, html.EscapeString(f.Message)))
		}
		return "❌ Проверьте данные:\n" + strings.Join(lines, "\n"), true
	case errors.As(err, &conflict):
		return fmt.Sprintf("❌ Время %s пересекается с занятием %s",
			conflict.Proposed, conflict.Existing), true
	case errors.As(err, &unbounded):
		return fmt.Sprintf("❌ Слишком большой период: %d дн., максимум %d", unbounded.WindowDays, unbounded.MaxDays), true
	case errors.Is(err, schedule.ErrOutsideAvailability):
		return "❌ Репетитор не принимает в это время. Посмотрите его окна доступности.", true
	case errors.Is(err, service.ErrNotFound):
		return "❌ Не найдено", true
	case errors.Is(err, service.ErrNotOwner):
		return "❌ У вас нет доступа к этой записи", true
	case errors.Is(err, service.ErrNotTutor):
		return "❌ Пользователь не является репетитором", true
	case errors.Is(err, service.ErrInPast):
		return "❌ Это время уже прошло", true
	case errors.Is(err, service.ErrInvalidStatus):
		return "❌ Действие недоступно в текущем статусе", true
	case errors.Is(err, service.ErrNotOccurrence):
		return "❌ В эту дату события нет", true
	case errors.Is(err, service.ErrPublishingDisabled):
		return "ℹ️ Публикация в CalDAV не настроена", true
	case errors.Is(err, keyboard.ErrInvalidFormat), errors.Is(err, errBadArgs):
		return "❌ Неверный формат данных", true
	default:
		return "❌ Произошла ошибка. Попробуйте позже.", false
	}
}
