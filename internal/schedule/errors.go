package schedule

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError ошибка конкретного поля входных данных
type FieldError struct {
	Field   string
	Message string
}

// ValidationError некорректное правило повторения или временной интервал.
// Возвращается до начала любой работы и никогда не исправляется молча.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add добавляет ошибку поля
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil возвращает nil если ошибок полей нет
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NewValidationError создаёт ошибку валидации с одним полем
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// IsValidation проверяет является ли ошибка ошибкой валидации
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UnboundedExpansionError правило без EndDate и MaxOccurrences запрошено на окне больше допустимого
type UnboundedExpansionError struct {
	WindowDays int
	MaxDays    int
}

func (e *UnboundedExpansionError) Error() string {
	return fmt.Sprintf("unbounded recurrence requested over %d days, cap is %d", e.WindowDays, e.MaxDays)
}

// ErrOutsideAvailability предложенный интервал не помещается ни в одно окно доступности
var ErrOutsideAvailability = errors.New("proposed time is outside declared availability")

// ConflictError предложенный интервал пересекается с существующим
type ConflictError struct {
	Proposed TimeRange
	Existing TimeRange
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("time %s conflicts with existing %s", e.Proposed, e.Existing)
}
