package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/repository/base"
	"github.com/google/uuid"
)

// ReminderDeliveryRepository журнал отправленных напоминаний
type ReminderDeliveryRepository struct {
	db *base.Repository
}

func NewReminderDeliveryRepository(db *base.Repository) *ReminderDeliveryRepository {
	return &ReminderDeliveryRepository{db: db}
}

// MarkDelivered отмечает напоминание для вхождения отправленным.
// Возвращает false если оно уже было отмечено раньше.
func (r *ReminderDeliveryRepository) MarkDelivered(ctx context.Context, reminderID uuid.UUID, occurrenceDate time.Time) (bool, error) {
	query := `
		INSERT INTO reminder_deliveries (reminder_id, occurrence_date)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	affected, err := r.db.ExecAffected(ctx, query, reminderID, occurrenceDate)
	if err != nil {
		return false, fmt.Errorf("mark reminder delivered: %w", err)
	}

	return affected == 1, nil
}

// Unmark снимает отметку, если доставка не удалась
func (r *ReminderDeliveryRepository) Unmark(ctx context.Context, reminderID uuid.UUID, occurrenceDate time.Time) error {
	query := `DELETE FROM reminder_deliveries WHERE reminder_id = $1 AND occurrence_date = $2`

	if _, err := r.db.ExecAffected(ctx, query, reminderID, occurrenceDate); err != nil {
		return fmt.Errorf("unmark reminder delivery: %w", err)
	}

	return nil
}
