package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository/base"
)

// AvailabilityRepository еженедельные окна доступности репетиторов
type AvailabilityRepository struct {
	db *base.Repository
}

func NewAvailabilityRepository(db *base.Repository) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// Create создаёт окно доступности
func (r *AvailabilityRepository) Create(ctx context.Context, slot *model.ScheduleSlot) error {
	query := `
		INSERT INTO availability_slots (tutor_id, weekday, start_minute, end_minute, is_available)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		slot.TutorID,
		int16(slot.Weekday),
		slot.StartTime,
		slot.EndTime,
		slot.IsAvailable,
	).Scan(&slot.ID, &slot.CreatedAt)

	if err != nil {
		return fmt.Errorf("create availability slot: %w", err)
	}

	return nil
}

// GetByID получает окно по ID
func (r *AvailabilityRepository) GetByID(ctx context.Context, id int64) (*model.ScheduleSlot, error) {
	query := `
		SELECT id, tutor_id, weekday, start_minute, end_minute, is_available, created_at
		FROM availability_slots
		WHERE id = $1
	`

	var (
		slot    model.ScheduleSlot
		weekday int16
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&slot.ID,
		&slot.TutorID,
		&weekday,
		&slot.StartTime,
		&slot.EndTime,
		&slot.IsAvailable,
		&slot.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get availability slot by id: %w", err)
	}
	slot.Weekday = time.Weekday(weekday)

	return &slot, nil
}

// ListByTutor получает все окна репетитора
func (r *AvailabilityRepository) ListByTutor(ctx context.Context, tutorID int64) ([]model.ScheduleSlot, error) {
	query := `
		SELECT id, tutor_id, weekday, start_minute, end_minute, is_available, created_at
		FROM availability_slots
		WHERE tutor_id = $1
		ORDER BY (weekday + 6) % 7, start_minute
	`

	rows, err := r.db.Query(ctx, query, tutorID)
	if err != nil {
		return nil, fmt.Errorf("list availability slots: %w", err)
	}
	defer rows.Close()

	var slots []model.ScheduleSlot
	for rows.Next() {
		var (
			slot    model.ScheduleSlot
			weekday int16
		)
		err := rows.Scan(
			&slot.ID,
			&slot.TutorID,
			&weekday,
			&slot.StartTime,
			&slot.EndTime,
			&slot.IsAvailable,
			&slot.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan availability slot: %w", err)
		}
		slot.Weekday = time.Weekday(weekday)
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate availability slots: %w", err)
	}

	return slots, nil
}

// SetAvailable включает или выключает окно
func (r *AvailabilityRepository) SetAvailable(ctx context.Context, id int64, available bool) error {
	affected, err := r.db.ExecAffected(ctx, `UPDATE availability_slots SET is_available = $1 WHERE id = $2`, available, id)
	if err != nil {
		return fmt.Errorf("set slot availability: %w", err)
	}
	if affected == 0 {
		return base.NotFound("slot", id)
	}
	return nil
}

// Delete удаляет окно доступности
func (r *AvailabilityRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.db.ExecAffected(ctx, `DELETE FROM availability_slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete availability slot: %w", err)
	}
	if affected == 0 {
		return base.NotFound("slot", id)
	}
	return nil
}
