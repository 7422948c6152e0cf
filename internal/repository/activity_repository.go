package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const activityColumns = `
	id, child_id, title, description, activity_type_id, date, start_minute, end_minute, location,
	is_recurring, frequency, repeat_interval, weekdays, end_date, max_occurrences,
	priority, is_completed, notes, created_at, updated_at`

// ActivityRepository хранит активности расписания вместе с правилом повторения и напоминаниями
type ActivityRepository struct {
	db *base.Repository
}

func NewActivityRepository(db *base.Repository) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create создаёт активность и её напоминания
func (r *ActivityRepository) Create(ctx context.Context, a *model.ScheduleActivity) error {
	return r.db.WithinTx(ctx, func(ctx context.Context) error {
		rc := recurrenceToColumns(a.Recurrence)
		query := `
			INSERT INTO schedule_activities (
				child_id, title, description, activity_type_id, date, start_minute, end_minute, location,
				is_recurring, frequency, repeat_interval, weekdays, end_date, max_occurrences,
				priority, is_completed, notes
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			RETURNING id, created_at, updated_at
		`

		err := r.db.QueryRow(
			ctx, query,
			a.ChildID,
			a.Title,
			a.Description,
			a.ActivityTypeID,
			a.Date,
			a.StartTime,
			a.EndTime,
			a.Location,
			a.IsRecurring,
			rc.Frequency,
			rc.Interval,
			rc.Weekdays,
			rc.EndDate,
			rc.MaxOccurrences,
			a.Priority,
			a.IsCompleted,
			a.Notes,
		).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create activity: %w", err)
		}

		return r.replaceReminders(ctx, a)
	})
}

// GetByID получает активность с напоминаниями
func (r *ActivityRepository) GetByID(ctx context.Context, id int64) (*model.ScheduleActivity, error) {
	query := `SELECT ` + activityColumns + ` FROM schedule_activities WHERE id = $1`

	a, err := scanActivity(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get activity by id: %w", err)
	}

	if err := r.attachReminders(ctx, []*model.ScheduleActivity{a}); err != nil {
		return nil, err
	}

	return a, nil
}

// ListByChildrenInWindow получает активности детей, у которых могут быть вхождения в окне [from, to].
// Повторяющиеся отбираются по якорю и дате окончания, плюс перенесённые в окно правками.
func (r *ActivityRepository) ListByChildrenInWindow(ctx context.Context, childIDs []int64, from, to time.Time) ([]*model.ScheduleActivity, error) {
	if len(childIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + activityColumns + `
		FROM schedule_activities
		WHERE child_id = ANY($1)
		  AND (
			(NOT is_recurring AND date BETWEEN $2 AND $3)
			OR (is_recurring AND date <= $3 AND (end_date IS NULL OR end_date >= $2))
			OR id IN (SELECT activity_id FROM occurrence_overrides WHERE date BETWEEN $2 AND $3)
		  )
		ORDER BY date, start_minute, id
	`

	return r.list(ctx, "list activities in window", query, childIDs, from, to)
}

// ListInWindow получает активности всех детей, у которых могут быть вхождения в окне
func (r *ActivityRepository) ListInWindow(ctx context.Context, from, to time.Time) ([]*model.ScheduleActivity, error) {
	query := `SELECT ` + activityColumns + `
		FROM schedule_activities
		WHERE (NOT is_recurring AND date BETWEEN $1 AND $2)
		   OR (is_recurring AND date <= $2 AND (end_date IS NULL OR end_date >= $1))
		   OR id IN (SELECT activity_id FROM occurrence_overrides WHERE date BETWEEN $1 AND $2)
		ORDER BY date, start_minute, id
	`

	return r.list(ctx, "list all activities in window", query, from, to)
}

// ListByChild получает все активности ребёнка
func (r *ActivityRepository) ListByChild(ctx context.Context, childID int64) ([]*model.ScheduleActivity, error) {
	query := `SELECT ` + activityColumns + `
		FROM schedule_activities
		WHERE child_id = $1
		ORDER BY is_recurring DESC, date, start_minute, id
	`

	return r.list(ctx, "list activities by child", query, childID)
}

// Update обновляет поля серии и заменяет напоминания
func (r *ActivityRepository) Update(ctx context.Context, a *model.ScheduleActivity) error {
	return r.db.WithinTx(ctx, func(ctx context.Context) error {
		rc := recurrenceToColumns(a.Recurrence)
		query := `
			UPDATE schedule_activities
			SET title = $1, description = $2, activity_type_id = $3, date = $4, start_minute = $5, end_minute = $6,
			    location = $7, is_recurring = $8, frequency = $9, repeat_interval = $10, weekdays = $11,
			    end_date = $12, max_occurrences = $13, priority = $14, is_completed = $15, notes = $16,
			    updated_at = NOW()
			WHERE id = $17
			RETURNING updated_at
		`

		err := r.db.QueryRow(
			ctx, query,
			a.Title,
			a.Description,
			a.ActivityTypeID,
			a.Date,
			a.StartTime,
			a.EndTime,
			a.Location,
			a.IsRecurring,
			rc.Frequency,
			rc.Interval,
			rc.Weekdays,
			rc.EndDate,
			rc.MaxOccurrences,
			a.Priority,
			a.IsCompleted,
			a.Notes,
			a.ID,
		).Scan(&a.UpdatedAt)
		if err != nil {
			if base.IsNotFound(err) {
				return base.NotFound("activity", a.ID)
			}
			return fmt.Errorf("update activity: %w", err)
		}

		return r.replaceReminders(ctx, a)
	})
}

// SetCompleted отмечает активность выполненной
func (r *ActivityRepository) SetCompleted(ctx context.Context, id int64, completed bool) error {
	affected, err := r.db.ExecAffected(ctx,
		`UPDATE schedule_activities SET is_completed = $1, updated_at = NOW() WHERE id = $2`, completed, id)
	if err != nil {
		return fmt.Errorf("set activity completed: %w", err)
	}
	if affected == 0 {
		return base.NotFound("activity", id)
	}
	return nil
}

// Delete удаляет активность, её напоминания и правки
func (r *ActivityRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.db.ExecAffected(ctx, `DELETE FROM schedule_activities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	if affected == 0 {
		return base.NotFound("activity", id)
	}
	return nil
}

func (r *ActivityRepository) list(ctx context.Context, op string, query string, args ...any) ([]*model.ScheduleActivity, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var activities []*model.ScheduleActivity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}

	if err := r.attachReminders(ctx, activities); err != nil {
		return nil, err
	}

	return activities, nil
}

// replaceReminders приводит напоминания активности к a.Reminders.
// Существующие строки обновляются на месте, чтобы сохранить отметки о доставке.
func (r *ActivityRepository) replaceReminders(ctx context.Context, a *model.ScheduleActivity) error {
	keep := make([]string, 0, len(a.Reminders))
	for _, rem := range a.Reminders {
		keep = append(keep, rem.ID.String())
	}

	_, err := r.db.ExecAffected(ctx,
		`DELETE FROM reminders WHERE activity_id = $1 AND NOT (id::text = ANY($2::text[]))`, a.ID, keep)
	if err != nil {
		return fmt.Errorf("delete stale reminders: %w", err)
	}

	if len(a.Reminders) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range a.Reminders {
		a.Reminders[i].ActivityID = a.ID
		rem := a.Reminders[i]
		batch.Queue(`
			INSERT INTO reminders (id, activity_id, channel, minutes_before, is_enabled, position)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				channel = EXCLUDED.channel,
				minutes_before = EXCLUDED.minutes_before,
				is_enabled = EXCLUDED.is_enabled,
				position = EXCLUDED.position
			WHERE reminders.activity_id = EXCLUDED.activity_id
		`, rem.ID, rem.ActivityID, rem.Channel, rem.MinutesBefore, rem.IsEnabled, i)
	}

	tx, ok := r.db.Conn(ctx).(pgx.Tx)
	if !ok {
		return fmt.Errorf("upsert reminders: transaction required")
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert reminders: %w", err)
	}

	return nil
}

func (r *ActivityRepository) attachReminders(ctx context.Context, activities []*model.ScheduleActivity) error {
	if len(activities) == 0 {
		return nil
	}

	byID := make(map[int64]*model.ScheduleActivity, len(activities))
	ids := make([]int64, 0, len(activities))
	for _, a := range activities {
		byID[a.ID] = a
		ids = append(ids, a.ID)
	}

	query := `
		SELECT id, activity_id, channel, minutes_before, is_enabled
		FROM reminders
		WHERE activity_id = ANY($1)
		ORDER BY activity_id, position
	`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("get reminders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rem model.Reminder
		if err := rows.Scan(&rem.ID, &rem.ActivityID, &rem.Channel, &rem.MinutesBefore, &rem.IsEnabled); err != nil {
			return fmt.Errorf("scan reminder: %w", err)
		}
		a := byID[rem.ActivityID]
		a.Reminders = append(a.Reminders, rem)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate reminders: %w", err)
	}

	return nil
}

func scanActivity(row pgx.Row) (*model.ScheduleActivity, error) {
	var (
		a  model.ScheduleActivity
		rc recurrenceColumns
	)
	err := row.Scan(
		&a.ID,
		&a.ChildID,
		&a.Title,
		&a.Description,
		&a.ActivityTypeID,
		&a.Date,
		&a.StartTime,
		&a.EndTime,
		&a.Location,
		&a.IsRecurring,
		&rc.Frequency,
		&rc.Interval,
		&rc.Weekdays,
		&rc.EndDate,
		&rc.MaxOccurrences,
		&a.Priority,
		&a.IsCompleted,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if a.Recurrence, err = rc.pattern(); err != nil {
		return nil, err
	}

	return &a, nil
}
