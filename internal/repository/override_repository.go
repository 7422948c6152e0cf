package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository/base"
)

// OverrideRepository правки отдельных вхождений повторяющихся активностей
type OverrideRepository struct {
	db *base.Repository
}

func NewOverrideRepository(db *base.Repository) *OverrideRepository {
	return &OverrideRepository{db: db}
}

// Upsert создаёт или заменяет правку вхождения (одна правка на исходную дату)
func (r *OverrideRepository) Upsert(ctx context.Context, ov *model.OccurrenceOverride) error {
	query := `
		INSERT INTO occurrence_overrides (activity_id, original_date, is_cancelled, date, start_minute, end_minute, title, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (activity_id, original_date) DO UPDATE
		SET is_cancelled = EXCLUDED.is_cancelled,
		    date = EXCLUDED.date,
		    start_minute = EXCLUDED.start_minute,
		    end_minute = EXCLUDED.end_minute,
		    title = EXCLUDED.title,
		    location = EXCLUDED.location
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		ov.ActivityID,
		ov.OriginalDate,
		ov.IsCancelled,
		ov.Date,
		ov.StartTime,
		ov.EndTime,
		ov.Title,
		ov.Location,
	).Scan(&ov.ID, &ov.CreatedAt)

	if err != nil {
		return fmt.Errorf("upsert occurrence override: %w", err)
	}

	return nil
}

// ListByActivities получает правки для списка активностей
func (r *OverrideRepository) ListByActivities(ctx context.Context, activityIDs []int64) ([]model.OccurrenceOverride, error) {
	if len(activityIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, activity_id, original_date, is_cancelled, date, start_minute, end_minute, title, location, created_at
		FROM occurrence_overrides
		WHERE activity_id = ANY($1)
		ORDER BY activity_id, original_date
	`

	rows, err := r.db.Query(ctx, query, activityIDs)
	if err != nil {
		return nil, fmt.Errorf("list occurrence overrides: %w", err)
	}
	defer rows.Close()

	var overrides []model.OccurrenceOverride
	for rows.Next() {
		var ov model.OccurrenceOverride
		err := rows.Scan(
			&ov.ID,
			&ov.ActivityID,
			&ov.OriginalDate,
			&ov.IsCancelled,
			&ov.Date,
			&ov.StartTime,
			&ov.EndTime,
			&ov.Title,
			&ov.Location,
			&ov.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan occurrence override: %w", err)
		}
		overrides = append(overrides, ov)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate occurrence overrides: %w", err)
	}

	return overrides, nil
}
