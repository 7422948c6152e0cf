package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository/base"
)

// ActivityTypeRepository справочник типов активностей (заполняется миграцией)
type ActivityTypeRepository struct {
	db *base.Repository
}

func NewActivityTypeRepository(db *base.Repository) *ActivityTypeRepository {
	return &ActivityTypeRepository{db: db}
}

// List получает все типы активностей
func (r *ActivityTypeRepository) List(ctx context.Context) ([]*model.ActivityType, error) {
	query := `
		SELECT id, name, icon, color, default_duration, category, created_at
		FROM activity_types
		ORDER BY category, name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list activity types: %w", err)
	}
	defer rows.Close()

	var types []*model.ActivityType
	for rows.Next() {
		var t model.ActivityType
		if err := rows.Scan(&t.ID, &t.Name, &t.Icon, &t.Color, &t.DefaultDuration, &t.Category, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity type: %w", err)
		}
		types = append(types, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity types: %w", err)
	}

	return types, nil
}

// GetByID получает тип активности по ID
func (r *ActivityTypeRepository) GetByID(ctx context.Context, id int64) (*model.ActivityType, error) {
	query := `
		SELECT id, name, icon, color, default_duration, category, created_at
		FROM activity_types
		WHERE id = $1
	`

	var t model.ActivityType
	err := r.db.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.Icon, &t.Color, &t.DefaultDuration, &t.Category, &t.CreatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get activity type by id: %w", err)
	}

	return &t, nil
}
