package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository/base"
)

type ChildRepository struct {
	db *base.Repository
}

func NewChildRepository(db *base.Repository) *ChildRepository {
	return &ChildRepository{db: db}
}

// Create добавляет ребёнка родителю
func (r *ChildRepository) Create(ctx context.Context, child *model.Child) error {
	query := `
		INSERT INTO children (parent_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	if err := r.db.QueryRow(ctx, query, child.ParentID, child.Name).Scan(&child.ID, &child.CreatedAt); err != nil {
		return fmt.Errorf("create child: %w", err)
	}

	return nil
}

// GetByID получает ребёнка по ID
func (r *ChildRepository) GetByID(ctx context.Context, id int64) (*model.Child, error) {
	query := `SELECT id, parent_id, name, created_at FROM children WHERE id = $1`

	var child model.Child
	err := r.db.QueryRow(ctx, query, id).Scan(&child.ID, &child.ParentID, &child.Name, &child.CreatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get child by id: %w", err)
	}

	return &child, nil
}

// ListByParent получает детей родителя
func (r *ChildRepository) ListByParent(ctx context.Context, parentID int64) ([]*model.Child, error) {
	query := `
		SELECT id, parent_id, name, created_at
		FROM children
		WHERE parent_id = $1
		ORDER BY name, id
	`

	rows, err := r.db.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var children []*model.Child
	for rows.Next() {
		var child model.Child
		if err := rows.Scan(&child.ID, &child.ParentID, &child.Name, &child.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		children = append(children, &child)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate children: %w", err)
	}

	return children, nil
}

// ParentTelegramIDs возвращает Telegram ID родителя для каждого ребёнка
func (r *ChildRepository) ParentTelegramIDs(ctx context.Context, childIDs []int64) (map[int64]int64, error) {
	result := make(map[int64]int64, len(childIDs))
	if len(childIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT c.id, u.telegram_id
		FROM children c
		JOIN users u ON u.id = c.parent_id
		WHERE c.id = ANY($1)
	`

	rows, err := r.db.Query(ctx, query, childIDs)
	if err != nil {
		return nil, fmt.Errorf("get parent telegram ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var childID, telegramID int64
		if err := rows.Scan(&childID, &telegramID); err != nil {
			return nil, fmt.Errorf("scan parent telegram id: %w", err)
		}
		result[childID] = telegramID
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parent telegram ids: %w", err)
	}

	return result, nil
}

// Delete удаляет ребёнка вместе с его расписанием
func (r *ChildRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.db.ExecAffected(ctx, `DELETE FROM children WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete child: %w", err)
	}
	if affected == 0 {
		return base.NotFound("child", id)
	}
	return nil
}
