package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const lessonColumns = `
	l.id, l.tutor_id, l.student_id, l.starts_at, l.duration_minutes, l.location, l.meeting_link, l.status,
	l.frequency, l.repeat_interval, l.weekdays, l.end_date, l.max_occurrences, l.notes, l.created_at, l.updated_at,
	c.name, u.first_name, u.last_name`

const lessonFrom = `
	FROM lessons l
	JOIN children c ON c.id = l.student_id
	JOIN users u ON u.id = l.tutor_id`

// lessonLockNamespace пространство advisory-блокировок бронирования
const lessonLockNamespace = 1

// LessonRepository занятия репетиторов
type LessonRepository struct {
	db *base.Repository
}

func NewLessonRepository(db *base.Repository) *LessonRepository {
	return &LessonRepository{db: db}
}

// WithTutorLock выполняет fn в транзакции под блокировкой расписания репетитора.
// Проверка конфликтов и вставка внутри fn не пересекаются с другими бронированиями этого репетитора.
func (r *LessonRepository) WithTutorLock(ctx context.Context, tutorID int64, fn func(ctx context.Context) error) error {
	return r.db.WithinTx(ctx, func(ctx context.Context) error {
		if err := r.db.LockKey(ctx, lessonLockNamespace, int32(tutorID)); err != nil {
			return err
		}
		return fn(ctx)
	})
}

// Create создаёт занятие
func (r *LessonRepository) Create(ctx context.Context, l *model.Lesson) error {
	rc := recurrenceToColumns(l.Recurrence)
	query := `
		INSERT INTO lessons (
			tutor_id, student_id, starts_at, duration_minutes, location, meeting_link, status,
			frequency, repeat_interval, weekdays, end_date, max_occurrences, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		l.TutorID,
		l.StudentID,
		l.StartsAt,
		l.DurationMinutes,
		l.Location,
		l.MeetingLink,
		l.Status,
		rc.Frequency,
		rc.Interval,
		rc.Weekdays,
		rc.EndDate,
		rc.MaxOccurrences,
		l.Notes,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}

	return nil
}

// GetByID получает занятие по ID
func (r *LessonRepository) GetByID(ctx context.Context, id int64) (*model.Lesson, error) {
	query := `SELECT ` + lessonColumns + lessonFrom + ` WHERE l.id = $1`

	l, err := scanLesson(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lesson by id: %w", err)
	}

	return l, nil
}

// ListByTutorInWindow получает занятия репетитора, занимающие время в [from, to).
// Повторяющиеся занятия возвращаются если серия началась до конца окна.
// Нижняя граница сдвинута на сутки: дата занятия считается в часовом поясе расписания.
func (r *LessonRepository) ListByTutorInWindow(ctx context.Context, tutorID int64, from, to time.Time) ([]*model.Lesson, error) {
	query := `SELECT ` + lessonColumns + lessonFrom + `
		WHERE l.tutor_id = $1
		  AND l.status <> 'cancelled'
		  AND l.starts_at < $3
		  AND (l.starts_at >= $2 OR (l.frequency IS NOT NULL AND (l.end_date IS NULL OR l.end_date >= $4)))
		ORDER BY l.starts_at, l.id
	`

	return r.list(ctx, "list tutor lessons", query, tutorID, from.Add(-24*time.Hour), to, from)
}

// ListByStudentsInWindow получает занятия учеников в [from, to)
func (r *LessonRepository) ListByStudentsInWindow(ctx context.Context, studentIDs []int64, from, to time.Time) ([]*model.Lesson, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + lessonColumns + lessonFrom + `
		WHERE l.student_id = ANY($1)
		  AND l.status <> 'cancelled'
		  AND l.starts_at < $3
		  AND (l.starts_at >= $2 OR (l.frequency IS NOT NULL AND (l.end_date IS NULL OR l.end_date >= $4)))
		ORDER BY l.starts_at, l.id
	`

	return r.list(ctx, "list student lessons", query, studentIDs, from.Add(-24*time.Hour), to, from)
}

// ListUpcomingByTutor получает ближайшие занятия репетитора в любом статусе
func (r *LessonRepository) ListUpcomingByTutor(ctx context.Context, tutorID int64, from time.Time, limit int) ([]*model.Lesson, error) {
	query := `SELECT ` + lessonColumns + lessonFrom + `
		WHERE l.tutor_id = $1 AND (l.starts_at >= $2 OR l.frequency IS NOT NULL)
		ORDER BY l.starts_at, l.id
		LIMIT $3
	`

	return r.list(ctx, "list upcoming tutor lessons", query, tutorID, from, limit)
}

// ListUpcomingByStudents получает ближайшие занятия учеников в любом статусе
func (r *LessonRepository) ListUpcomingByStudents(ctx context.Context, studentIDs []int64, from time.Time, limit int) ([]*model.Lesson, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + lessonColumns + lessonFrom + `
		WHERE l.student_id = ANY($1) AND (l.starts_at >= $2 OR l.frequency IS NOT NULL)
		ORDER BY l.starts_at, l.id
		LIMIT $3
	`

	return r.list(ctx, "list upcoming student lessons", query, studentIDs, from, limit)
}

// ListActiveTutorIDs репетиторы, у которых есть неотменённые занятия
func (r *LessonRepository) ListActiveTutorIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT tutor_id FROM lessons WHERE status <> 'cancelled' ORDER BY tutor_id`)
	if err != nil {
		return nil, fmt.Errorf("list active tutors: %w", err)
	}
	defer rows.Close()

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("collect active tutors: %w", err)
	}

	return ids, nil
}

// UpdateStatus обновляет статус занятия
func (r *LessonRepository) UpdateStatus(ctx context.Context, id int64, status model.LessonStatus) error {
	query := `UPDATE lessons SET status = $1, updated_at = NOW() WHERE id = $2`

	affected, err := r.db.ExecAffected(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update lesson status: %w", err)
	}

	if affected == 0 {
		return base.NotFound("lesson", id)
	}

	return nil
}

func (r *LessonRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Lesson, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var lessons []*model.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lessons: %w", err)
	}

	return lessons, nil
}

func scanLesson(row pgx.Row) (*model.Lesson, error) {
	var (
		l       model.Lesson
		rc      recurrenceColumns
		student model.Child
		tutor   model.User
	)
	err := row.Scan(
		&l.ID,
		&l.TutorID,
		&l.StudentID,
		&l.StartsAt,
		&l.DurationMinutes,
		&l.Location,
		&l.MeetingLink,
		&l.Status,
		&rc.Frequency,
		&rc.Interval,
		&rc.Weekdays,
		&rc.EndDate,
		&rc.MaxOccurrences,
		&l.Notes,
		&l.CreatedAt,
		&l.UpdatedAt,
		&student.Name,
		&tutor.FirstName,
		&tutor.LastName,
	)
	if err != nil {
		return nil, err
	}

	if l.Recurrence, err = rc.pattern(); err != nil {
		return nil, err
	}

	student.ID = l.StudentID
	tutor.ID = l.TutorID
	l.Student = &student
	l.Tutor = &tutor

	return &l, nil
}
