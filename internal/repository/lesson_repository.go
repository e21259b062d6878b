package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/lesson-seat-invitation/internal/model"
)

// LessonRepo provides read access to the lessons table. Lesson CRUD is
// owned by the management application; the claim flow only needs to
// resolve the resort a seat's lesson belongs to.
type LessonRepo struct {
	db *sql.DB
}

// NewLessonRepo returns a new LessonRepo bound to the given database.
func NewLessonRepo(db *sql.DB) *LessonRepo { return &LessonRepo{db: db} }

const lessonColumns = `id, resort_id, title, starts_at, created_at`

func scanLesson(row *sql.Row) (*model.Lesson, error) {
	var l model.Lesson
	var startsAt sql.NullTime
	if err := row.Scan(&l.ID, &l.ResortID, &l.Title, &startsAt, &l.CreatedAt); err != nil {
		return nil, err
	}
	if startsAt.Valid {
		t := startsAt.Time.UTC()
		l.StartsAt = &t
	}
	return &l, nil
}

// GetByID returns a lesson by its primary key.
func (r *LessonRepo) GetByID(ctx context.Context, id uint64) (*model.Lesson, error) {
	const q = `SELECT ` + lessonColumns + ` FROM lessons WHERE id = ?`
	l, err := scanLesson(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLessonNotFound
	}
	return l, err
}

// GetByIDTx is GetByID within an existing transaction.
func (r *LessonRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Lesson, error) {
	const q = `SELECT ` + lessonColumns + ` FROM lessons WHERE id = ?`
	l, err := scanLesson(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLessonNotFound
	}
	return l, err
}
