package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/lesson-seat-invitation/internal/model"
)

// StudentRepo provides data access to global_students, student_mappings
// and guardian_relationships. All write methods operate inside an
// existing transaction because they only ever run as part of the claim
// body; a lost claim race must leave none of these rows behind.
type StudentRepo struct {
	db *sql.DB
}

// NewStudentRepo returns a new StudentRepo bound to the given database.
func NewStudentRepo(db *sql.DB) *StudentRepo { return &StudentRepo{db: db} }

// FindGlobalByContactTx searches for a global student by email or
// phone, whichever is provided. Deduplication is system-wide, not
// per-resort. ErrStudentNotFound is returned when nothing matches.
func (r *StudentRepo) FindGlobalByContactTx(ctx context.Context, tx *sql.Tx, email, phone string) (*model.GlobalStudent, error) {
	if email == "" && phone == "" {
		return nil, ErrStudentNotFound
	}
	const q = `SELECT id, name, email, phone, birth_date, created_at
	           FROM global_students
	           WHERE (? <> '' AND email = ?) OR (? <> '' AND phone = ?)
	           LIMIT 1`
	var s model.GlobalStudent
	var birthDate sql.NullTime
	err := tx.QueryRowContext(ctx, q, email, email, phone, phone).Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &birthDate, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}
	if birthDate.Valid {
		t := birthDate.Time.UTC()
		s.BirthDate = &t
	}
	return &s, nil
}

// CreateGlobalTx inserts a new global student inside an existing
// transaction and populates the generated ID.
func (r *StudentRepo) CreateGlobalTx(ctx context.Context, tx *sql.Tx, s *model.GlobalStudent) error {
	const q = `INSERT INTO global_students (name, email, phone, birth_date) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, s.Name, s.Email, s.Phone, nullTime(s.BirthDate))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// CreateMappingTx inserts a resort-scoped student mapping inside an
// existing transaction. The UUID primary key is supplied by the caller.
func (r *StudentRepo) CreateMappingTx(ctx context.Context, tx *sql.Tx, m *model.StudentMapping) error {
	const q = `INSERT INTO student_mappings (id, global_student_id, resort_id) VALUES (?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, m.ID, m.GlobalStudentID, m.ResortID)
	return err
}

// HasGuardianTx reports whether a guardian relationship already exists
// for the given (guardian email, student) pair.
func (r *StudentRepo) HasGuardianTx(ctx context.Context, tx *sql.Tx, guardianEmail string, studentID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM guardian_relationships WHERE guardian_email = ? AND global_student_id = ?)`
	var exists bool
	if err := tx.QueryRowContext(ctx, q, guardianEmail, studentID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CreateGuardianTx inserts a guardian relationship inside an existing
// transaction. A duplicate-entry error on the (guardian email, student)
// unique index is swallowed: a concurrent writer creating the identical
// pair satisfies the at-most-once requirement just as well.
func (r *StudentRepo) CreateGuardianTx(ctx context.Context, tx *sql.Tx, g *model.GuardianRelationship) error {
	const q = `INSERT INTO guardian_relationships (guardian_email, global_student_id, relationship) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, g.GuardianEmail, g.GlobalStudentID, g.Relationship)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return nil
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	g.CreatedAt = time.Now().UTC()
	return nil
}
