package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/lesson-seat-invitation/internal/model"
)

// IdentityFormRepo provides data access to the identity_forms table.
// Forms are keyed 1:1 by seat. Create and Update are deliberately
// separate operations instead of an upsert statement so the race
// behavior stays visible: Update refuses to touch a confirmed form at
// the SQL level, regardless of what the caller read beforehand.
type IdentityFormRepo struct {
	db *sql.DB
}

// NewIdentityFormRepo returns a new IdentityFormRepo bound to the given database.
func NewIdentityFormRepo(db *sql.DB) *IdentityFormRepo { return &IdentityFormRepo{db: db} }

const formColumns = `seat_id, status, student_name, contact_email, contact_phone, birth_date,
	is_minor, has_insurance, wants_insurance, note, guardian_email, guardian_relation,
	submitted_at, confirmed_at`

func scanForm(row *sql.Row) (*model.IdentityForm, error) {
	var f model.IdentityForm
	var birthDate, submittedAt, confirmedAt sql.NullTime
	err := row.Scan(&f.SeatID, &f.Status, &f.StudentName, &f.ContactEmail, &f.ContactPhone, &birthDate,
		&f.IsMinor, &f.HasInsurance, &f.WantsInsurance, &f.Note, &f.GuardianEmail, &f.GuardianRelation,
		&submittedAt, &confirmedAt)
	if err != nil {
		return nil, err
	}
	if birthDate.Valid {
		t := birthDate.Time.UTC()
		f.BirthDate = &t
	}
	if submittedAt.Valid {
		t := submittedAt.Time.UTC()
		f.SubmittedAt = &t
	}
	if confirmedAt.Valid {
		t := confirmedAt.Time.UTC()
		f.ConfirmedAt = &t
	}
	return &f, nil
}

// GetBySeat returns the identity form for a seat. ErrFormNotFound is
// returned when the claimant has not filed anything yet.
func (r *IdentityFormRepo) GetBySeat(ctx context.Context, seatID uint64) (*model.IdentityForm, error) {
	const q = `SELECT ` + formColumns + ` FROM identity_forms WHERE seat_id = ?`
	f, err := scanForm(r.db.QueryRowContext(ctx, q, seatID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFormNotFound
	}
	return f, err
}

// GetBySeatTx is GetBySeat within an existing transaction.
func (r *IdentityFormRepo) GetBySeatTx(ctx context.Context, tx *sql.Tx, seatID uint64) (*model.IdentityForm, error) {
	const q = `SELECT ` + formColumns + ` FROM identity_forms WHERE seat_id = ?`
	f, err := scanForm(tx.QueryRowContext(ctx, q, seatID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFormNotFound
	}
	return f, err
}

// Create inserts a new identity form row.
func (r *IdentityFormRepo) Create(ctx context.Context, f *model.IdentityForm) error {
	const q = `INSERT INTO identity_forms (` + formColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, f.SeatID, f.Status, f.StudentName, f.ContactEmail, f.ContactPhone, nullTime(f.BirthDate),
		f.IsMinor, f.HasInsurance, f.WantsInsurance, f.Note, f.GuardianEmail, f.GuardianRelation,
		nullTime(f.SubmittedAt), nullTime(f.ConfirmedAt))
	return err
}

// Update overwrites the claimant fields of an existing form. The
// status guard makes the statement a no-op once a claim has confirmed
// the form, in which case ErrConflict is returned.
func (r *IdentityFormRepo) Update(ctx context.Context, f *model.IdentityForm) error {
	const q = `UPDATE identity_forms
	           SET status = ?, student_name = ?, contact_email = ?, contact_phone = ?, birth_date = ?,
	               is_minor = ?, has_insurance = ?, wants_insurance = ?, note = ?,
	               guardian_email = ?, guardian_relation = ?, submitted_at = ?
	           WHERE seat_id = ? AND status <> ?`
	res, err := r.db.ExecContext(ctx, q, f.Status, f.StudentName, f.ContactEmail, f.ContactPhone, nullTime(f.BirthDate),
		f.IsMinor, f.HasInsurance, f.WantsInsurance, f.Note,
		f.GuardianEmail, f.GuardianRelation, nullTime(f.SubmittedAt),
		f.SeatID, model.FormConfirmed)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// ConfirmTx writes the confirmed form inside an existing transaction.
// The caller supplies the full form carrying the claim-time claimant
// payload, which overwrites whatever was submitted earlier.
func (r *IdentityFormRepo) ConfirmTx(ctx context.Context, tx *sql.Tx, f *model.IdentityForm) error {
	const q = `UPDATE identity_forms
	           SET status = ?, student_name = ?, contact_email = ?, contact_phone = ?, birth_date = ?,
	               is_minor = ?, has_insurance = ?, wants_insurance = ?, note = ?,
	               guardian_email = ?, guardian_relation = ?, confirmed_at = ?
	           WHERE seat_id = ?`
	res, err := tx.ExecContext(ctx, q, model.FormConfirmed, f.StudentName, f.ContactEmail, f.ContactPhone, nullTime(f.BirthDate),
		f.IsMinor, f.HasInsurance, f.WantsInsurance, f.Note,
		f.GuardianEmail, f.GuardianRelation, nullTime(f.ConfirmedAt),
		f.SeatID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrFormNotFound
	}
	return nil
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
