package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/lesson-seat-invitation/internal/model"
)

// InvitationRepo provides data access to the invitations table. The
// table carries two unique indexes: one on code (the global lookup
// key) and one on seat_id (one invitation row per seat). Uniqueness of
// freshly generated codes is enforced here, not in the generator;
// callers translate ErrDuplicateCode into a bounded regenerate-retry.
type InvitationRepo struct {
	db *sql.DB
}

// NewInvitationRepo returns a new InvitationRepo bound to the given database.
func NewInvitationRepo(db *sql.DB) *InvitationRepo { return &InvitationRepo{db: db} }

const invitationColumns = `id, seat_id, code, expires_at, claimed_at, claimed_by, created_at, updated_at`

func scanInvitation(row *sql.Row) (*model.Invitation, error) {
	var inv model.Invitation
	var claimedAt sql.NullTime
	var claimedBy sql.NullString
	err := row.Scan(&inv.ID, &inv.SeatID, &inv.Code, &inv.ExpiresAt, &claimedAt, &claimedBy, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if claimedAt.Valid {
		t := claimedAt.Time.UTC()
		inv.ClaimedAt = &t
	}
	if claimedBy.Valid {
		v := claimedBy.String
		inv.ClaimedBy = &v
	}
	return &inv, nil
}

// duplicateKey reports whether err is a MySQL duplicate-entry error on
// an index whose name contains the given fragment. Error 1062 carries
// the key name in its message, which is the only way to tell a code
// collision apart from a seat_id collision.
func duplicateKey(err error, key string) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != 1062 {
		return false
	}
	return strings.Contains(me.Message, key)
}

// GetByCode returns the invitation with the given code.
// ErrInvitationNotFound is returned when the code is unknown.
func (r *InvitationRepo) GetByCode(ctx context.Context, code string) (*model.Invitation, error) {
	const q = `SELECT ` + invitationColumns + ` FROM invitations WHERE code = ?`
	inv, err := scanInvitation(r.db.QueryRowContext(ctx, q, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvitationNotFound
	}
	return inv, err
}

// GetBySeat returns the invitation bound to the given seat, if any.
func (r *InvitationRepo) GetBySeat(ctx context.Context, seatID uint64) (*model.Invitation, error) {
	const q = `SELECT ` + invitationColumns + ` FROM invitations WHERE seat_id = ?`
	inv, err := scanInvitation(r.db.QueryRowContext(ctx, q, seatID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvitationNotFound
	}
	return inv, err
}

// Create inserts a new invitation row and populates the generated ID.
// A collision on the code unique index yields ErrDuplicateCode so the
// caller can regenerate; a collision on the seat unique index yields
// ErrConflict, meaning another issuance created the row first.
func (r *InvitationRepo) Create(ctx context.Context, inv *model.Invitation) error {
	const q = `INSERT INTO invitations (seat_id, code, expires_at) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, inv.SeatID, inv.Code, inv.ExpiresAt.UTC())
	if err != nil {
		if duplicateKey(err, "code") {
			return ErrDuplicateCode
		}
		if duplicateKey(err, "seat") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	inv.ID = uint64(id)
	return nil
}

// Refresh replaces the code and expiry of the existing invitation row
// for a seat, modelling regenerate/resend. The old code stops working
// the moment this commits. ErrInvitationNotFound is returned when the
// seat has no invitation row, ErrDuplicateCode when the fresh code
// collides with another seat's code.
func (r *InvitationRepo) Refresh(ctx context.Context, seatID uint64, code string, expiresAt time.Time) error {
	const q = `UPDATE invitations SET code = ?, expires_at = ? WHERE seat_id = ?`
	res, err := r.db.ExecContext(ctx, q, code, expiresAt.UTC(), seatID)
	if err != nil {
		if duplicateKey(err, "code") {
			return ErrDuplicateCode
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvitationNotFound
	}
	return nil
}

// MarkClaimedTx records the consumption of a code inside an existing
// transaction, setting claimed_at and the mapping that claimed it. The
// claimed_at IS NULL guard keeps the write idempotent against double
// application; zero rows affected means the code was already consumed.
func (r *InvitationRepo) MarkClaimedTx(ctx context.Context, tx *sql.Tx, code, mappingID string, at time.Time) error {
	const q = `UPDATE invitations SET claimed_at = ?, claimed_by = ? WHERE code = ? AND claimed_at IS NULL`
	res, err := tx.ExecContext(ctx, q, at.UTC(), mappingID, code)
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
