package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/lesson-seat-invitation/internal/model"
)

// SeatRepo provides data access to the seats table. The claim
// transition is guarded by the version column: the UPDATE carries the
// expected version in its WHERE clause and increments it in the same
// statement, so at most one concurrent claimant can ever succeed.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo returns a new SeatRepo bound to the given database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// DB exposes the underlying database handle so orchestration code can
// open transactions spanning multiple repositories.
func (r *SeatRepo) DB() *sql.DB { return r.db }

const seatColumns = `id, lesson_id, seat_number, status, claimed_mapping_id, claimed_at, version, created_at, updated_at`

func scanSeat(row *sql.Row) (*model.Seat, error) {
	var s model.Seat
	var mappingID sql.NullString
	var claimedAt sql.NullTime
	err := row.Scan(&s.ID, &s.LessonID, &s.SeatNumber, &s.Status, &mappingID, &claimedAt, &s.Version, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if mappingID.Valid {
		v := mappingID.String
		s.ClaimedMappingID = &v
	}
	if claimedAt.Valid {
		t := claimedAt.Time.UTC()
		s.ClaimedAt = &t
	}
	return &s, nil
}

// GetByID returns a seat by its primary key. ErrSeatNotFound is
// returned when no such seat exists.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats WHERE id = ?`
	s, err := scanSeat(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSeatNotFound
	}
	return s, err
}

// GetByIDTx is GetByID within an existing transaction.
func (r *SeatRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats WHERE id = ?`
	s, err := scanSeat(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSeatNotFound
	}
	return s, err
}

// MarkInvited transitions a seat from pending to invited. Seats that
// are already invited are left untouched; issuing a new code for them
// is a no-op on the seat row. A claimed seat cannot be re-invited and
// yields ErrInvalidTransition.
func (r *SeatRepo) MarkInvited(ctx context.Context, id uint64) error {
	seat, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if seat.Status == model.SeatInvited {
		return nil
	}
	if !seat.Status.CanTransition(model.SeatInvited) {
		return ErrInvalidTransition
	}
	const q = `UPDATE seats SET status = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, model.SeatInvited, id, model.SeatPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Lost a race with another issuance or a claim; re-read to decide.
		seat, err = r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if seat.Status == model.SeatInvited {
			return nil
		}
		return ErrInvalidTransition
	}
	return nil
}

// ClaimTx applies the version-guarded claim transition inside an
// existing transaction. The statement only matches when the row still
// carries expectedVersion, and it advances the version as part of the
// same write. Zero rows affected means another claimant already
// advanced the version; the caller must roll back the surrounding
// transaction and surface the conflict.
func (r *SeatRepo) ClaimTx(ctx context.Context, tx *sql.Tx, seatID, expectedVersion uint64, mappingID string, at time.Time) error {
	const q = `UPDATE seats
	           SET status = ?, claimed_mapping_id = ?, claimed_at = ?, version = version + 1
	           WHERE id = ? AND version = ?`
	res, err := tx.ExecContext(ctx, q, model.SeatClaimed, mappingID, at.UTC(), seatID, expectedVersion)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVersionConflict
	}
	return nil
}
