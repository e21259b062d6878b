package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/lesson-seat-invitation/internal/model"
)

// Store is the persistence surface the invitation and claim services
// operate against. The SQL implementation below delegates to the
// individual repositories; tests substitute an in-memory fake. Methods
// outside a transaction serve pre-checks and the issue/form flows;
// everything the claim body writes goes through a Tx.
type Store interface {
	// Begin opens the transaction wrapping a single claim.
	Begin(ctx context.Context) (Tx, error)

	SeatByID(ctx context.Context, id uint64) (*model.Seat, error)
	MarkSeatInvited(ctx context.Context, seatID uint64) error

	InvitationByCode(ctx context.Context, code string) (*model.Invitation, error)
	InvitationBySeat(ctx context.Context, seatID uint64) (*model.Invitation, error)
	CreateInvitation(ctx context.Context, inv *model.Invitation) error
	RefreshInvitation(ctx context.Context, seatID uint64, code string, expiresAt time.Time) error

	FormBySeat(ctx context.Context, seatID uint64) (*model.IdentityForm, error)
	CreateForm(ctx context.Context, f *model.IdentityForm) error
	UpdateForm(ctx context.Context, f *model.IdentityForm) error
}

// Tx covers the writes and reads of one claim transaction. Either
// Commit persists every change or Rollback discards them all; there is
// no partial outcome. ClaimSeat returns ErrVersionConflict when the
// optimistic check fails, and the caller is expected to roll back.
type Tx interface {
	SeatByID(ctx context.Context, id uint64) (*model.Seat, error)
	LessonByID(ctx context.Context, id uint64) (*model.Lesson, error)

	FindGlobalStudentByContact(ctx context.Context, email, phone string) (*model.GlobalStudent, error)
	CreateGlobalStudent(ctx context.Context, s *model.GlobalStudent) error
	CreateStudentMapping(ctx context.Context, m *model.StudentMapping) error

	ClaimSeat(ctx context.Context, seatID, expectedVersion uint64, mappingID string, at time.Time) error
	MarkInvitationClaimed(ctx context.Context, code, mappingID string, at time.Time) error
	ConfirmIdentityForm(ctx context.Context, f *model.IdentityForm) error

	HasGuardianRelationship(ctx context.Context, guardianEmail string, studentID uint64) (bool, error)
	CreateGuardianRelationship(ctx context.Context, g *model.GuardianRelationship) error

	Commit() error
	Rollback() error
}

// SQLStore implements Store on top of MySQL via the repository types.
type SQLStore struct {
	db          *sql.DB
	Seats       *SeatRepo
	Lessons     *LessonRepo
	Invitations *InvitationRepo
	Forms       *IdentityFormRepo
	Students    *StudentRepo
}

// NewSQLStore wires a SQLStore and its repositories around one
// database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{
		db:          db,
		Seats:       NewSeatRepo(db),
		Lessons:     NewLessonRepo(db),
		Invitations: NewInvitationRepo(db),
		Forms:       NewIdentityFormRepo(db),
		Students:    NewStudentRepo(db),
	}
}

// DB exposes the underlying handle for health checks and migrations.
func (s *SQLStore) DB() *sql.DB { return s.db }

// Begin opens a claim transaction.
func (s *SQLStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: tx, store: s}, nil
}

func (s *SQLStore) SeatByID(ctx context.Context, id uint64) (*model.Seat, error) {
	return s.Seats.GetByID(ctx, id)
}

func (s *SQLStore) MarkSeatInvited(ctx context.Context, seatID uint64) error {
	return s.Seats.MarkInvited(ctx, seatID)
}

func (s *SQLStore) InvitationByCode(ctx context.Context, code string) (*model.Invitation, error) {
	return s.Invitations.GetByCode(ctx, code)
}

func (s *SQLStore) InvitationBySeat(ctx context.Context, seatID uint64) (*model.Invitation, error) {
	return s.Invitations.GetBySeat(ctx, seatID)
}

func (s *SQLStore) CreateInvitation(ctx context.Context, inv *model.Invitation) error {
	return s.Invitations.Create(ctx, inv)
}

func (s *SQLStore) RefreshInvitation(ctx context.Context, seatID uint64, code string, expiresAt time.Time) error {
	return s.Invitations.Refresh(ctx, seatID, code, expiresAt)
}

func (s *SQLStore) FormBySeat(ctx context.Context, seatID uint64) (*model.IdentityForm, error) {
	return s.Forms.GetBySeat(ctx, seatID)
}

func (s *SQLStore) CreateForm(ctx context.Context, f *model.IdentityForm) error {
	return s.Forms.Create(ctx, f)
}

func (s *SQLStore) UpdateForm(ctx context.Context, f *model.IdentityForm) error {
	return s.Forms.Update(ctx, f)
}

// sqlTx adapts a *sql.Tx to the Tx interface by delegating to the
// repositories' ...Tx methods.
type sqlTx struct {
	tx    *sql.Tx
	store *SQLStore
}

func (t *sqlTx) SeatByID(ctx context.Context, id uint64) (*model.Seat, error) {
	return t.store.Seats.GetByIDTx(ctx, t.tx, id)
}

func (t *sqlTx) LessonByID(ctx context.Context, id uint64) (*model.Lesson, error) {
	return t.store.Lessons.GetByIDTx(ctx, t.tx, id)
}

func (t *sqlTx) FindGlobalStudentByContact(ctx context.Context, email, phone string) (*model.GlobalStudent, error) {
	return t.store.Students.FindGlobalByContactTx(ctx, t.tx, email, phone)
}

func (t *sqlTx) CreateGlobalStudent(ctx context.Context, s *model.GlobalStudent) error {
	return t.store.Students.CreateGlobalTx(ctx, t.tx, s)
}

func (t *sqlTx) CreateStudentMapping(ctx context.Context, m *model.StudentMapping) error {
	return t.store.Students.CreateMappingTx(ctx, t.tx, m)
}

func (t *sqlTx) ClaimSeat(ctx context.Context, seatID, expectedVersion uint64, mappingID string, at time.Time) error {
	return t.store.Seats.ClaimTx(ctx, t.tx, seatID, expectedVersion, mappingID, at)
}

func (t *sqlTx) MarkInvitationClaimed(ctx context.Context, code, mappingID string, at time.Time) error {
	return t.store.Invitations.MarkClaimedTx(ctx, t.tx, code, mappingID, at)
}

func (t *sqlTx) ConfirmIdentityForm(ctx context.Context, f *model.IdentityForm) error {
	return t.store.Forms.ConfirmTx(ctx, t.tx, f)
}

func (t *sqlTx) HasGuardianRelationship(ctx context.Context, guardianEmail string, studentID uint64) (bool, error) {
	return t.store.Students.HasGuardianTx(ctx, t.tx, guardianEmail, studentID)
}

func (t *sqlTx) CreateGuardianRelationship(ctx context.Context, g *model.GuardianRelationship) error {
	return t.store.Students.CreateGuardianTx(ctx, t.tx, g)
}

func (t *sqlTx) Commit() error   { return t.tx.Commit() }
func (t *sqlTx) Rollback() error { return t.tx.Rollback() }
