// Package service implements the invitation issuance and claim
// protocol on top of the repository layer. Handlers stay thin: they
// parse requests, call into these services and translate the coded
// errors into HTTP responses.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/lesson-seat-invitation/internal/apperr"
	"github.com/iliyamo/lesson-seat-invitation/internal/codegen"
	"github.com/iliyamo/lesson-seat-invitation/internal/model"
	"github.com/iliyamo/lesson-seat-invitation/internal/repository"
)

// DefaultTTLDays is the invitation lifetime applied when the caller
// does not override it per issuance.
const DefaultTTLDays = 7

// DefaultCodeAttempts bounds how many times issuance regenerates a
// code after hitting the unique index before giving up.
const DefaultCodeAttempts = 5

// InviteService issues and verifies single-use invitation codes. One
// invitation row exists per seat; issuing again regenerates the code
// in place, silently invalidating the previous one.
type InviteService struct {
	Store       repository.Store
	CodeLength  int
	TTLDays     int
	MaxAttempts int

	// GenerateCode produces a fresh candidate code. Overridable so
	// tests can force collisions or fixed codes.
	GenerateCode func(length int) (string, error)
	// Now supplies the current time; overridable in tests.
	Now func() time.Time
}

// NewInviteService returns an InviteService with production defaults.
func NewInviteService(store repository.Store, codeLength, ttlDays, maxAttempts int) *InviteService {
	if codeLength <= 0 {
		codeLength = codegen.DefaultLength
	}
	if ttlDays <= 0 {
		ttlDays = DefaultTTLDays
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultCodeAttempts
	}
	return &InviteService{
		Store:       store,
		CodeLength:  codeLength,
		TTLDays:     ttlDays,
		MaxAttempts: maxAttempts,
		GenerateCode: func(length int) (string, error) {
			return codegen.Generate(length, codegen.DefaultAlphabet)
		},
		Now: func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates or regenerates the invitation for a seat. A zero
// ttlDays applies the service default. On first issuance the seat
// moves pending -> invited. The returned bool reports whether an
// existing row was refreshed rather than a new one created.
func (s *InviteService) Issue(ctx context.Context, seatID uint64, ttlDays int) (*model.Invitation, bool, error) {
	seat, err := s.Store.SeatByID(ctx, seatID)
	if err != nil {
		return nil, false, err
	}
	if !seat.Status.CanTransition(model.SeatInvited) {
		return nil, false, apperr.ErrSeatClaimed.WithMessage("seat has already been claimed")
	}
	if ttlDays <= 0 {
		ttlDays = s.TTLDays
	}
	expiresAt := s.Now().Add(time.Duration(ttlDays) * 24 * time.Hour)

	existing, err := s.Store.InvitationBySeat(ctx, seatID)
	switch {
	case err == nil:
		inv, err := s.refresh(ctx, existing, expiresAt)
		return inv, true, err
	case errors.Is(err, repository.ErrInvitationNotFound):
		inv, err := s.create(ctx, seat, expiresAt)
		return inv, false, err
	default:
		return nil, false, err
	}
}

// refresh regenerates the code of an existing invitation row in place.
func (s *InviteService) refresh(ctx context.Context, inv *model.Invitation, expiresAt time.Time) (*model.Invitation, error) {
	for attempt := 0; attempt < s.MaxAttempts; attempt++ {
		code, err := s.GenerateCode(s.CodeLength)
		if err != nil {
			return nil, err
		}
		err = s.Store.RefreshInvitation(ctx, inv.SeatID, code, expiresAt)
		if errors.Is(err, repository.ErrDuplicateCode) {
			continue
		}
		if err != nil {
			return nil, err
		}
		inv.Code = code
		inv.ExpiresAt = expiresAt
		return inv, nil
	}
	return nil, apperr.ErrInviteCodeCollision
}

// create inserts a fresh invitation row and transitions the seat to
// invited.
func (s *InviteService) create(ctx context.Context, seat *model.Seat, expiresAt time.Time) (*model.Invitation, error) {
	for attempt := 0; attempt < s.MaxAttempts; attempt++ {
		code, err := s.GenerateCode(s.CodeLength)
		if err != nil {
			return nil, err
		}
		inv := &model.Invitation{SeatID: seat.ID, Code: code, ExpiresAt: expiresAt}
		err = s.Store.CreateInvitation(ctx, inv)
		if errors.Is(err, repository.ErrDuplicateCode) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if seat.Status == model.SeatPending {
			if err := s.Store.MarkSeatInvited(ctx, seat.ID); err != nil {
				return nil, err
			}
		}
		return inv, nil
	}
	return nil, apperr.ErrInviteCodeCollision
}

// Verify validates a code against time and claim-state rules. The
// checks run in a fixed order: unknown code, then expiry, then claimed
// state, so an expired-and-unclaimed code reports expiry. The
// claim-state check can be skipped for the form-edit flow, which lets
// a claimant keep editing until the form itself is confirmed.
func (s *InviteService) Verify(ctx context.Context, code string, now time.Time, skipClaimedCheck bool) (*model.Invitation, error) {
	inv, err := s.Store.InvitationByCode(ctx, code)
	if errors.Is(err, repository.ErrInvitationNotFound) {
		return nil, apperr.ErrInviteNotFound
	}
	if err != nil {
		return nil, err
	}
	if inv.Expired(now) {
		return nil, apperr.ErrInviteExpired
	}
	if !skipClaimedCheck && inv.Claimed() {
		return nil, apperr.ErrInviteAlreadyClaimed
	}
	return inv, nil
}
