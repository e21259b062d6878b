package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/lesson-seat-invitation/internal/apperr"
	"github.com/iliyamo/lesson-seat-invitation/internal/model"
	"github.com/iliyamo/lesson-seat-invitation/internal/repository"
)

// ClaimResult is returned from a successful claim.
type ClaimResult struct {
	SeatID    uint64 `json:"seat_id"`
	MappingID string `json:"mapping_id"`
}

// ClaimCoordinator orchestrates the full claim as one atomic unit:
// resolve-or-create the global student, create the resort-scoped
// mapping, apply the version-guarded seat transition, consume the
// invitation, confirm the identity form and conditionally record a
// guardian relationship. All writes commit together or none do.
type ClaimCoordinator struct {
	Store   repository.Store
	Invites *InviteService

	// NewMappingID mints mapping primary keys; overridable in tests.
	NewMappingID func() string
	// Now supplies the current time; overridable in tests.
	Now func() time.Time
}

// NewClaimCoordinator returns a ClaimCoordinator with production
// defaults.
func NewClaimCoordinator(store repository.Store, invites *InviteService) *ClaimCoordinator {
	return &ClaimCoordinator{
		Store:        store,
		Invites:      invites,
		NewMappingID: uuid.NewString,
		Now:          func() time.Time { return time.Now().UTC() },
	}
}

// Claim consumes an invitation code on behalf of the claimant
// described by the payload. Read-only validation happens before the
// transaction opens: the code must verify (present, unexpired,
// unclaimed), the identity form must exist and be past draft, and the
// payload must carry the required claimant fields. The transactional
// body then performs the five writes; losing the optimistic version
// check on the seat rolls everything back and surfaces SEAT_CLAIMED,
// leaving no orphan student or mapping rows behind.
func (c *ClaimCoordinator) Claim(ctx context.Context, code string, p FormPayload) (*ClaimResult, error) {
	now := c.Now()

	inv, err := c.Invites.Verify(ctx, code, now, false)
	if err != nil {
		return nil, err
	}

	form, err := c.Store.FormBySeat(ctx, inv.SeatID)
	if errors.Is(err, repository.ErrFormNotFound) {
		return nil, apperr.ErrIdentityFormIncomplete.WithMessage("identity form has not been submitted")
	}
	if err != nil {
		return nil, err
	}
	if form.Status == model.FormDraft {
		return nil, apperr.ErrIdentityFormIncomplete.WithMessage("identity form is still a draft")
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	tx, err := c.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	seat, err := tx.SeatByID(ctx, inv.SeatID)
	if err != nil {
		return nil, err
	}
	if !seat.Status.CanTransition(model.SeatClaimed) {
		return nil, apperr.ErrInviteAlreadyClaimed
	}
	lesson, err := tx.LessonByID(ctx, seat.LessonID)
	if err != nil {
		return nil, err
	}

	// Resolve or create the global student. The two-step
	// find-by-contact-else-create runs inside the transaction so a
	// lost race leaves no record behind.
	student, err := tx.FindGlobalStudentByContact(ctx, p.ContactEmail, p.ContactPhone)
	if errors.Is(err, repository.ErrStudentNotFound) {
		student = &model.GlobalStudent{
			Name:      p.StudentName,
			Email:     p.ContactEmail,
			Phone:     p.ContactPhone,
			BirthDate: p.BirthDate,
		}
		if err := tx.CreateGlobalStudent(ctx, student); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	mapping := &model.StudentMapping{
		ID:              c.NewMappingID(),
		GlobalStudentID: student.ID,
		ResortID:        lesson.ResortID,
	}
	if err := tx.CreateStudentMapping(ctx, mapping); err != nil {
		return nil, err
	}

	if err := tx.ClaimSeat(ctx, seat.ID, seat.Version, mapping.ID, now); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperr.ErrSeatClaimed
		}
		return nil, err
	}

	if err := tx.MarkInvitationClaimed(ctx, code, mapping.ID, now); err != nil {
		return nil, err
	}

	// Claim-time data is authoritative over whatever was submitted
	// earlier.
	p.apply(form)
	form.Status = model.FormConfirmed
	form.ConfirmedAt = &now
	if err := tx.ConfirmIdentityForm(ctx, form); err != nil {
		return nil, err
	}

	if p.IsMinor && p.GuardianEmail != "" {
		exists, err := tx.HasGuardianRelationship(ctx, p.GuardianEmail, student.ID)
		if err != nil {
			return nil, err
		}
		if !exists {
			rel := p.GuardianRelation
			if rel == "" {
				rel = "guardian"
			}
			g := &model.GuardianRelationship{
				GuardianEmail:   p.GuardianEmail,
				GlobalStudentID: student.ID,
				Relationship:    rel,
			}
			if err := tx.CreateGuardianRelationship(ctx, g); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	return &ClaimResult{SeatID: seat.ID, MappingID: mapping.ID}, nil
}
