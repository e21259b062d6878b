package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/lesson-seat-invitation/internal/apperr"
	"github.com/iliyamo/lesson-seat-invitation/internal/model"
	"github.com/iliyamo/lesson-seat-invitation/internal/repository"
)

// FormPayload carries the claimant data supplied with a form
// submission or a claim. Optional fields may be left at their zero
// value; StudentName and ContactEmail are required.
type FormPayload struct {
	StudentName      string     `json:"student_name"`
	ContactEmail     string     `json:"contact_email"`
	ContactPhone     string     `json:"contact_phone"`
	BirthDate        *time.Time `json:"birth_date,omitempty"`
	IsMinor          bool       `json:"is_minor"`
	HasInsurance     bool       `json:"has_insurance"`
	WantsInsurance   bool       `json:"wants_insurance"`
	Note             string     `json:"note"`
	GuardianEmail    string     `json:"guardian_email"`
	GuardianRelation string     `json:"guardian_relation"`
}

// validate checks the required claimant fields. Both the submission
// flow and the claim flow reject a payload that cannot identify the
// claimant before touching the store.
func (p *FormPayload) validate() error {
	if p.StudentName == "" {
		return apperr.ErrIdentityFormIncomplete.WithMessage("student_name is required")
	}
	if p.ContactEmail == "" {
		return apperr.ErrIdentityFormIncomplete.WithMessage("contact_email is required")
	}
	return nil
}

// apply copies the payload onto a form. Claim-time data is
// authoritative, so every claimant field is overwritten.
func (p *FormPayload) apply(f *model.IdentityForm) {
	f.StudentName = p.StudentName
	f.ContactEmail = p.ContactEmail
	f.ContactPhone = p.ContactPhone
	f.BirthDate = p.BirthDate
	f.IsMinor = p.IsMinor
	f.HasInsurance = p.HasInsurance
	f.WantsInsurance = p.WantsInsurance
	f.Note = p.Note
	f.GuardianEmail = p.GuardianEmail
	f.GuardianRelation = p.GuardianRelation
}

// IdentityFormService tracks the claimant's identity data through
// draft -> submitted -> confirmed and gatekeeps whether a claim may
// proceed. Edits are addressed by invitation code: the code is the
// claimant's only capability.
type IdentityFormService struct {
	Store   repository.Store
	Invites *InviteService
	Now     func() time.Time
}

// NewIdentityFormService returns an IdentityFormService bound to the
// given store and invitation lifecycle.
func NewIdentityFormService(store repository.Store, invites *InviteService) *IdentityFormService {
	return &IdentityFormService{
		Store:   store,
		Invites: invites,
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the form attached to the seat behind a code. The
// claimed-state check is skipped so a claimant can review their data
// right after claiming; expiry and unknown codes are still rejected.
func (s *IdentityFormService) Get(ctx context.Context, code string) (*model.IdentityForm, error) {
	inv, err := s.Invites.Verify(ctx, code, s.Now(), true)
	if err != nil {
		return nil, err
	}
	return s.Store.FormBySeat(ctx, inv.SeatID)
}

// Upsert files or re-files the claimant's identity data for the seat
// behind a code. The result is always a submitted form with a fresh
// submission timestamp. The invitation's claimed state is deliberately
// not checked here so the claimant can keep editing up to the moment
// the claim confirms the form; a confirmed form rejects any further
// edit.
func (s *IdentityFormService) Upsert(ctx context.Context, code string, p FormPayload) (*model.IdentityForm, error) {
	inv, err := s.Invites.Verify(ctx, code, s.Now(), true)
	if err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	now := s.Now()
	existing, err := s.Store.FormBySeat(ctx, inv.SeatID)
	switch {
	case errors.Is(err, repository.ErrFormNotFound):
		form := &model.IdentityForm{SeatID: inv.SeatID, Status: model.FormSubmitted, SubmittedAt: &now}
		p.apply(form)
		if err := s.Store.CreateForm(ctx, form); err != nil {
			return nil, err
		}
		return form, nil
	case err != nil:
		return nil, err
	}

	if !existing.Status.CanTransition(model.FormSubmitted) {
		return nil, apperr.ErrInviteAlreadyClaimed.WithMessage("identity form has already been confirmed")
	}
	existing.Status = model.FormSubmitted
	existing.SubmittedAt = &now
	p.apply(existing)
	if err := s.Store.UpdateForm(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperr.ErrInviteAlreadyClaimed.WithMessage("identity form has already been confirmed")
		}
		return nil, err
	}
	return existing, nil
}
