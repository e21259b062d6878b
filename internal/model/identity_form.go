package model

import "time"

// FormStatus enumerates the lifecycle states of an identity form.  A
// form moves from draft to submitted when the claimant files it and to
// confirmed only as part of a successful claim.  Confirmed is terminal
// and blocks any further edit.
type FormStatus string

const (
	FormDraft     FormStatus = "draft"
	FormSubmitted FormStatus = "submitted"
	FormConfirmed FormStatus = "confirmed"
)

// formTransitions is the transition table for identity forms.  A
// submitted form may be re-submitted any number of times before the
// claim confirms it.
var formTransitions = map[FormStatus][]FormStatus{
	FormDraft:     {FormSubmitted},
	FormSubmitted: {FormSubmitted, FormConfirmed},
	FormConfirmed: {},
}

// CanTransition reports whether moving from the receiver state to the
// given state is allowed by the form lifecycle.
func (s FormStatus) CanTransition(to FormStatus) bool {
	for _, t := range formTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// IdentityForm holds the claimant data attached to a seat.  There is at
// most one form per seat.  A claim is only permitted once the form has
// reached submitted; a successful claim overwrites the claimant fields
// with the payload supplied at claim time and moves the form to
// confirmed.
//
// Fields:
//  SeatID           – seat this form belongs to (primary key, 1:1).
//  Status           – lifecycle state (draft, submitted, confirmed).
//  StudentName      – claimant name (required on submit).
//  ContactEmail     – claimant email (required on submit).
//  ContactPhone     – claimant phone, optional.
//  BirthDate        – claimant birth date, optional.
//  IsMinor          – whether the claimant is a minor.
//  HasInsurance     – claimant already carries their own insurance.
//  WantsInsurance   – claimant requests resort insurance coverage.
//  Note             – free-form note for the instructor.
//  GuardianEmail    – guardian contact, used when IsMinor is set.
//  GuardianRelation – relationship of the guardian to the claimant.
//  SubmittedAt      – when the form last reached submitted.
//  ConfirmedAt      – when the form was confirmed by a claim.
type IdentityForm struct {
	SeatID           uint64     // identity_forms.seat_id
	Status           FormStatus // identity_forms.status
	StudentName      string     // identity_forms.student_name
	ContactEmail     string     // identity_forms.contact_email
	ContactPhone     string     // identity_forms.contact_phone
	BirthDate        *time.Time // identity_forms.birth_date (nullable)
	IsMinor          bool       // identity_forms.is_minor
	HasInsurance     bool       // identity_forms.has_insurance
	WantsInsurance   bool       // identity_forms.wants_insurance
	Note             string     // identity_forms.note
	GuardianEmail    string     // identity_forms.guardian_email
	GuardianRelation string     // identity_forms.guardian_relation
	SubmittedAt      *time.Time // identity_forms.submitted_at (nullable)
	ConfirmedAt      *time.Time // identity_forms.confirmed_at (nullable)
}
