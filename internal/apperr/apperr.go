// Package apperr defines the stable error codes surfaced to external
// callers of the invitation and claim flows. These values allow the
// HTTP layer to distinguish failure classes without inspecting
// messages, in the same way the repository sentinels let handlers pick
// response codes. Each error carries a machine-readable code and a
// human-readable message; the mapping of codes to HTTP statuses lives
// in the handler package, not here.
package apperr

import "errors"

// Error is a coded failure returned from the invitation and claim
// services. Two Errors compare equal under errors.Is when their codes
// match, so handlers and tests can check against the package sentinels
// regardless of the message.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Code + ": " + e.Message }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of the error carrying a more specific
// message while keeping the same code.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg}
}

var (
	// ErrInviteNotFound is returned when no invitation exists for the
	// supplied code.
	ErrInviteNotFound = &Error{Code: "INVITE_NOT_FOUND", Message: "invitation code not found"}

	// ErrInviteExpired is returned when the invitation exists but its
	// expiry has passed. Expiry is checked before the claimed state, so
	// an expired-and-unclaimed code reports expiry.
	ErrInviteExpired = &Error{Code: "INVITE_EXPIRED", Message: "invitation code has expired"}

	// ErrInviteAlreadyClaimed is returned when the invitation has been
	// consumed by a successful claim.
	ErrInviteAlreadyClaimed = &Error{Code: "INVITE_ALREADY_CLAIMED", Message: "invitation code has already been claimed"}

	// ErrInviteCodeCollision is returned when code generation exhausted
	// its retry budget against the unique index.
	ErrInviteCodeCollision = &Error{Code: "INVITE_CODE_COLLISION", Message: "could not generate a unique invitation code"}

	// ErrIdentityFormIncomplete is returned when required claimant
	// fields are missing, or at claim time when the identity form does
	// not exist or is still a draft.
	ErrIdentityFormIncomplete = &Error{Code: "IDENTITY_FORM_INCOMPLETE", Message: "identity form is missing or incomplete"}

	// ErrSeatClaimed is returned when the optimistic version check on
	// the seat fails because a concurrent claim won the race. The whole
	// claim transaction has been rolled back when this is returned.
	ErrSeatClaimed = &Error{Code: "SEAT_CLAIMED", Message: "seat was claimed by a concurrent request"}
)

// CodeOf extracts the stable code from err, or an empty string when err
// carries no code.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
