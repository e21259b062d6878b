// Package repository defines error types that are reused across
// multiple repositories. These sentinel values allow higher layers such
// as services and handlers to distinguish between different failure
// scenarios without string matching. ErrVersionConflict in particular
// is the signal that an optimistic update lost its race and the
// surrounding transaction must be rolled back, never retried in place.
package repository

import "errors"

// ErrSeatNotFound is returned when no seat exists with the given ID.
var ErrSeatNotFound = errors.New("seat not found")

// ErrLessonNotFound is returned when no lesson exists with the given ID.
var ErrLessonNotFound = errors.New("lesson not found")

// ErrInvitationNotFound is returned when no invitation matches the
// given code or seat.
var ErrInvitationNotFound = errors.New("invitation not found")

// ErrFormNotFound is returned when a seat has no identity form yet.
var ErrFormNotFound = errors.New("identity form not found")

// ErrStudentNotFound is returned when no global student matches the
// supplied contact details.
var ErrStudentNotFound = errors.New("global student not found")

// ErrDuplicateCode is returned when an insert or update hits the unique
// index on invitations.code. Callers regenerate the code and retry a
// bounded number of times.
var ErrDuplicateCode = errors.New("invitation code already exists")

// ErrVersionConflict is returned when a conditional update matched zero
// rows because another writer advanced the version first. The caller
// must abort its transaction and surface a conflict; retrying inside
// the same transaction could double-create dependent rows.
var ErrVersionConflict = errors.New("version conflict")

// ErrInvalidTransition is returned when a status change is not in the
// entity's transition table.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state, such as editing an identity form that a completed
// claim has already confirmed.
var ErrConflict = errors.New("conflict")
