package model

import "time"

// Invitation is a single-use, time-limited code bound to one seat.
// Each seat has at most one invitation row; re-issuing a code for a
// seat updates that row in place rather than creating a second one.
// The code column carries a unique index and is the primary lookup key
// for the whole claim flow.
//
// Fields:
//  ID        – primary key identifier.
//  SeatID    – seat this invitation reserves (unique per seat).
//  Code      – single-use invitation code (unique).
//  ExpiresAt – moment after which the code can no longer be used.
//  ClaimedAt – when the code was consumed by a successful claim.
//  ClaimedBy – student mapping that consumed the code.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Invitation struct {
	ID        uint64     // invitations.id
	SeatID    uint64     // invitations.seat_id
	Code      string     // invitations.code
	ExpiresAt time.Time  // invitations.expires_at
	ClaimedAt *time.Time // invitations.claimed_at (nullable)
	ClaimedBy *string    // invitations.claimed_by (nullable)
	CreatedAt time.Time  // invitations.created_at
	UpdatedAt time.Time  // invitations.updated_at
}

// Expired reports whether the invitation can no longer be used at the
// given instant.
func (i *Invitation) Expired(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}

// Claimed reports whether the invitation has already been consumed by a
// successful claim.
func (i *Invitation) Claimed() bool {
	return i.ClaimedAt != nil
}
