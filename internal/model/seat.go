package model

import "time"

// SeatStatus enumerates the lifecycle states of a seat.  A seat starts
// as pending, becomes invited when an invitation code is issued for it
// and becomes claimed when exactly one claimant completes the claim
// protocol.  The lifecycle only moves forward.
type SeatStatus string

const (
	SeatPending SeatStatus = "pending"
	SeatInvited SeatStatus = "invited"
	SeatClaimed SeatStatus = "claimed"
)

// seatTransitions is the full transition table for seats.  Anything not
// listed here is rejected; in particular there is no way back out of
// claimed.  Re-issuing an invitation for an already invited seat leaves
// the seat row untouched, which is why invited->invited is allowed.
var seatTransitions = map[SeatStatus][]SeatStatus{
	SeatPending: {SeatInvited},
	SeatInvited: {SeatInvited, SeatClaimed},
	SeatClaimed: {},
}

// CanTransition reports whether moving from the receiver state to the
// given state is allowed by the seat lifecycle.
func (s SeatStatus) CanTransition(to SeatStatus) bool {
	for _, t := range seatTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// Seat describes a single reservable slot within a lesson.  Seats are
// uniquely identified by their lesson and seat number.  The version
// column implements optimistic concurrency control: the claim
// transition increments it and only succeeds when the version observed
// by the claimant is still current.
//
// Fields:
//  ID               – primary key identifier.
//  LessonID         – lesson to which this seat belongs.
//  SeatNumber       – number of the seat within the lesson.
//  Status           – lifecycle state (pending, invited, claimed).
//  ClaimedMappingID – student mapping that claimed the seat, if any.
//  ClaimedAt        – when the seat was claimed, if it was.
//  Version          – monotonically increasing optimistic lock counter.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Seat struct {
	ID               uint64     // seats.id
	LessonID         uint64     // seats.lesson_id
	SeatNumber       uint32     // seats.seat_number
	Status           SeatStatus // seats.status
	ClaimedMappingID *string    // seats.claimed_mapping_id (nullable)
	ClaimedAt        *time.Time // seats.claimed_at (nullable)
	Version          uint64     // seats.version
	CreatedAt        time.Time  // seats.created_at
	UpdatedAt        time.Time  // seats.updated_at
}
