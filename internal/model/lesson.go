package model

import "time"

// Lesson is the unit a seat belongs to.  Lesson management itself is
// handled elsewhere; the claim flow only reads lessons to resolve the
// resort a student mapping must be scoped to.
//
// Fields:
//  ID        – primary key identifier.
//  ResortID  – resort the lesson takes place at.
//  Title     – display title of the lesson.
//  StartsAt  – scheduled start time, if set.
//  CreatedAt – creation timestamp.
type Lesson struct {
	ID        uint64     // lessons.id
	ResortID  uint64     // lessons.resort_id
	Title     string     // lessons.title
	StartsAt  *time.Time // lessons.starts_at (nullable)
	CreatedAt time.Time  // lessons.created_at
}
