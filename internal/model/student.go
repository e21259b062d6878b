package model

import "time"

// GlobalStudent is a person record deduplicated by contact email or
// phone across the whole system, not per resort.  It is created lazily
// on the first claim when no existing record matches the claimant's
// contact details.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – student name as supplied at claim time.
//  Email     – contact email used for deduplication.
//  Phone     – contact phone used for deduplication.
//  BirthDate – birth date, optional.
//  CreatedAt – creation timestamp.
type GlobalStudent struct {
	ID        uint64     // global_students.id
	Name      string     // global_students.name
	Email     string     // global_students.email
	Phone     string     // global_students.phone
	BirthDate *time.Time // global_students.birth_date (nullable)
	CreatedAt time.Time  // global_students.created_at
}

// StudentMapping is a resort-scoped identity for a GlobalStudent.
// Seats and lesson records reference the mapping, never the global
// record directly.  Mapping IDs are UUIDs so they can be handed out to
// external callers without leaking row counts.
//
// Fields:
//  ID              – UUID primary key.
//  GlobalStudentID – global person record this mapping binds.
//  ResortID        – resort the mapping is scoped to.
//  CreatedAt       – creation timestamp.
type StudentMapping struct {
	ID              string    // student_mappings.id
	GlobalStudentID uint64    // student_mappings.global_student_id
	ResortID        uint64    // student_mappings.resort_id
	CreatedAt       time.Time // student_mappings.created_at
}

// GuardianRelationship links a guardian's email to a global student.
// At most one row exists per (guardian email, student) pair; it is
// created during a claim when the claimant is flagged a minor and a
// guardian email is supplied.
//
// Fields:
//  ID              – primary key identifier.
//  GuardianEmail   – guardian contact email.
//  GlobalStudentID – student the guardian is responsible for.
//  Relationship    – how the guardian relates to the student.
//  CreatedAt       – creation timestamp.
type GuardianRelationship struct {
	ID              uint64    // guardian_relationships.id
	GuardianEmail   string    // guardian_relationships.guardian_email
	GlobalStudentID uint64    // guardian_relationships.global_student_id
	Relationship    string    // guardian_relationships.relationship
	CreatedAt       time.Time // guardian_relationships.created_at
}
