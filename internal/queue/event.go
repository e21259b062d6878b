// Package queue defines the audit payloads exchanged over the message
// broker and the background consumer that drains them.
package queue

// Audit action names emitted by the invitation and claim flows.
const (
	ActionInvitationIssued    = "invitation.issued"
	ActionInvitationRefreshed = "invitation.refreshed"
	ActionIdentitySubmitted   = "identity.submitted"
	ActionSeatClaimed         = "seat.claimed"
)

// AuditQueueName is the durable queue audit events are published to.
const AuditQueueName = "audit.events"

// AuditEvent records one auditable action. Events are fire-and-forget:
// they are published after the triggering write commits and are not
// transactional with it. Downstream consumers can log or analyze them
// without querying the primary database.
type AuditEvent struct {
	ActorID    string `json:"actor_id"`
	Action     string `json:"action"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Scope      string `json:"scope"`
	At         string `json:"at"`
}
