package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lesson-seat-invitation/internal/queue"
	"github.com/iliyamo/lesson-seat-invitation/internal/repository"
	"github.com/iliyamo/lesson-seat-invitation/internal/service"
)

// InvitationHandler exposes invitation issuance and verification.
// Issuance is restricted to staff via JWT and role middleware;
// verification is public since the code itself is the capability.
type InvitationHandler struct {
	Invites *service.InviteService
	Store   repository.Store
	Audit   *service.AuditPublisher
}

// NewInvitationHandler constructs an InvitationHandler. The audit
// publisher may be nil to disable auditing.
func NewInvitationHandler(invites *service.InviteService, store repository.Store, audit *service.AuditPublisher) *InvitationHandler {
	if invites == nil || store == nil {
		panic("nil dependency passed to NewInvitationHandler")
	}
	return &InvitationHandler{Invites: invites, Store: store, Audit: audit}
}

// Issue handles POST /v1/seats/:id/invitation. It creates an
// invitation code for the seat or regenerates the existing one in
// place, returning the code and its expiry. The optional request body
// overrides the default TTL.
func (h *InvitationHandler) Issue(c echo.Context) error {
	seatID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || seatID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	var body struct {
		TTLDays int `json:"ttl_days"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	inv, refreshed, err := h.Invites.Issue(c.Request().Context(), seatID, body.TTLDays)
	if err != nil {
		return respondError(c, err)
	}

	action := queue.ActionInvitationIssued
	status := http.StatusCreated
	if refreshed {
		action = queue.ActionInvitationRefreshed
		status = http.StatusOK
	}
	h.audit(c, action, "invitation", strconv.FormatUint(inv.SeatID, 10))

	return c.JSON(status, echo.Map{
		"code":       inv.Code,
		"seat_id":    inv.SeatID,
		"expires_at": inv.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Verify handles GET /v1/invitations/:code. It validates the code
// against expiry and claim state and returns the seat behind it so a
// claimant UI can render the claim form.
func (h *InvitationHandler) Verify(c echo.Context) error {
	code := c.Param("code")
	inv, err := h.Invites.Verify(c.Request().Context(), code, time.Now().UTC(), false)
	if err != nil {
		return respondError(c, err)
	}
	seat, err := h.Store.SeatByID(c.Request().Context(), inv.SeatID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"code":        inv.Code,
		"seat_id":     inv.SeatID,
		"seat_number": seat.SeatNumber,
		"lesson_id":   seat.LessonID,
		"expires_at":  inv.ExpiresAt.UTC().Format(time.RFC3339),
		"is_expired":  false,
		"is_claimed":  false,
	})
}

func (h *InvitationHandler) audit(c echo.Context, action, entityType, entityID string) {
	if h.Audit == nil {
		return
	}
	ev := queue.AuditEvent{
		ActorID:    getActorID(c),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Scope:      "invitation",
	}
	// Fire and forget; the request must not wait on the broker.
	go func() { _ = h.Audit.Publish(context.Background(), ev) }()
}
