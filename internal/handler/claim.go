package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lesson-seat-invitation/internal/queue"
	"github.com/iliyamo/lesson-seat-invitation/internal/service"
)

// ClaimHandler exposes the claim endpoint that converts a verified
// invitation plus a submitted identity form into a confirmed seat
// assignment.
type ClaimHandler struct {
	Claims *service.ClaimCoordinator
	Audit  *service.AuditPublisher
}

// NewClaimHandler constructs a ClaimHandler. The audit publisher may
// be nil to disable auditing.
func NewClaimHandler(claims *service.ClaimCoordinator, audit *service.AuditPublisher) *ClaimHandler {
	if claims == nil {
		panic("nil coordinator passed to NewClaimHandler")
	}
	return &ClaimHandler{Claims: claims, Audit: audit}
}

// Claim handles POST /v1/invitations/:code/claim. The body carries the
// authoritative claimant payload; on success the response returns the
// seat and the freshly minted student mapping. Conflicts from losing
// the claim race surface as 409 with the SEAT_CLAIMED code and leave
// no partial rows behind.
func (h *ClaimHandler) Claim(c echo.Context) error {
	var body formPayloadBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	payload, err := body.toPayload()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid birth_date, expected YYYY-MM-DD"})
	}

	result, err := h.Claims.Claim(c.Request().Context(), c.Param("code"), payload)
	if err != nil {
		return respondError(c, err)
	}

	if h.Audit != nil {
		ev := queue.AuditEvent{
			ActorID:    getActorID(c),
			Action:     queue.ActionSeatClaimed,
			EntityType: "seat",
			EntityID:   strconv.FormatUint(result.SeatID, 10),
			Scope:      "claim",
		}
		go func() { _ = h.Audit.Publish(context.Background(), ev) }()
	}

	return c.JSON(http.StatusOK, result)
}
