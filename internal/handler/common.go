// Package handler defines the HTTP handlers for the invitation and
// claim flows.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lesson-seat-invitation/internal/apperr"
	"github.com/iliyamo/lesson-seat-invitation/internal/repository"
)

// statusForCode maps the stable error codes of the claim protocol to
// HTTP statuses. The codes themselves are the contract; the statuses
// are this layer's rendering of them.
func statusForCode(code string) int {
	switch code {
	case apperr.ErrInviteNotFound.Code:
		return http.StatusNotFound
	case apperr.ErrInviteExpired.Code:
		return http.StatusGone
	case apperr.ErrInviteAlreadyClaimed.Code,
		apperr.ErrInviteCodeCollision.Code,
		apperr.ErrSeatClaimed.Code:
		return http.StatusConflict
	case apperr.ErrIdentityFormIncomplete.Code:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError translates service and repository errors into JSON
// responses. Coded errors keep their {code, message} shape; repository
// sentinels that can reach this layer map to plain not-found or
// conflict bodies; anything else is a 500.
func respondError(c echo.Context, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return c.JSON(statusForCode(ae.Code), echo.Map{"code": ae.Code, "message": ae.Message})
	}
	switch {
	case errors.Is(err, repository.ErrSeatNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
	case errors.Is(err, repository.ErrLessonNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "lesson not found"})
	case errors.Is(err, repository.ErrFormNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "identity form not found"})
	case errors.Is(err, repository.ErrInvitationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invitation not found"})
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	}
	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// getActorID extracts the authenticated caller's identifier from the
// context. Public endpoints (the claimant side of the flow) have no
// token, in which case the invitation code is the acting identity and
// "claimant" is recorded.
func getActorID(c echo.Context) string {
	if v := c.Get("actor_id"); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "claimant"
}
