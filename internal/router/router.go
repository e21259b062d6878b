// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lesson-seat-invitation/internal/handler"
	"github.com/iliyamo/lesson-seat-invitation/internal/middleware"
)

// RegisterRoutes registers unauthenticated infrastructure routes on
// the provided Echo instance. Load balancers and monitoring probe
// /healthz to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterInvitations wires the invitation, identity form and claim
// endpoints. Issuance requires a staff token; everything the claimant
// touches is public because the invitation code itself is the
// capability. The rate limiter covers the read endpoints only — the
// claim path's correctness comes from the store transaction, not from
// throttling.
func RegisterInvitations(e *echo.Echo, inv *handler.InvitationHandler, forms *handler.IdentityFormHandler, claims *handler.ClaimHandler, jwtSecret string, rl echo.MiddlewareFunc) {
	e.POST("/v1/seats/:id/invitation", inv.Issue,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("INSTRUCTOR", "ADMIN"))

	e.GET("/v1/invitations/:code", inv.Verify, rl)
	e.GET("/v1/invitations/:code/identity-form", forms.Get, rl)
	e.PUT("/v1/invitations/:code/identity-form", forms.Upsert)
	e.POST("/v1/invitations/:code/claim", claims.Claim)
}
