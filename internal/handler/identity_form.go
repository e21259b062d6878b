package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lesson-seat-invitation/internal/model"
	"github.com/iliyamo/lesson-seat-invitation/internal/queue"
	"github.com/iliyamo/lesson-seat-invitation/internal/service"
)

// IdentityFormHandler exposes the claimant's identity form keyed by
// invitation code. Both endpoints are public: holding a valid code is
// the claimant's capability.
type IdentityFormHandler struct {
	Forms *service.IdentityFormService
	Audit *service.AuditPublisher
}

// NewIdentityFormHandler constructs an IdentityFormHandler. The audit
// publisher may be nil to disable auditing.
func NewIdentityFormHandler(forms *service.IdentityFormService, audit *service.AuditPublisher) *IdentityFormHandler {
	if forms == nil {
		panic("nil service passed to NewIdentityFormHandler")
	}
	return &IdentityFormHandler{Forms: forms, Audit: audit}
}

// formPayloadBody is the wire shape of a form submission. Dates travel
// as YYYY-MM-DD strings.
type formPayloadBody struct {
	StudentName      string `json:"student_name"`
	ContactEmail     string `json:"contact_email"`
	ContactPhone     string `json:"contact_phone"`
	BirthDate        string `json:"birth_date"`
	IsMinor          bool   `json:"is_minor"`
	HasInsurance     bool   `json:"has_insurance"`
	WantsInsurance   bool   `json:"wants_insurance"`
	Note             string `json:"note"`
	GuardianEmail    string `json:"guardian_email"`
	GuardianRelation string `json:"guardian_relation"`
}

// toPayload converts the wire body into a service payload, parsing the
// optional birth date.
func (b *formPayloadBody) toPayload() (service.FormPayload, error) {
	p := service.FormPayload{
		StudentName:      b.StudentName,
		ContactEmail:     b.ContactEmail,
		ContactPhone:     b.ContactPhone,
		IsMinor:          b.IsMinor,
		HasInsurance:     b.HasInsurance,
		WantsInsurance:   b.WantsInsurance,
		Note:             b.Note,
		GuardianEmail:    b.GuardianEmail,
		GuardianRelation: b.GuardianRelation,
	}
	if b.BirthDate != "" {
		t, err := time.Parse("2006-01-02", b.BirthDate)
		if err != nil {
			return p, err
		}
		p.BirthDate = &t
	}
	return p, nil
}

func formJSON(f *model.IdentityForm) echo.Map {
	m := echo.Map{
		"seat_id":           f.SeatID,
		"status":            f.Status,
		"student_name":      f.StudentName,
		"contact_email":     f.ContactEmail,
		"contact_phone":     f.ContactPhone,
		"is_minor":          f.IsMinor,
		"has_insurance":     f.HasInsurance,
		"wants_insurance":   f.WantsInsurance,
		"note":              f.Note,
		"guardian_email":    f.GuardianEmail,
		"guardian_relation": f.GuardianRelation,
	}
	if f.BirthDate != nil {
		m["birth_date"] = f.BirthDate.Format("2006-01-02")
	}
	if f.SubmittedAt != nil {
		m["submitted_at"] = f.SubmittedAt.UTC().Format(time.RFC3339)
	}
	if f.ConfirmedAt != nil {
		m["confirmed_at"] = f.ConfirmedAt.UTC().Format(time.RFC3339)
	}
	return m
}

// Get handles GET /v1/invitations/:code/identity-form.
func (h *IdentityFormHandler) Get(c echo.Context) error {
	form, err := h.Forms.Get(c.Request().Context(), c.Param("code"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, formJSON(form))
}

// Upsert handles PUT /v1/invitations/:code/identity-form. It files or
// re-files the claimant data, always resulting in a submitted form.
func (h *IdentityFormHandler) Upsert(c echo.Context) error {
	var body formPayloadBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	payload, err := body.toPayload()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid birth_date, expected YYYY-MM-DD"})
	}

	form, err := h.Forms.Upsert(c.Request().Context(), c.Param("code"), payload)
	if err != nil {
		return respondError(c, err)
	}

	if h.Audit != nil {
		ev := queue.AuditEvent{
			ActorID:    getActorID(c),
			Action:     queue.ActionIdentitySubmitted,
			EntityType: "identity_form",
			EntityID:   strconv.FormatUint(form.SeatID, 10),
			Scope:      "invitation",
		}
		go func() { _ = h.Audit.Publish(context.Background(), ev) }()
	}

	return c.JSON(http.StatusOK, formJSON(form))
}
