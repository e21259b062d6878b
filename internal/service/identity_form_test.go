package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/lesson-seat-invitation/internal/apperr"
	"github.com/iliyamo/lesson-seat-invitation/internal/model"
)

func newTestFormService() (*IdentityFormService, *InviteService, *memStore) {
	invites, st := newTestInviteService()
	forms := NewIdentityFormService(st, invites)
	forms.Now = func() time.Time { return testNow }
	return forms, invites, st
}

func validPayload() FormPayload {
	return FormPayload{
		StudentName:  "小明",
		ContactEmail: "a@x.com",
		ContactPhone: "+86-1380000",
	}
}

func TestUpsertCreatesSubmittedForm(t *testing.T) {
	forms, invites, st := newTestFormService()
	ctx := context.Background()

	inv, _, err := invites.Issue(ctx, 1, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	form, err := forms.Upsert(ctx, inv.Code, validPayload())
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if form.Status != model.FormSubmitted {
		t.Fatalf("status = %q, want submitted", form.Status)
	}
	if form.SubmittedAt == nil || !form.SubmittedAt.Equal(testNow) {
		t.Fatalf("submitted at = %v, want %v", form.SubmittedAt, testNow)
	}
	if form.StudentName != "小明" || form.ContactEmail != "a@x.com" {
		t.Fatalf("claimant fields not applied: %+v", form)
	}

	stored, err := st.FormBySeat(ctx, 1)
	if err != nil {
		t.Fatalf("stored form: %v", err)
	}
	if stored.Status != model.FormSubmitted {
		t.Fatalf("stored status = %q, want submitted", stored.Status)
	}
}

func TestUpsertRejectsMissingRequiredFields(t *testing.T) {
	forms, invites, _ := newTestFormService()
	ctx := context.Background()

	inv, _, err := invites.Issue(ctx, 1, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	for _, p := range []FormPayload{
		{ContactEmail: "a@x.com"},
		{StudentName: "小明"},
	} {
		if _, err := forms.Upsert(ctx, inv.Code, p); !errors.Is(err, apperr.ErrIdentityFormIncomplete) {
			t.Fatalf("payload %+v: err = %v, want IDENTITY_FORM_INCOMPLETE", p, err)
		}
	}
}

func TestUpsertAfterConfirmationRejected(t *testing.T) {
	forms, invites, st := newTestFormService()
	ctx := context.Background()

	inv, _, err := invites.Issue(ctx, 1, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := forms.Upsert(ctx, inv.Code, validPayload()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	st.forms[1].Status = model.FormConfirmed

	_, err = forms.Upsert(ctx, inv.Code, validPayload())
	if !errors.Is(err, apperr.ErrInviteAlreadyClaimed) {
		t.Fatalf("err = %v, want INVITE_ALREADY_CLAIMED", err)
	}
}

func TestUpsertExpiredCodeRejected(t *testing.T) {
	forms, invites, _ := newTestFormService()
	ctx := context.Background()

	inv, _, err := invites.Issue(ctx, 1, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	forms.Now = func() time.Time { return inv.ExpiresAt.Add(time.Minute) }

	if _, err := forms.Upsert(ctx, inv.Code, validPayload()); !errors.Is(err, apperr.ErrInviteExpired) {
		t.Fatalf("err = %v, want INVITE_EXPIRED", err)
	}
}

func TestGetWorksAfterInvitationClaimed(t *testing.T) {
	forms, invites, st := newTestFormService()
	ctx := context.Background()

	inv, _, err := invites.Issue(ctx, 1, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := forms.Upsert(ctx, inv.Code, validPayload()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	claimedAt := testNow
	st.invites[inv.Code].ClaimedAt = &claimedAt

	form, err := forms.Get(ctx, inv.Code)
	if err != nil {
		t.Fatalf("get after claim: %v", err)
	}
	if form.StudentName != "小明" {
		t.Fatalf("unexpected form: %+v", form)
	}
}
