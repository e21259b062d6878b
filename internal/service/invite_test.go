package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/lesson-seat-invitation/internal/apperr"
	"github.com/iliyamo/lesson-seat-invitation/internal/model"
	"github.com/iliyamo/lesson-seat-invitation/internal/repository"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// newTestInviteService builds an InviteService over a fresh memStore
// seeded with one lesson and one pending seat. The code generator
// hands out CODE0001, CODE0002, ... so tests can predict codes.
func newTestInviteService() (*InviteService, *memStore) {
	st := newMemStore()
	startsAt := testNow.Add(48 * time.Hour)
	st.addLesson(model.Lesson{ID: 1, ResortID: 42, Title: "Beginner slalom", StartsAt: &startsAt})
	st.addSeat(model.Seat{ID: 1, LessonID: 1, SeatNumber: 5, Status: model.SeatPending})

	svc := NewInviteService(st, 8, 7, 5)
	svc.Now = func() time.Time { return testNow }
	n := 0
	svc.GenerateCode = func(length int) (string, error) {
		n++
		return []string{"CODE0001", "CODE0002", "CODE0003", "CODE0004", "CODE0005", "CODE0006"}[n-1], nil
	}
	return svc, st
}

func TestIssueCreatesInvitationAndMarksSeatInvited(t *testing.T) {
	svc, st := newTestInviteService()

	inv, refreshed, err := svc.Issue(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if refreshed {
		t.Fatal("first issuance reported as refresh")
	}
	if inv.Code != "CODE0001" {
		t.Fatalf("code = %q, want CODE0001", inv.Code)
	}
	wantExpiry := testNow.Add(7 * 24 * time.Hour)
	if !inv.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expires at %v, want %v", inv.ExpiresAt, wantExpiry)
	}

	seat, err := st.SeatByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("seat: %v", err)
	}
	if seat.Status != model.SeatInvited {
		t.Fatalf("seat status = %q, want invited", seat.Status)
	}
}

func TestIssueAgainRefreshesExistingRow(t *testing.T) {
	svc, st := newTestInviteService()
	ctx := context.Background()

	first, _, err := svc.Issue(ctx, 1, 0)
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	second, refreshed, err := svc.Issue(ctx, 1, 3)
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if !refreshed {
		t.Fatal("second issuance not reported as refresh")
	}
	if second.Code == first.Code {
		t.Fatal("refresh did not regenerate the code")
	}
	if !second.ExpiresAt.Equal(testNow.Add(3 * 24 * time.Hour)) {
		t.Fatalf("refresh ignored ttl override, got %v", second.ExpiresAt)
	}

	// The old code is gone: one invitation row per seat.
	if _, err := st.InvitationByCode(ctx, first.Code); !errors.Is(err, repository.ErrInvitationNotFound) {
		t.Fatalf("old code lookup err = %v, want not found", err)
	}
	if got := len(st.invites); got != 1 {
		t.Fatalf("invitation rows = %d, want 1", got)
	}
}

func TestIssueGivesUpAfterRepeatedCollisions(t *testing.T) {
	svc, st := newTestInviteService()
	ctx := context.Background()

	st.addSeat(model.Seat{ID: 2, LessonID: 1, SeatNumber: 6, Status: model.SeatPending})
	if _, _, err := svc.Issue(ctx, 1, 0); err != nil {
		t.Fatalf("seed issue: %v", err)
	}

	// Every generated code now collides with seat 1's invitation.
	calls := 0
	svc.GenerateCode = func(length int) (string, error) {
		calls++
		return "CODE0001", nil
	}
	_, _, err := svc.Issue(ctx, 2, 0)
	if !errors.Is(err, apperr.ErrInviteCodeCollision) {
		t.Fatalf("err = %v, want INVITE_CODE_COLLISION", err)
	}
	if calls != svc.MaxAttempts {
		t.Fatalf("generator called %d times, want %d", calls, svc.MaxAttempts)
	}
	if _, err := st.InvitationBySeat(ctx, 2); !errors.Is(err, repository.ErrInvitationNotFound) {
		t.Fatalf("seat 2 invitation err = %v, want not found", err)
	}
}

func TestIssueRejectsClaimedSeat(t *testing.T) {
	svc, st := newTestInviteService()
	st.addSeat(model.Seat{ID: 3, LessonID: 1, SeatNumber: 7, Status: model.SeatClaimed})

	_, _, err := svc.Issue(context.Background(), 3, 0)
	if !errors.Is(err, apperr.ErrSeatClaimed) {
		t.Fatalf("err = %v, want SEAT_CLAIMED", err)
	}
}

func TestVerifyCheckOrder(t *testing.T) {
	svc, st := newTestInviteService()
	ctx := context.Background()

	inv, _, err := svc.Issue(ctx, 1, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := svc.Verify(ctx, "NOSUCHCD", testNow, false); !errors.Is(err, apperr.ErrInviteNotFound) {
		t.Fatalf("unknown code err = %v, want INVITE_NOT_FOUND", err)
	}

	// Mark the stored invitation claimed and expired at once: expiry
	// wins, so a stale link never leaks claim state.
	stored := st.invites[inv.Code]
	claimedAt := testNow
	stored.ClaimedAt = &claimedAt

	afterExpiry := inv.ExpiresAt.Add(time.Minute)
	if _, err := svc.Verify(ctx, inv.Code, afterExpiry, false); !errors.Is(err, apperr.ErrInviteExpired) {
		t.Fatalf("expired+claimed err = %v, want INVITE_EXPIRED", err)
	}

	if _, err := svc.Verify(ctx, inv.Code, testNow, false); !errors.Is(err, apperr.ErrInviteAlreadyClaimed) {
		t.Fatalf("claimed err = %v, want INVITE_ALREADY_CLAIMED", err)
	}

	// The form-edit flow skips the claimed check.
	if _, err := svc.Verify(ctx, inv.Code, testNow, true); err != nil {
		t.Fatalf("skip-claimed verify: %v", err)
	}
}
