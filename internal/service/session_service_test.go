package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/makerspace-admin/internal/config"
	"github.com/spec-kit/makerspace-admin/internal/domain"
	"github.com/spec-kit/makerspace-admin/internal/events"
	"github.com/spec-kit/makerspace-admin/internal/repository"
	apperrors "github.com/spec-kit/makerspace-admin/pkg/util/errorutil"
)

func newSessionFixture(t *testing.T, autoProvision bool) (*SessionService, *fakeVisitorRepo, *fakeVisitRepo) {
	t.Helper()
	visitors := newFakeVisitorRepo()
	visits := newFakeVisitRepo()
	cfg := config.Config{}
	cfg.Session.AutoProvision = autoProvision
	svc := NewSessionService(cfg, SessionDependencies{
		VisitorRepo: visitors,
		VisitRepo:   visits,
		Dispatcher:  events.NewInMemoryDispatcher(),
	})
	return svc, visitors, visits
}

func enrollVisitor(t *testing.T, visitors *fakeVisitorRepo, hardwareID string) {
	t.Helper()
	if _, err := visitors.Create(context.Background(), &domain.Visitor{
		HardwareID:  hardwareID,
		DisplayName: "Visitor " + hardwareID,
	}); err != nil {
		t.Fatalf("enroll visitor: %v", err)
	}
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	return apperrors.ToDomainError(err).Code
}

func TestSignInOpensVisit(t *testing.T) {
	svc, visitors, visits := newSessionFixture(t, false)
	enrollVisitor(t, visitors, "badge-1")

	machine := "laser-cutter"
	result, err := svc.SignIn(context.Background(), "badge-1", "kiosk-a", &machine)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if result.Visit == nil || result.Visit.SignOutTime != nil {
		t.Fatalf("expected open visit, got %+v", result.Visit)
	}
	if result.Visit.KioskID != "kiosk-a" {
		t.Fatalf("kiosk id = %q, want kiosk-a", result.Visit.KioskID)
	}
	if result.AutoClosed || result.Provisioned {
		t.Fatalf("unexpected flags: %+v", result)
	}
	if _, err := visits.GetOpenVisit(context.Background(), "badge-1"); err != nil {
		t.Fatalf("open visit not stored: %v", err)
	}
}

func TestSignInUnknownVisitorRejected(t *testing.T) {
	svc, _, _ := newSessionFixture(t, false)

	_, err := svc.SignIn(context.Background(), "stranger", "kiosk-a", nil)
	if code := errCode(t, err); code != "UNKNOWN_VISITOR" {
		t.Fatalf("code = %s, want UNKNOWN_VISITOR", code)
	}
}

func TestSignInAutoProvisionCreatesVisitor(t *testing.T) {
	svc, visitors, _ := newSessionFixture(t, true)

	result, err := svc.SignIn(context.Background(), "new-badge", "kiosk-a", nil)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if !result.Provisioned {
		t.Fatal("expected provisioned result")
	}
	visitor, err := visitors.GetByHardwareID(context.Background(), "new-badge")
	if err != nil {
		t.Fatalf("visitor not created: %v", err)
	}
	if visitor.DisplayName != "new-badge" {
		t.Fatalf("display name = %q, want hardware id", visitor.DisplayName)
	}
}

func TestSignInWhileSignedInAutoCloses(t *testing.T) {
	svc, visitors, visits := newSessionFixture(t, false)
	enrollVisitor(t, visitors, "badge-1")

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	if _, err := svc.SignIn(context.Background(), "badge-1", "kiosk-a", nil); err != nil {
		t.Fatalf("first sign in: %v", err)
	}

	later := base.Add(200 * time.Second)
	svc.now = func() time.Time { return later }
	result, err := svc.SignIn(context.Background(), "badge-1", "kiosk-b", nil)
	if err != nil {
		t.Fatalf("second sign in: %v", err)
	}
	if !result.AutoClosed {
		t.Fatal("expected auto-closed previous visit")
	}

	all, _ := visits.ListForVisitor(context.Background(), "badge-1", repository.VisitWindow{})
	if len(all) != 2 {
		t.Fatalf("visit count = %d, want 2", len(all))
	}
	closed := all[0]
	if closed.SignOutTime == nil {
		t.Fatal("previous visit not closed")
	}
	if !closed.SignOutTime.Equal(later) {
		t.Fatalf("close stamp = %v, want %v", closed.SignOutTime, later)
	}
	if !result.Visit.SignInTime.Equal(later) {
		t.Fatalf("new sign-in stamp = %v, want %v", result.Visit.SignInTime, later)
	}
	if result.Visit.KioskID != "kiosk-b" {
		t.Fatalf("kiosk id = %q, want kiosk-b", result.Visit.KioskID)
	}
}

func TestSignOutClosesVisit(t *testing.T) {
	svc, visitors, _ := newSessionFixture(t, false)
	enrollVisitor(t, visitors, "badge-1")

	if _, err := svc.SignIn(context.Background(), "badge-1", "kiosk-a", nil); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	result, err := svc.SignOut(context.Background(), "badge-1")
	if err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if !result.SignedIn {
		t.Fatal("expected a closed visit")
	}
	if result.Visit == nil || result.Visit.SignOutTime == nil {
		t.Fatalf("visit not stamped: %+v", result.Visit)
	}
}

func TestSignOutWhileSignedOutIsNoOp(t *testing.T) {
	svc, visitors, visits := newSessionFixture(t, false)
	enrollVisitor(t, visitors, "badge-1")

	for i := 0; i < 3; i++ {
		result, err := svc.SignOut(context.Background(), "badge-1")
		if err != nil {
			t.Fatalf("sign out %d: %v", i, err)
		}
		if result.SignedIn {
			t.Fatalf("sign out %d reported a closed visit", i)
		}
	}
	all, _ := visits.ListForVisitor(context.Background(), "badge-1", repository.VisitWindow{})
	if len(all) != 0 {
		t.Fatalf("visit count = %d, want 0", len(all))
	}
}

func TestSignOutUnknownVisitorRejected(t *testing.T) {
	svc, _, _ := newSessionFixture(t, false)

	_, err := svc.SignOut(context.Background(), "stranger")
	if code := errCode(t, err); code != "UNKNOWN_VISITOR" {
		t.Fatalf("code = %s, want UNKNOWN_VISITOR", code)
	}
}

func TestConcurrentSignInsConvergeOnOneOpenVisit(t *testing.T) {
	svc, visitors, visits := newSessionFixture(t, false)
	enrollVisitor(t, visitors, "badge-1")

	const racers = 8
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.SignIn(context.Background(), "badge-1", "kiosk-a", nil)
			if err != nil {
				t.Errorf("sign in: %v", err)
				return
			}
			if result.Visit == nil {
				t.Error("sign in returned no visit")
			}
		}()
	}
	wg.Wait()

	open := 0
	all, _ := visits.ListForVisitor(context.Background(), "badge-1", repository.VisitWindow{})
	for _, visit := range all {
		if visit.SignOutTime == nil {
			open++
		}
	}
	if open != 1 {
		t.Fatalf("open visits = %d, want exactly 1", open)
	}
}
