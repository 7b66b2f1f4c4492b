package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/makerspace-admin/internal/config"
	"github.com/spec-kit/makerspace-admin/internal/repository"
)

func newVisitorFixture(t *testing.T) (*VisitorService, *SessionService) {
	t.Helper()
	visitors := newFakeVisitorRepo()
	visits := newFakeVisitRepo()
	cfg := config.Config{}
	cfg.Session.AutoProvision = true
	sessions := NewSessionService(cfg, SessionDependencies{
		VisitorRepo: visitors,
		VisitRepo:   visits,
	})
	return NewVisitorService(visitors, visits), sessions
}

func TestCreateVisitorIsIdempotent(t *testing.T) {
	svc, _ := newVisitorFixture(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, "badge-1", "Robin", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := svc.Create(ctx, "badge-1", "Someone Else", nil)
	if err != nil {
		t.Fatalf("repeat create: %v", err)
	}
	if second.DisplayName != first.DisplayName {
		t.Fatalf("repeat create changed record: %q vs %q", second.DisplayName, first.DisplayName)
	}

	all, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("visitor count = %d, want 1", len(all))
	}
}

func TestCreateVisitorDefaultsDisplayName(t *testing.T) {
	svc, _ := newVisitorFixture(t)

	visitor, err := svc.Create(context.Background(), "badge-1", "", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if visitor.DisplayName != "badge-1" {
		t.Fatalf("display name = %q, want hardware id fallback", visitor.DisplayName)
	}
}

func TestListVisitsWindow(t *testing.T) {
	svc, sessions := newVisitorFixture(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		stamp := base.Add(time.Duration(i) * time.Hour)
		sessions.now = func() time.Time { return stamp }
		if _, err := sessions.SignIn(ctx, "badge-1", "kiosk-a", nil); err != nil {
			t.Fatalf("sign in %d: %v", i, err)
		}
		if _, err := sessions.SignOut(ctx, "badge-1"); err != nil {
			t.Fatalf("sign out %d: %v", i, err)
		}
	}

	since := base.Add(30 * time.Minute)
	until := base.Add(90 * time.Minute)
	visits, err := svc.ListVisits(ctx, "badge-1", repository.VisitWindow{Since: &since, Until: &until})
	if err != nil {
		t.Fatalf("list visits: %v", err)
	}
	if len(visits) != 1 {
		t.Fatalf("windowed visits = %d, want 1", len(visits))
	}
	if !visits[0].SignInTime.Equal(base.Add(time.Hour)) {
		t.Fatalf("wrong visit selected: %v", visits[0].SignInTime)
	}
}

func TestListVisitsUnknownVisitor(t *testing.T) {
	svc, _ := newVisitorFixture(t)

	_, err := svc.ListVisits(context.Background(), "stranger", repository.VisitWindow{})
	if code := errCode(t, err); code != "NOT_FOUND" {
		t.Fatalf("code = %s, want NOT_FOUND", code)
	}
}

func TestPurgeVisitsKeepsVisitor(t *testing.T) {
	svc, sessions := newVisitorFixture(t)
	ctx := context.Background()

	if _, err := sessions.SignIn(ctx, "badge-1", "kiosk-a", nil); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if err := svc.PurgeVisits(ctx, "badge-1"); err != nil {
		t.Fatalf("purge: %v", err)
	}

	visits, _ := svc.ListVisits(ctx, "badge-1", repository.VisitWindow{})
	if len(visits) != 0 {
		t.Fatalf("visits = %d after purge, want 0", len(visits))
	}
	if _, err := svc.Get(ctx, "badge-1"); err != nil {
		t.Fatalf("visitor removed by purge: %v", err)
	}
}
