package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/makerspace-admin/internal/domain"
	apperrors "github.com/spec-kit/makerspace-admin/pkg/util/errorutil"
)

func newRoleTestApp(guard fiber.Handler, principal *Principal) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if principal != nil {
			c.Locals(principalKey, principal)
		}
		if err := c.Next(); err != nil {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": domainErr})
		}
		return nil
	})
	app.Get("/guarded", guard, func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	return app
}

func staffPrincipal(role domain.StaffRole) *Principal {
	return &Principal{
		SubjectType: domain.SubjectTypeStaff,
		User:        &domain.User{ID: "u-1", Email: "staff@example.org", Role: role},
	}
}

func guardedStatus(t *testing.T, app *fiber.App) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestRequireStaffRoleLadder(t *testing.T) {
	cases := []struct {
		name    string
		minimum domain.StaffRole
		caller  domain.StaffRole
		want    int
	}{
		{"viewer meets viewer", domain.StaffRoleViewer, domain.StaffRoleViewer, http.StatusOK},
		{"viewer below maintainer", domain.StaffRoleMaintainer, domain.StaffRoleViewer, http.StatusForbidden},
		{"maintainer meets maintainer", domain.StaffRoleMaintainer, domain.StaffRoleMaintainer, http.StatusOK},
		{"maintainer below admin", domain.StaffRoleAdmin, domain.StaffRoleMaintainer, http.StatusForbidden},
		{"admin meets everything", domain.StaffRoleViewer, domain.StaffRoleAdmin, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newRoleTestApp(RequireStaffRole(tc.minimum), staffPrincipal(tc.caller))
			if got := guardedStatus(t, app); got != tc.want {
				t.Fatalf("status = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRequireStaffRoleRejectsVisitors(t *testing.T) {
	principal := &Principal{
		SubjectType: domain.SubjectTypeVisitor,
		Visitor:     &domain.Visitor{HardwareID: "badge-1", DisplayName: "badge-1"},
	}
	app := newRoleTestApp(RequireStaffRole(domain.StaffRoleViewer), principal)
	if got := guardedStatus(t, app); got != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", got, http.StatusForbidden)
	}
}

func TestRequireStaffRoleRequiresAuthentication(t *testing.T) {
	app := newRoleTestApp(RequireStaffRole(domain.StaffRoleViewer), nil)
	if got := guardedStatus(t, app); got != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", got, http.StatusUnauthorized)
	}
}

func TestRequireVisitor(t *testing.T) {
	visitor := &Principal{
		SubjectType: domain.SubjectTypeVisitor,
		Visitor:     &domain.Visitor{HardwareID: "badge-2", DisplayName: "badge-2"},
	}
	app := newRoleTestApp(RequireVisitor(), visitor)
	if got := guardedStatus(t, app); got != http.StatusOK {
		t.Fatalf("status = %d, want %d", got, http.StatusOK)
	}

	app = newRoleTestApp(RequireVisitor(), staffPrincipal(domain.StaffRoleAdmin))
	if got := guardedStatus(t, app); got != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", got, http.StatusForbidden)
	}
}

func TestRequireAnyPrincipal(t *testing.T) {
	app := newRoleTestApp(RequireAnyPrincipal(), staffPrincipal(domain.StaffRoleViewer))
	if got := guardedStatus(t, app); got != http.StatusOK {
		t.Fatalf("status = %d, want %d", got, http.StatusOK)
	}

	app = newRoleTestApp(RequireAnyPrincipal(), nil)
	if got := guardedStatus(t, app); got != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", got, http.StatusUnauthorized)
	}
}
