package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/makerspace-admin/internal/domain"
	apperrors "github.com/spec-kit/makerspace-admin/pkg/util/errorutil"
)

// roleRank orders roles so higher roles inherit lower capabilities:
// viewer -> list/get, maintainer -> + task patch/resolve, admin -> everything.
var roleRank = map[domain.StaffRole]int{
	domain.StaffRoleViewer:     1,
	domain.StaffRoleMaintainer: 2,
	domain.StaffRoleAdmin:      3,
}

// RequireStaffRole ensures the caller is staff with at least the given role.
// Visitor tokens are never accepted on staff routes.
func RequireStaffRole(minimum domain.StaffRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.SubjectType != domain.SubjectTypeStaff || principal.User == nil {
			return apperrors.NewForbidden("staff credentials required")
		}
		if roleRank[principal.User.Role] < roleRank[minimum] {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireVisitor ensures a visitor-pool principal is authenticated.
func RequireVisitor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeVisitor {
			return apperrors.NewForbidden("visitor credentials required")
		}
		return c.Next()
	}
}

// RequireAnyPrincipal ensures the caller is authenticated in either pool.
func RequireAnyPrincipal() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
