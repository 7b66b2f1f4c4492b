package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/makerspace-admin/internal/api/http/handlers"
	"github.com/spec-kit/makerspace-admin/internal/auth"
	"github.com/spec-kit/makerspace-admin/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health           *handlers.HealthHandler
	Auth             *handlers.AuthHandler
	Users            *handlers.UsersHandler
	Visitors         *handlers.VisitorsHandler
	Machines         *handlers.MachinesHandler
	Tasks            *handlers.TasksHandler
	Kiosk            *handlers.KioskHandler
	Admin            *handlers.AdminHandler
	AuthMiddleware   *auth.AuthMiddleware
	DeviceMiddleware *auth.DeviceMiddleware
}

// RegisterRoutes wires HTTP routes. Staff routes are role gated; kiosk
// routes authenticate with the device key instead of bearer tokens.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/staff/register", cfg.Auth.RegisterStaff)
	authGroup.Post("/staff/login", cfg.Auth.LoginStaff)
	authGroup.Post("/visitors/register", cfg.Auth.RegisterVisitor)
	authGroup.Post("/visitors/login", cfg.Auth.LoginVisitor)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyPrincipal())
	authProtected.Post("/password/change", cfg.Auth.ChangePassword)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireStaffRole(domain.StaffRoleAdmin))
	admin.Post("/tokens", cfg.Admin.IssueToken)
	admin.Post("/devices/:id/enroll", cfg.Admin.EnrollDevice)
	admin.Get("/devices", cfg.Admin.ListDevices)
	admin.Delete("/devices/:id", cfg.Admin.DeactivateDevice)

	users := app.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("/", auth.RequireStaffRole(domain.StaffRoleViewer), cfg.Users.List)
	users.Get("/:id", auth.RequireStaffRole(domain.StaffRoleViewer), cfg.Users.Get)
	users.Patch("/:id", auth.RequireStaffRole(domain.StaffRoleAdmin), cfg.Users.Patch)
	users.Delete("/:id", auth.RequireStaffRole(domain.StaffRoleAdmin), cfg.Users.Delete)

	visitors := app.Group("/visitors", cfg.AuthMiddleware.Handle)
	visitors.Post("/", auth.RequireStaffRole(domain.StaffRoleAdmin), cfg.Visitors.Create)
	visitors.Get("/", auth.RequireStaffRole(domain.StaffRoleViewer), cfg.Visitors.List)
	visitors.Get("/:hardware_id", auth.RequireStaffRole(domain.StaffRoleViewer), cfg.Visitors.Get)
	visitors.Get("/:hardware_id/visits", auth.RequireStaffRole(domain.StaffRoleViewer), cfg.Visitors.ListVisits)
	visitors.Delete("/:hardware_id/visits", auth.RequireStaffRole(domain.StaffRoleAdmin), cfg.Visitors.PurgeVisits)

	app.Get("/visits", cfg.AuthMiddleware.Handle, auth.RequireStaffRole(domain.StaffRoleViewer), cfg.Visitors.ListAllVisits)

	machines := app.Group("/machines", cfg.AuthMiddleware.Handle)
	machines.Get("/", auth.RequireStaffRole(domain.StaffRoleViewer), cfg.Machines.List)
	machines.Post("/", auth.RequireStaffRole(domain.StaffRoleAdmin), cfg.Machines.Create)
	machines.Delete("/:name", auth.RequireStaffRole(domain.StaffRoleAdmin), cfg.Machines.Delete)

	tasks := app.Group("/tasks", cfg.AuthMiddleware.Handle)
	tasks.Get("/", auth.RequireStaffRole(domain.StaffRoleViewer), cfg.Tasks.List)
	tasks.Post("/", auth.RequireStaffRole(domain.StaffRoleMaintainer), cfg.Tasks.Create)
	tasks.Get("/:id", auth.RequireStaffRole(domain.StaffRoleViewer), cfg.Tasks.Get)
	tasks.Get("/:id/history", auth.RequireStaffRole(domain.StaffRoleViewer), cfg.Tasks.History)
	tasks.Patch("/:id", auth.RequireStaffRole(domain.StaffRoleMaintainer), cfg.Tasks.Patch)
	tasks.Post("/:id/resolve", auth.RequireStaffRole(domain.StaffRoleMaintainer), cfg.Tasks.Resolve)

	kiosk := app.Group("/kiosk", cfg.DeviceMiddleware.Handle)
	kiosk.Post("/signin", cfg.Kiosk.SignIn)
	kiosk.Post("/signout", cfg.Kiosk.SignOut)
}
