package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Rohit5932/consult-smart-portal/internal/api/http/handlers"
	"github.com/Rohit5932/consult-smart-portal/internal/domain"
	"github.com/Rohit5932/consult-smart-portal/internal/guard"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Records  *handlers.RecordsHandler
	Requests *handlers.RequestsHandler
	Profiles *handlers.ProfilesHandler
	Guard    *guard.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.SignUp)
	authGroup.Post("/signin", cfg.Auth.SignIn)
	authGroup.Post("/otp/send", cfg.Auth.SendOTP)
	authGroup.Post("/otp/verify", cfg.Auth.VerifyOTP)
	authGroup.Get("/oauth/:provider", cfg.Auth.OAuthRedirect)
	authGroup.Post("/password/reset", cfg.Auth.ResetPassword)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)
	authGroup.Post("/signout", cfg.Auth.SignOut)
	authGroup.Get("/session", cfg.Guard.Resolve, cfg.Auth.Session)

	portal := app.Group("/portal", cfg.Guard.Resolve, cfg.Guard.Require(""))
	portal.Get("/:kind", cfg.Records.List)
	portal.Post("/:kind", cfg.Records.Create)
	portal.Patch("/:kind/:id/status", cfg.Records.UpdateStatus)
	portal.Get("/:kind/export", cfg.Guard.Require(domain.RoleAdmin), cfg.Records.Export)

	admin := app.Group("/admin", cfg.Guard.Resolve, cfg.Guard.Require(domain.RoleAdmin))
	admin.Get("/profiles/:id", cfg.Profiles.Get)
	admin.Patch("/profiles/:id/role", cfg.Profiles.UpdateRole)

	requests := app.Group("/requests", cfg.Guard.Resolve)
	requests.Post("/", cfg.Requests.Create)
	requests.Get("/mine", cfg.Guard.Require(""), cfg.Requests.ListMine)
	requests.Get("/", cfg.Guard.Require(domain.RoleAdmin), cfg.Requests.List)
	requests.Patch("/:id/status", cfg.Guard.Require(domain.RoleAdmin), cfg.Requests.UpdateStatus)
}
