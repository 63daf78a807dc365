package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/selfservice/internal/api/http/handlers"
	"github.com/spec-kit/selfservice/internal/auth"
	"github.com/spec-kit/selfservice/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Products       *handlers.ProductsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes. Catalog reads are public; catalog
// mutations require the ADMIN role, profile updates require a login.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	users := authGroup.Group("/users", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	users.Put("/:id", cfg.Auth.UpdateUser)

	products := app.Group("/products")
	products.Get("/", cfg.Products.List)
	products.Get("/paged", cfg.Products.ListPaged)
	products.Get("/:id", cfg.Products.Get)

	catalogAdmin := products.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	catalogAdmin.Post("/", cfg.Products.Create)
	catalogAdmin.Put("/:id", cfg.Products.Update)
	catalogAdmin.Delete("/:id", cfg.Products.Delete)
}
