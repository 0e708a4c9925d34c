package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk/internal/api/http/handlers"
	"github.com/deskflow/helpdesk/internal/auth"
	"github.com/deskflow/helpdesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Catalog        *handlers.CatalogHandler
	Chatbot        *handlers.ChatbotHandler
	Notifications  *handlers.NotificationsHandler
	Realtime       *handlers.RealtimeHandler
	Stats          *handlers.StatsHandler
	Availability   *handlers.AvailabilityHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	if cfg.Realtime != nil {
		app.Get("/ws", cfg.Realtime.Upgrade, cfg.Realtime.Serve())
	}

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	adminOnly := auth.RequireRole(domain.RoleAdmin)

	api.Get("/me", cfg.Auth.Me)
	api.Put("/me/password", cfg.Auth.ChangePassword)
	api.Get("/me/profile", cfg.Users.Profile)
	api.Put("/me/profile", cfg.Users.UpdateProfile)
	api.Post("/me/avatar", cfg.Users.UploadAvatar)

	users := api.Group("/users")
	users.Post("/", adminOnly, cfg.Auth.CreateUser)
	users.Get("/", adminOnly, cfg.Users.ListUsers)
	users.Get("/:id", cfg.Users.GetUser)
	users.Put("/:id", adminOnly, cfg.Users.UpdateUser)
	users.Delete("/:id", adminOnly, cfg.Users.DeleteUser)
	users.Get("/:id/availability", cfg.Availability.ForUser)

	avail := api.Group("/availability")
	avail.Get("/", cfg.Availability.Mine)
	avail.Put("/", cfg.Availability.Replace)
	avail.Post("/slots", cfg.Availability.AddSlot)
	avail.Delete("/slots/:id", cfg.Availability.RemoveSlot)

	stats := api.Group("/stats")
	stats.Get("/", adminOnly, cfg.Stats.Dashboard)
	stats.Get("/agent", auth.RequireRole(domain.RoleAgent), cfg.Stats.AgentStats)

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Put("/:id/assign", adminOnly, cfg.Tickets.AssignAgent)
	tickets.Put("/:id/close", cfg.Tickets.CloseTicket)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Patch("/:id/comments/:cid", cfg.Tickets.UpdateComment)
	tickets.Delete("/:id/comments/:cid", cfg.Tickets.DeleteComment)
	tickets.Post("/:id/files", cfg.Tickets.UploadFile)

	chat := api.Group("/chatbot")
	chat.Post("/detect-category", cfg.Chatbot.DetectCategory)
	chat.Post("/response", cfg.Chatbot.Respond)
	chat.Post("/auto", cfg.Chatbot.AutoChat)

	depts := api.Group("/departments")
	depts.Get("/", cfg.Catalog.ListDepartments)
	depts.Get("/:id", cfg.Catalog.GetDepartment)
	depts.Get("/:id/agents", cfg.Catalog.DepartmentAgents)
	depts.Get("/:id/categories", cfg.Catalog.DepartmentCategories)
	depts.Post("/", adminOnly, cfg.Catalog.CreateDepartment)
	depts.Put("/:id", adminOnly, cfg.Catalog.UpdateDepartment)
	depts.Delete("/:id", adminOnly, cfg.Catalog.DeleteDepartment)

	cats := api.Group("/categories")
	cats.Get("/", cfg.Catalog.ListCategories)
	cats.Get("/:id", cfg.Catalog.GetCategory)
	cats.Get("/:id/solutions", cfg.Catalog.CategorySolutions)
	cats.Post("/", adminOnly, cfg.Catalog.CreateCategory)
	cats.Put("/:id", adminOnly, cfg.Catalog.UpdateCategory)
	cats.Delete("/:id", adminOnly, cfg.Catalog.DeleteCategory)

	sols := api.Group("/solutions")
	sols.Get("/:id", cfg.Catalog.GetSolution)
	sols.Post("/", adminOnly, cfg.Catalog.CreateSolution)
	sols.Put("/:id", adminOnly, cfg.Catalog.UpdateSolution)
	sols.Delete("/:id", adminOnly, cfg.Catalog.DeleteSolution)

	notes := api.Group("/notifications")
	notes.Get("/", cfg.Notifications.List)
	notes.Put("/read-all", cfg.Notifications.MarkAllRead)
	notes.Put("/:id/read", cfg.Notifications.MarkRead)
}
