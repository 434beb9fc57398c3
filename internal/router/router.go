package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/examhall/booking-api/internal/handler"
	"github.com/examhall/booking-api/internal/middleware"
	"github.com/examhall/booking-api/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance: the health check and the Prometheus
// metrics endpoint.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterPublic registers the applicant-facing endpoints: browsing
// shifts and creating a booking.  The booking endpoint carries the rate
// limiter so one client cannot flood the ticket allocator; rateLimit
// may be nil when limiting is disabled.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, rateLimit echo.MiddlewareFunc) {
	e.GET("/v1/shifts", p.ListShifts)
	if rateLimit != nil {
		e.POST("/v1/bookings", p.CreateBooking, rateLimit)
	} else {
		e.POST("/v1/bookings", p.CreateBooking)
	}
}

// RegisterAuth registers the admin authentication routes.
// Unauthenticated token operations live under /v1/auth; /v1/me requires
// a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	// Rotates the refresh token and returns a new pair.
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleSuperAdmin, model.RoleAdmin))
	auth.GET("/me", a.Me)
}

// RegisterAdmin registers the dashboard endpoints under /v1/admin.  All
// routes require a valid access token; the account management routes
// additionally require the super admin role.
func RegisterAdmin(e *echo.Echo, jwtSecret string,
	bookings *handler.AdminBookingHandler,
	shifts *handler.AdminShiftHandler,
	accounts *handler.AdminAccountHandler,
	stream *handler.StreamHandler,
) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleSuperAdmin, model.RoleAdmin))

	// Booking review and entry check.
	g.GET("/bookings", bookings.List)
	g.PATCH("/bookings/:id/status", bookings.UpdateStatus)
	g.DELETE("/bookings/:id", bookings.Delete)
	g.POST("/bookings/:id/attend", bookings.Attend)
	g.GET("/bookings/lookup", bookings.Lookup)
	g.GET("/stats", bookings.Stats)

	// Shift management.
	g.GET("/shifts", shifts.List)
	g.POST("/shifts", shifts.Create)
	g.PATCH("/shifts/:id", shifts.Update)
	g.DELETE("/shifts/:id", shifts.Delete)

	// Live dashboard stream: snapshot plus change events.
	g.GET("/stream", stream.Stream)

	// Account management is super admin only.
	su := g.Group("/admins")
	su.Use(middleware.RequireRole(model.RoleSuperAdmin))
	su.GET("", accounts.List)
	su.POST("", accounts.Create)
	su.DELETE("/:id", accounts.Delete)
}
