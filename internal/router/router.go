package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/learning-platform/internal/auth"
	"github.com/iliyamo/learning-platform/internal/handler"
	"github.com/iliyamo/learning-platform/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the account lifecycle endpoints.  Unauthenticated
// operations live under /v1/auth; session-bound operations apply the
// authentication middleware per route.  The rate limiter guards the
// credential endpoints against brute force.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, authn echo.MiddlewareFunc, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limiter)
	g.POST("/register", a.Register)
	g.POST("/activate", a.Activate)
	g.POST("/login", a.Login)
	g.POST("/social", a.SocialAuth)
	// Refresh validates the session entry itself, so it stays outside
	// the authenticated group: an expired access token must not block
	// the rotation that would replace it.
	g.POST("/refresh", a.RefreshToken)

	e.GET("/v1/me", a.Me, authn)
	e.POST("/v1/logout", a.Logout, authn)
}

// RegisterUsers wires profile mutations and the admin user listing.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, authn echo.MiddlewareFunc) {
	g := e.Group("/v1/users", authn)
	g.POST("/update-user-info", u.UpdateInfo)
	g.PATCH("/update-password", u.UpdatePassword)
	g.PATCH("/update-avatar", u.UpdateAvatar)
	g.GET("", u.ListAll, middleware.RequireRole(auth.RoleAdmin))
}

// RegisterCourses wires the catalog, the enrolled-only content view
// and the Q&A / review threads.  Catalog reads are public.
func RegisterCourses(e *echo.Echo, c *handler.CourseHandler, authn echo.MiddlewareFunc) {
	admin := middleware.RequireRole(auth.RoleAdmin)

	e.GET("/v1/courses", c.GetAll)
	e.GET("/v1/courses/:id", c.GetSingle)
	e.GET("/v1/courses/:id/reviews", c.Reviews)

	g := e.Group("/v1/courses", authn)
	g.POST("", c.Create, admin)
	g.PUT("/:id", c.Update, admin)
	g.GET("/:id/content", c.GetContent)
	g.PUT("/add-question", c.AddQuestion)
	g.PUT("/add-answer", c.AddAnswer)
	g.PUT("/:id/review", c.AddReview)
	g.PUT("/add-reply", c.AddReviewReply, admin)
}

// RegisterOrders wires the purchase workflow.
func RegisterOrders(e *echo.Echo, o *handler.OrderHandler, authn echo.MiddlewareFunc) {
	g := e.Group("/v1/orders", authn)
	g.POST("", o.Create)
	g.GET("", o.ListAll, middleware.RequireRole(auth.RoleAdmin))
}

// RegisterNotifications wires the admin notification inbox.
func RegisterNotifications(e *echo.Echo, n *handler.NotificationHandler, authn echo.MiddlewareFunc) {
	g := e.Group("/v1/notifications", authn, middleware.RequireRole(auth.RoleAdmin))
	g.GET("", n.GetAll)
	g.PUT("/:id", n.MarkRead)
}
