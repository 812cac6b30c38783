// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"accounts/internal/delivery/http/middleware"
	"accounts/internal/delivery/http/router/handler"
	"accounts/internal/domain/entity"
)

// RouterParams holds everything the router wires into Echo.
type RouterParams struct {
	fx.In

	UserHandler         *handler.UserHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RequestIDMiddleware *middleware.RequestIDMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	userHandler         *handler.UserHandler
	authMiddleware      *middleware.AuthMiddleware
	requestIDMiddleware *middleware.RequestIDMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		userHandler:         params.UserHandler,
		authMiddleware:      params.AuthMiddleware,
		requestIDMiddleware: params.RequestIDMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.Use(r.requestIDMiddleware.Process)

	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Public account workflows: registration, email verification and the
	// password reset pair.
	public := e.Group("/users")
	{
		public.POST("", r.userHandler.CreateUser)
		public.GET("/email-verification", r.userHandler.VerifyEmail)
		public.POST("/password-reset-request", r.userHandler.RequestPasswordReset)
		public.POST("/password-reset", r.userHandler.ResetPassword)
		public.POST("/login", r.userHandler.Login)
		public.POST("/refresh-token", r.userHandler.RefreshToken)
		public.POST("/logout", r.userHandler.Logout)
	}

	// Account management requires a valid access token.
	protected := e.Group("/users")
	protected.Use(r.authMiddleware.Authenticate)
	{
		protected.GET("", r.userHandler.ListUsers)
		protected.GET("/:userId", r.userHandler.GetUser)
		protected.PUT("/:userId", r.userHandler.UpdateUser)
		protected.DELETE("/:userId", r.userHandler.DeleteUser)
	}

	// Maintenance endpoints require the admin role on top of authentication.
	admin := e.Group("/admin")
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(r.authMiddleware.RequireRole(entity.RoleAdmin))
	{
		admin.POST("/sessions/cleanup", r.userHandler.CleanupSessions)
	}
}
