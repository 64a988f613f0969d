// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"credvault/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AccountHandler  *handler.AccountHandler
	RecoveryHandler *handler.RecoveryHandler
}

// router holds all the handlers that need to be registered.
type router struct {
	accountHandler  *handler.AccountHandler
	recoveryHandler *handler.RecoveryHandler
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		accountHandler:  params.AccountHandler,
		recoveryHandler: params.RecoveryHandler,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Auth routes
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/register", r.accountHandler.Register)
		authGroup.POST("/login", r.accountHandler.Login)
		authGroup.POST("/forgot-password", r.recoveryHandler.ForgotPassword)
		authGroup.GET("/reset-password", r.recoveryHandler.ValidateToken)
		authGroup.POST("/reset-password", r.recoveryHandler.ResetPassword)
	}
}
