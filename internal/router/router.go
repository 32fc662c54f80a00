// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/avolkov/finance-tracker/internal/handler"
	"github.com/avolkov/finance-tracker/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the four session-mutating endpoints.  None of them
// sit behind the auth gate: register/login create sessions, and
// refresh/logout authenticate by refresh token, not by access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/api")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
}

// RegisterFinance registers the protected resource endpoints behind the auth
// gate.  GET endpoints additionally pass through the response cache.
func RegisterFinance(e *echo.Echo, gate echo.MiddlewareFunc, cache *middleware.Cache,
	tx *handler.TransactionHandler, goals *handler.GoalHandler, budget *handler.BudgetHandler) {

	g := e.Group("/api", gate, cache.Middleware())

	g.GET("/transactions", tx.List)
	g.POST("/transactions", tx.Create)
	g.GET("/transactions/:id", tx.Get)
	g.PUT("/transactions/:id", tx.Update)
	g.DELETE("/transactions/:id", tx.Delete)

	g.GET("/goals", goals.List)
	g.POST("/goals", goals.Create)
	g.GET("/goals/:id", goals.Get)
	g.PUT("/goals/:id", goals.Update)
	g.POST("/goals/:id/deposit", goals.Deposit)
	g.DELETE("/goals/:id", goals.Delete)

	g.GET("/budget", budget.Get)
	g.PUT("/budget", budget.Put)
}
