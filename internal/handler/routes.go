package handler

import (
	"github.com/elton-creator/crm-system-v2/internal/middleware"

	"github.com/labstack/echo/v4"
)

// Register mounts every route of the service on the given Echo instance.
func Register(e *echo.Echo) {
	// Public routes - no authentication required
	e.GET("/health", HealthCheck)
	e.GET("/metrics", MetricsHandler)

	auth := e.Group("/auth")
	auth.POST("/login", Login)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	api.GET("/auth/me", Me)

	// User management - admin only, unscoped
	users := api.Group("/users")
	users.Use(middleware.RequireAdmin)
	users.GET("", ListUsers)
	users.POST("", CreateUser)
	users.PATCH("/:id/status", UpdateUserStatus)
	users.DELETE("/:id", DeleteUser)

	// Tenant-scoped CRM resources
	origins := api.Group("/origins")
	origins.GET("", ListOrigins)
	origins.POST("", CreateOrigin)
	origins.PUT("/:id", UpdateOrigin)
	origins.DELETE("/:id", DeleteOrigin)

	funnels := api.Group("/funnels")
	funnels.GET("", ListFunnels)
	funnels.GET("/:id", GetFunnel)
	funnels.POST("", CreateFunnel)
	funnels.PUT("/:id", UpdateFunnel)
	funnels.DELETE("/:id", DeleteFunnel)

	leads := api.Group("/leads")
	leads.GET("", ListLeads)
	leads.GET("/:id", GetLead)
	leads.POST("", CreateLead)
	leads.PUT("/:id", UpdateLead)
	leads.DELETE("/:id", DeleteLead)
	leads.GET("/:id/history", GetLeadHistory)
}
