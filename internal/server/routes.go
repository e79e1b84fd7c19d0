package server

import (
	"github.com/labstack/echo/v4"

	"example.com/inventory-assistant/backend/internal/handlers"
)

func registerRoutes(
	e *echo.Echo,
	db handlers.Pinger,
	assistantHandler *handlers.AssistantHandler,
	eventStreamHandler *handlers.EventStreamHandler,
	adminHandler *handlers.AdminHandler,
	sessionMiddleware echo.MiddlewareFunc,
	adminMiddleware echo.MiddlewareFunc,
	aiRateLimiter echo.MiddlewareFunc,
) {
	e.GET("/health", handlers.Health)
	e.GET("/health/ready", handlers.Ready(db))

	api := e.Group("/api/v1")

	households := api.Group("/households/:householdId/assistant", sessionMiddleware)
	households.POST("/ask", assistantHandler.Ask, aiRateLimiter)
	households.GET("/events", eventStreamHandler.Stream)

	admin := api.Group("/admin/assistant", adminMiddleware)
	admin.GET("/events", adminHandler.ListEvents)
	admin.GET("/usage", adminHandler.Usage)
}
