package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/sistema-zara/zara-backend/controllers"
	"github.com/sistema-zara/zara-backend/middleware"
	"github.com/sistema-zara/zara-backend/models"
)

// RegisterNotificationRoutes registers all notification-related routes
func RegisterNotificationRoutes(e *echo.Echo, notificationController *controllers.NotificationController) {
	notificationGroup := e.Group("/api/notifications")
	notificationGroup.Use(middleware.JWTMiddleware())

	// Manual dispatch is reserved for leadership
	notificationGroup.POST("", notificationController.Create, middleware.RequireRole(models.LeadershipRoles...))

	notificationGroup.GET("", notificationController.List)
	notificationGroup.PUT("/read-all", notificationController.MarkAllRead)
	notificationGroup.PUT("/:id/read", notificationController.MarkRead)
	notificationGroup.DELETE("/:id", notificationController.Delete)

	// Delivery preference endpoints
	userGroup := e.Group("/api/users")
	userGroup.Use(middleware.JWTMiddleware())
	userGroup.PUT("/fcm-token", notificationController.UpdateFCMToken)
	userGroup.PUT("/notification-prefs", notificationController.UpdatePreferences)
}
