package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/sistema-zara/zara-backend/controllers"
	"github.com/sistema-zara/zara-backend/middleware"
	"github.com/sistema-zara/zara-backend/models"
)

// RegisterSchedulerRoutes registers job control routes, admin only
func RegisterSchedulerRoutes(e *echo.Echo, schedulerController *controllers.SchedulerController) {
	schedulerGroup := e.Group("/api/scheduler")
	schedulerGroup.Use(middleware.JWTMiddleware())
	schedulerGroup.Use(middleware.RequireRole(models.RoleAdmin))

	schedulerGroup.GET("/jobs", schedulerController.Status)
	schedulerGroup.POST("/jobs/:name/start", schedulerController.Start)
	schedulerGroup.POST("/jobs/:name/stop", schedulerController.Stop)
}
