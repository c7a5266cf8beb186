package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/sistema-zara/zara-backend/controllers"
	"github.com/sistema-zara/zara-backend/middleware"
)

// RegisterMachineRoutes registers machine listing and status routes
func RegisterMachineRoutes(e *echo.Echo, machineController *controllers.MachineController) {
	machineGroup := e.Group("/api/machines")
	machineGroup.Use(middleware.JWTMiddleware())

	machineGroup.GET("", machineController.List)
	machineGroup.GET("/:id", machineController.Get)
	machineGroup.PUT("/:id/status", machineController.UpdateStatus)
}
