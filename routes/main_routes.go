package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/sistema-zara/zara-backend/controllers"
	"github.com/sistema-zara/zara-backend/websocket"
)

// Controllers bundles the controllers wired up in main
type Controllers struct {
	Auth          *controllers.AuthController
	Notifications *controllers.NotificationController
	Machines      *controllers.MachineController
	QualityTests  *controllers.QualityTestController
	Teflon        *controllers.TeflonController
	Scheduler     *controllers.SchedulerController
}

// SetupRoutes configures all API routes by calling individual route registration functions
func SetupRoutes(e *echo.Echo, hub *websocket.Hub, ctrl Controllers) {
	RegisterAuthRoutes(e, ctrl.Auth)
	RegisterNotificationRoutes(e, ctrl.Notifications)
	RegisterMachineRoutes(e, ctrl.Machines)
	RegisterProductionRoutes(e, ctrl.QualityTests, ctrl.Teflon)
	RegisterSchedulerRoutes(e, ctrl.Scheduler)
	RegisterWebSocketRoutes(e, hub)
}
