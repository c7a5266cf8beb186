package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/sistema-zara/zara-backend/controllers"
	"github.com/sistema-zara/zara-backend/middleware"
	"github.com/sistema-zara/zara-backend/models"
)

// RegisterProductionRoutes registers quality test and teflon change routes
func RegisterProductionRoutes(e *echo.Echo, qualityTestController *controllers.QualityTestController, teflonController *controllers.TeflonController) {
	testGroup := e.Group("/api/quality-tests")
	testGroup.Use(middleware.JWTMiddleware())
	testGroup.POST("", qualityTestController.Create)
	testGroup.GET("/summary", qualityTestController.Summary, middleware.RequireRole(models.LeadershipRoles...))

	teflonGroup := e.Group("/api/teflon-changes")
	teflonGroup.Use(middleware.JWTMiddleware())
	teflonGroup.POST("", teflonController.Create)
}
