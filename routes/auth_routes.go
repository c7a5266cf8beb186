package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/sistema-zara/zara-backend/controllers"
	"github.com/sistema-zara/zara-backend/middleware"
)

// RegisterAuthRoutes sets up authentication and session routes
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController) {
	// Public authentication routes
	e.POST("/api/auth/login", authController.Login)
	e.POST("/api/auth/remember-me", authController.LoginWithRememberMe)
	e.POST("/api/auth/refresh-token", authController.RefreshToken)
	e.GET("/api/auth/validate-token", authController.ValidateSession)

	// Authenticated session routes
	authGroup := e.Group("/api/auth")
	authGroup.Use(middleware.JWTMiddleware())
	authGroup.POST("/logout", authController.Logout)
	authGroup.GET("/me", authController.GetCurrentUser)
}
