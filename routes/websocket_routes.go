package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sistema-zara/zara-backend/middleware"
	"github.com/sistema-zara/zara-backend/models"
	"github.com/sistema-zara/zara-backend/websocket"
)

// RegisterWebSocketRoutes registers the realtime notification endpoint
func RegisterWebSocketRoutes(e *echo.Echo, hub *websocket.Hub) {
	wsGroup := e.Group("/api/ws")
	wsGroup.Use(middleware.JWTMiddleware())

	wsGroup.GET("", func(c echo.Context) error {
		claims := middleware.GetUserFromToken(c)
		if claims == nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Unauthorized",
			})
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid user ID",
			})
		}

		return websocket.HandleWebSocket(c, hub, userID, claims.Role)
	})
}
