package controllers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sistema-zara/zara-backend/middleware"
	"github.com/sistema-zara/zara-backend/models"
	"github.com/sistema-zara/zara-backend/repositories"
	"github.com/sistema-zara/zara-backend/services"
)

type NotificationController struct {
	service *services.NotificationService
	users   repositories.UserStore
}

func NewNotificationController(service *services.NotificationService, users repositories.UserStore) *NotificationController {
	return &NotificationController{service: service, users: users}
}

// serviceError maps service errors onto HTTP responses. Delivery failures
// never reach this point, the service logs them internally.
func serviceError(c echo.Context, err error) error {
	if services.IsValidationError(err) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}
	if services.IsNotFoundError(err) {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: err.Error(),
		})
	}
	log.Printf("Notification service error: %v", err)
	return c.JSON(http.StatusInternalServerError, models.Response{
		Status:  http.StatusInternalServerError,
		Message: "Internal server error",
	})
}

func requestingUserID(c echo.Context) (primitive.ObjectID, bool) {
	claims := middleware.GetUserFromToken(c)
	if claims == nil {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// Create dispatches a notification to a user, a set of roles, or everyone
func (nc *NotificationController) Create(c echo.Context) error {
	var req models.CreateNotificationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	notifications, err := nc.service.CreateAndDispatch(c.Request().Context(), req)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Notification created successfully",
		Data: map[string]interface{}{
			"recipients": len(notifications),
		},
	})
}

// List returns the authenticated user's notifications, newest first
func (nc *NotificationController) List(c echo.Context) error {
	userID, ok := requestingUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	filter := models.NotificationFilter{
		Type:     c.QueryParam("type"),
		Priority: c.QueryParam("priority"),
	}
	if raw := c.QueryParam("isRead"); raw != "" {
		isRead, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid isRead value",
			})
		}
		filter.IsRead = &isRead
	}

	list, err := nc.service.ListForUser(c.Request().Context(), userID, filter, page, limit)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Notifications retrieved successfully",
		Data:    list,
	})
}

// MarkRead marks a single notification as read
func (nc *NotificationController) MarkRead(c echo.Context) error {
	userID, ok := requestingUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	notificationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid notification ID",
		})
	}

	notification, err := nc.service.MarkRead(c.Request().Context(), notificationID, userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Notification marked as read",
		Data:    notification,
	})
}

// MarkAllRead marks every unread notification of the user as read
func (nc *NotificationController) MarkAllRead(c echo.Context) error {
	userID, ok := requestingUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	count, err := nc.service.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "All notifications marked as read",
		Data: map[string]interface{}{
			"updated": count,
		},
	})
}

// Delete removes one of the user's notifications
func (nc *NotificationController) Delete(c echo.Context) error {
	userID, ok := requestingUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	notificationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid notification ID",
		})
	}

	if err := nc.service.Delete(c.Request().Context(), notificationID, userID); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Notification deleted successfully",
	})
}

// UpdateFCMToken updates the device token used for push delivery
func (nc *NotificationController) UpdateFCMToken(c echo.Context) error {
	userID, ok := requestingUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var req models.FCMTokenUpdateRequest
	if err := c.Bind(&req); err != nil || req.FCMToken == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := nc.users.UpdateFCMToken(ctx, userID, req.FCMToken); err != nil {
		log.Printf("Error updating FCM token: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update FCM token",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "FCM token updated",
	})
}

// UpdatePreferences updates the user's email/push channel opt-ins
func (nc *NotificationController) UpdatePreferences(c echo.Context) error {
	userID, ok := requestingUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var req models.NotificationPrefsUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	user, err := nc.users.FindByID(ctx, userID)
	if err != nil {
		log.Printf("Error finding user: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update preferences",
		})
	}
	if user == nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}

	prefs := user.NotificationPrefs
	if req.Email != nil {
		prefs.Email = *req.Email
	}
	if req.Push != nil {
		prefs.Push = *req.Push
	}

	if err := nc.users.UpdateNotificationPrefs(ctx, userID, prefs); err != nil {
		log.Printf("Error updating notification preferences: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update preferences",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Notification preferences updated",
		Data:    prefs,
	})
}
