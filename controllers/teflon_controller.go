package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sistema-zara/zara-backend/models"
	"github.com/sistema-zara/zara-backend/repositories"
)

type TeflonController struct {
	changes  repositories.TeflonStore
	machines repositories.MachineStore
}

func NewTeflonController(changes repositories.TeflonStore, machines repositories.MachineStore) *TeflonController {
	return &TeflonController{changes: changes, machines: machines}
}

// Create registers a teflon sheet change on a machine. The expiration date
// is derived from the change date plus the validity horizon.
func (tc *TeflonController) Create(c echo.Context) error {
	userID, ok := requestingUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var req models.CreateTeflonChangeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	machineID, err := primitive.ObjectIDFromHex(req.MachineID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid machine ID",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	machine, err := tc.machines.FindByID(ctx, machineID)
	if err != nil {
		log.Printf("Error finding machine: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to register teflon change",
		})
	}
	if machine == nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Machine not found",
		})
	}

	changeDate := time.Now()
	if req.ChangeDate != nil {
		changeDate = *req.ChangeDate
	}
	if changeDate.After(time.Now()) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Change date cannot be in the future",
		})
	}

	change := &models.TeflonChange{
		MachineID:      machineID,
		UserID:         userID,
		ChangeDate:     changeDate,
		ExpirationDate: changeDate.AddDate(0, 0, models.TeflonValidityDays),
		Notes:          req.Notes,
		CreatedAt:      time.Now(),
	}
	if err := tc.changes.Insert(ctx, change); err != nil {
		log.Printf("Error inserting teflon change: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to register teflon change",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Teflon change registered successfully",
		Data:    change,
	})
}
