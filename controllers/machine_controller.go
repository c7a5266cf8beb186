package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sistema-zara/zara-backend/models"
	"github.com/sistema-zara/zara-backend/repositories"
	"github.com/sistema-zara/zara-backend/services"
)

type MachineController struct {
	machines repositories.MachineStore
	notifier *services.NotificationService
}

func NewMachineController(machines repositories.MachineStore, notifier *services.NotificationService) *MachineController {
	return &MachineController{machines: machines, notifier: notifier}
}

// List returns all registered machines
func (mc *MachineController) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	machines, err := mc.machines.List(ctx)
	if err != nil {
		log.Printf("Error listing machines: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve machines",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Machines retrieved successfully",
		Data:    machines,
	})
}

// Get returns a single machine by ID
func (mc *MachineController) Get(c echo.Context) error {
	machineID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid machine ID",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	machine, err := mc.machines.FindByID(ctx, machineID)
	if err != nil {
		log.Printf("Error finding machine: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve machine",
		})
	}
	if machine == nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Machine not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Machine retrieved successfully",
		Data:    machine,
	})
}

// UpdateStatus changes a machine's status and alerts leadership when the
// machine stops or enters maintenance
func (mc *MachineController) UpdateStatus(c echo.Context) error {
	machineID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid machine ID",
		})
	}

	var req models.MachineStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if !models.IsValidMachineStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid machine status: " + req.Status,
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	machine, err := mc.machines.FindByID(ctx, machineID)
	if err != nil {
		log.Printf("Error finding machine: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update machine status",
		})
	}
	if machine == nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Machine not found",
		})
	}

	if err := mc.machines.UpdateStatus(ctx, machineID, req.Status); err != nil {
		log.Printf("Error updating machine status: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update machine status",
		})
	}

	if machine.Status != req.Status {
		mc.notifyStatusChange(c.Request().Context(), machine, req)
	}

	machine.Status = req.Status
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Machine status updated successfully",
		Data:    machine,
	})
}

func (mc *MachineController) notifyStatusChange(ctx context.Context, machine *models.Machine, req models.MachineStatusUpdateRequest) {
	if req.Status != models.MachineStatusStopped && req.Status != models.MachineStatusMaintenance {
		return
	}

	priority := models.PriorityMedium
	if req.Status == models.MachineStatusStopped {
		priority = models.PriorityHigh
	}

	message := fmt.Sprintf("Machine %s changed status from %s to %s", machine.Name, machine.Status, req.Status)
	if req.Reason != "" {
		message += ": " + req.Reason
	}

	machineID := machine.ID
	_, err := mc.notifier.CreateAndDispatch(ctx, models.CreateNotificationRequest{
		Type:        models.NotificationTypeMachineStatus,
		Priority:    priority,
		Title:       "Machine status: " + machine.Name,
		Message:     message,
		TargetRoles: models.LeadershipRoles,
		MachineID:   &machineID,
		Channels:    []string{models.ChannelSystem, models.ChannelPush},
		Metadata: map[string]interface{}{
			"previousStatus": machine.Status,
			"newStatus":      req.Status,
			"reason":         req.Reason,
		},
	})
	if err != nil {
		log.Printf("Error dispatching machine status notification: %v", err)
	}
}
