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

type QualityTestController struct {
	tests    repositories.QualityTestStore
	machines repositories.MachineStore
	notifier *services.NotificationService
}

func NewQualityTestController(tests repositories.QualityTestStore, machines repositories.MachineStore, notifier *services.NotificationService) *QualityTestController {
	return &QualityTestController{tests: tests, machines: machines, notifier: notifier}
}

// Create registers a quality test. Rejected tests raise a high priority
// alert for leadership.
func (qc *QualityTestController) Create(c echo.Context) error {
	userID, ok := requestingUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var req models.CreateQualityTestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if !models.IsValidTestResult(req.Result) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid test result: " + req.Result,
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

	machine, err := qc.machines.FindByID(ctx, machineID)
	if err != nil {
		log.Printf("Error finding machine: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to register quality test",
		})
	}
	if machine == nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Machine not found",
		})
	}

	test := &models.QualityTest{
		MachineID:  machineID,
		UserID:     userID,
		Result:     req.Result,
		Parameters: req.Parameters,
		Notes:      req.Notes,
		CreatedAt:  time.Now(),
	}
	if err := qc.tests.Insert(ctx, test); err != nil {
		log.Printf("Error inserting quality test: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to register quality test",
		})
	}

	if test.Result == models.TestResultRejected {
		qc.notifyRejection(c.Request().Context(), machine, test)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Quality test registered successfully",
		Data:    test,
	})
}

func (qc *QualityTestController) notifyRejection(ctx context.Context, machine *models.Machine, test *models.QualityTest) {
	testID := test.ID
	machineID := machine.ID
	_, err := qc.notifier.CreateAndDispatch(ctx, models.CreateNotificationRequest{
		Type:          models.NotificationTypeQualityTest,
		Priority:      models.PriorityHigh,
		Title:         "Quality test rejected: " + machine.Name,
		Message:       fmt.Sprintf("A quality test on machine %s (%s) was rejected", machine.Name, machine.Code),
		TargetRoles:   models.LeadershipRoles,
		MachineID:     &machineID,
		QualityTestID: &testID,
		Channels:      []string{models.ChannelSystem, models.ChannelPush},
		Metadata: map[string]interface{}{
			"result":      test.Result,
			"machineCode": machine.Code,
		},
	})
	if err != nil {
		log.Printf("Error dispatching quality test notification: %v", err)
	}
}

// Summary returns approved/rejected counts for a reporting window. The
// window defaults to the last 24 hours.
func (qc *QualityTestController) Summary(c echo.Context) error {
	to := time.Now()
	from := to.Add(-24 * time.Hour)

	if raw := c.QueryParam("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid from timestamp",
			})
		}
		from = parsed
	}
	if raw := c.QueryParam("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid to timestamp",
			})
		}
		to = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var summary models.QualityTestSummary
	var err error
	if raw := c.QueryParam("machineId"); raw != "" {
		machineID, idErr := primitive.ObjectIDFromHex(raw)
		if idErr != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid machine ID",
			})
		}
		summary, err = qc.tests.SummarizeForMachineBetween(ctx, machineID, from, to)
	} else {
		summary, err = qc.tests.SummarizeBetween(ctx, from, to)
	}
	if err != nil {
		log.Printf("Error summarizing quality tests: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to summarize quality tests",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Quality test summary retrieved successfully",
		Data:    summary,
	})
}
