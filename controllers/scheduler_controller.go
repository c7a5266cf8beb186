package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sistema-zara/zara-backend/models"
	"github.com/sistema-zara/zara-backend/services"
)

type SchedulerController struct {
	scheduler *services.SchedulerService
}

func NewSchedulerController(scheduler *services.SchedulerService) *SchedulerController {
	return &SchedulerController{scheduler: scheduler}
}

// Status returns every registered job with its running state and timings
func (sc *SchedulerController) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Scheduler status retrieved successfully",
		Data:    sc.scheduler.Status(),
	})
}

// Start resumes a stopped job
func (sc *SchedulerController) Start(c echo.Context) error {
	name := c.Param("name")
	if err := sc.scheduler.Start(name); err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Job started: " + name,
	})
}

// Stop pauses a running job
func (sc *SchedulerController) Stop(c echo.Context) error {
	name := c.Param("name")
	if err := sc.scheduler.Stop(name); err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Job stopped: " + name,
	})
}
