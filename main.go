package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/sistema-zara/zara-backend/config"
	"github.com/sistema-zara/zara-backend/controllers"
	"github.com/sistema-zara/zara-backend/middleware"
	"github.com/sistema-zara/zara-backend/repositories"
	"github.com/sistema-zara/zara-backend/routes"
	"github.com/sistema-zara/zara-backend/services"
	"github.com/sistema-zara/zara-backend/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Initialize Firebase, push delivery stays disabled if this fails
	config.InitFirebase()

	// Connect to Redis, remember-me sessions are disabled if this fails
	config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()

	// Create WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(client)
	notificationRepo := repositories.NewNotificationRepository(client)
	machineRepo := repositories.NewMachineRepository(client)
	qualityTestRepo := repositories.NewQualityTestRepository(client)
	teflonRepo := repositories.NewTeflonRepository(client)
	shiftRepo := repositories.NewShiftRepository(client)

	// Initialize delivery channels and the notification service
	emailService := services.NewEmailService()
	pushService := services.NewPushService()
	notificationService := services.NewNotificationService(notificationRepo, userRepo, emailService, pushService)
	notificationService.SetGateway(wsHub)

	// Initialize and start the scheduler
	scheduler := services.NewSchedulerService(notificationService, notificationRepo, machineRepo, qualityTestRepo, teflonRepo, shiftRepo)
	scheduler.StartAll()

	// Initialize controllers
	ctrl := routes.Controllers{
		Auth:          controllers.NewAuthController(client, userRepo, config.GetRedisClient()),
		Notifications: controllers.NewNotificationController(notificationService, userRepo),
		Machines:      controllers.NewMachineController(machineRepo, notificationService),
		QualityTests:  controllers.NewQualityTestController(qualityTestRepo, machineRepo, notificationService),
		Teflon:        controllers.NewTeflonController(teflonRepo, machineRepo),
		Scheduler:     controllers.NewSchedulerController(scheduler),
	}

	// Create a new Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.GlobalCORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeaders())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Sistema ZARA backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Register routes
	routes.SetupRoutes(e, wsHub, ctrl)

	// Periodically drop expired blacklisted tokens
	go func() {
		for {
			time.Sleep(1 * time.Hour)
			middleware.CleanupBlacklist()
		}
	}()

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal(err)
		}
	}()

	// Wait for interrupt, then stop jobs and drain the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	scheduler.StopAll()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}
	config.CloseRedis()
}
