package main

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/workshophub/workshop-booking/config"
	"github.com/workshophub/workshop-booking/internal/handler"
	"github.com/workshophub/workshop-booking/internal/middleware"
	"github.com/workshophub/workshop-booking/internal/notifier"
	"github.com/workshophub/workshop-booking/internal/repository"
	"github.com/workshophub/workshop-booking/internal/service"
	"github.com/workshophub/workshop-booking/pkg/database"
	"github.com/workshophub/workshop-booking/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	db := database.NewPostgresDB(cfg.DSN())

	// Repositories
	userRepo := repository.NewUserRepository(db)
	workshopRepo := repository.NewWorkshopRepository(db)
	slotRepo := repository.NewTimeSlotRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	subscriberRepo := repository.NewSubscriberRepository(db)

	// RabbitMQ: booking events fan out to admin notifications
	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.Fatalf("failed to start consuming: %v", err)
	}
	notifier.New(userRepo, notificationRepo).Start(msgs)

	// Services
	bookingSvc := service.NewBookingService(bookingRepo, slotRepo, publisher)
	workshopSvc := service.NewWorkshopService(workshopRepo)
	slotSvc := service.NewTimeSlotService(slotRepo, workshopRepo)
	authSvc := service.NewAuthService(userRepo, subscriberRepo, cfg.JWTSecret, time.Duration(cfg.JWTExpireHrs)*time.Hour)
	statsSvc := service.NewStatsService(bookingRepo, workshopRepo, slotRepo)

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())
	e.Use(echoMw.CORS())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "workshop-booking"})
	})

	authMw := middleware.RequireAuth(cfg.JWTSecret)
	adminMw := middleware.RequireAdmin()

	handler.NewAuthHandler(authSvc).RegisterRoutes(e)
	handler.NewBookingHandler(bookingSvc).RegisterRoutes(e, authMw, adminMw)
	handler.NewWorkshopHandler(workshopSvc, slotSvc).RegisterRoutes(e, authMw, adminMw)
	handler.NewAdminHandler(userRepo, notificationRepo, statsSvc).RegisterRoutes(e, authMw, adminMw)

	log.Printf("Workshop Booking Service starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
