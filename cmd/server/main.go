package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"booking-service/internal/app"
	"booking-service/internal/booking"
	"booking-service/internal/calendar"
	"booking-service/internal/catalog"
	"booking-service/internal/config"
	"booking-service/internal/logging"
	"booking-service/internal/server"
)

func main() {
	ctx := context.Background()

	cfg := config.Load()
	logger := logging.New(cfg.IsProduction())
	defer logger.Sync()

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL required")
	}
	pool, err := calendar.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to db", zap.Error(err))
	}
	defer pool.Close()

	cat := catalog.New(pool)
	store := calendar.NewStore(pool)
	engine := booking.NewEngine(cat, store, logger, cfg.OpTimeout())

	appInstance := &app.App{
		Engine:      engine,
		Catalog:     cat,
		Store:       store,
		Log:         logger,
		GCal:        app.InitGoogleCalendarConfig(cfg),
		HorizonDays: cfg.HorizonDays,
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// OAuth2 callback (must be before auth middleware)
	router.GET("/oauth2callback", appInstance.GoogleOAuth2CallbackHandler)

	router.Use(app.RateLimitMiddleware(cfg.MaxRequestsPerMin, logger))
	router.Use(app.AuthMiddleware(cfg))

	api := router.Group("/api")
	{
		api.GET("/services", appInstance.ListServicesHandler)
		api.GET("/services/:code/staff", appInstance.QualifiedStaffHandler)
		api.POST("/slots/find", appInstance.FindSlotHandler)
		api.POST("/bookings", appInstance.CreateBookingHandler)

		staff := api.Group("/staff")
		{
			staff.GET("/:id/appointments", appInstance.ListAppointmentsHandler)
			staff.POST("/:id/calendar/sync", appInstance.SyncStaffCalendarHandler)
		}

		gcal := api.Group("/calendar")
		{
			gcal.GET("/auth", appInstance.GoogleAuthHandler)
		}
	}

	server.Run(router, cfg.AppPort)
}
