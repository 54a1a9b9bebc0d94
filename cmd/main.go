package main

import (
	"context"
	"time"

	"greenpass-service/internal/capacity"
	"greenpass-service/internal/handler"
	"greenpass-service/internal/middleware"
	"greenpass-service/internal/model"
	"greenpass-service/internal/retention"
	"greenpass-service/internal/store"
	"greenpass-service/internal/weather"
	"greenpass-service/pkg/config"
	"greenpass-service/pkg/database"
	"greenpass-service/pkg/jwtutil"
	"greenpass-service/pkg/logger"
	"greenpass-service/prometheus"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// requestValidator wires go-playground/validator into echo's Validate hook.
type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting destination capacity service...", zap.String("environment", cfg.Server.Env))

	// Initialize JWT utilities
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utilities initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Initialize database and run migrations
	db, err := database.Open(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed",
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("db_name", cfg.Database.Name))

	// Wire repositories
	destinations := store.NewDestinationStore(db)
	reservations := store.NewReservationStore(db)
	overrides := store.NewOverrideStore(db)
	policies := store.NewPolicyStore(db)
	adjustments := store.NewAdjustmentStore(db)
	classifier := weather.NewClassifier(db, time.Now, cfg.Capacity.WeatherReportTTL)

	// Seed the per-tier default policies on first start
	if err := policies.Seed(context.Background(), model.DefaultPolicies()); err != nil {
		log.Fatal("Failed to seed tier policies", zap.Error(err))
	}

	// Construct the capacity engine with injected dependencies
	svc := capacity.NewService(destinations, reservations, overrides, policies, adjustments, classifier,
		capacity.Config{
			HighSeasonStart:       time.Month(cfg.Capacity.HighSeasonStartMonth),
			HighSeasonEnd:         time.Month(cfg.Capacity.HighSeasonEndMonth),
			UtilizationThreshold:  cfg.Capacity.UtilizationThreshold,
			UtilizationMultiplier: cfg.Capacity.UtilizationMultiplier,
			MaxPartySize:          cfg.Capacity.MaxPartySize,
			ReserveAttempts:       cfg.Capacity.ReserveAttempts,
		}, log)

	// Start the audit retention pruner
	pruner := retention.NewPruner(adjustments, cfg.Capacity.AdjustmentRetention, log)
	if err := pruner.Start(); err != nil {
		log.Fatal("Failed to start retention pruner", zap.Error(err))
	}

	h := handler.New(svc, classifier)

	// Create Echo instance
	e := echo.New()
	e.Validator = &requestValidator{validate: validator.New()}

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(middleware.MetricsMiddleware)

	// Request logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			log := logger.FromContext(c)
			log.Info("HTTP Request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Float64("duration_s", time.Since(start).Seconds()),
				zap.String("ip", c.RealIP()),
			)

			return err
		}
	})

	// Public routes
	e.GET("/", handler.Health)
	e.GET("/health", handler.Health)

	// Prometheus metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API routes that require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Destinations and capacity reads
	api.GET("/destinations", h.ListDestinations)
	api.GET("/destinations/:id", h.GetDestination)
	api.GET("/destinations/:id/capacity", h.GetDynamicCapacity)
	api.GET("/destinations/:id/spots", h.GetAvailableSpots)
	api.GET("/destinations/:id/allowed", h.IsBookingAllowed)
	api.GET("/destinations/:id/bookings", h.ListBookings)

	// Bookings
	api.POST("/bookings", h.CreateBooking)
	api.PATCH("/bookings/:reference", h.TransitionBooking)

	// Audit trail
	api.GET("/adjustments", h.GetAdjustmentHistory)

	// Policies
	api.GET("/policies", h.ListPolicies)
	api.GET("/policies/:tier", h.GetPolicy)

	// Administrative mutations
	api.POST("/destinations", h.CreateDestination, middleware.RequireAdmin)
	api.PUT("/destinations/:id", h.UpdateDestination, middleware.RequireAdmin)
	api.PUT("/policies/:tier", h.UpdatePolicy, middleware.RequireAdmin)
	api.PUT("/overrides", h.SetOverride, middleware.RequireAdmin)
	api.DELETE("/overrides/:id", h.ClearOverride, middleware.RequireAdmin)
	api.PUT("/weather", h.ReportWeather, middleware.RequireAdmin)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		// log.Fatal never runs deferred calls, so stop the pruner explicitly
		// and let a running prune pass finish before exiting.
		pruner.Stop()
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
