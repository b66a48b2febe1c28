package main

import (
	"flag"

	"github.com/elton-creator/crm-system-v2/internal/handler"
	"github.com/elton-creator/crm-system-v2/internal/middleware"
	"github.com/elton-creator/crm-system-v2/pkg/config"
	"github.com/elton-creator/crm-system-v2/pkg/database"
	"github.com/elton-creator/crm-system-v2/pkg/jwtutil"
	"github.com/elton-creator/crm-system-v2/pkg/logger"
	"github.com/elton-creator/crm-system-v2/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	seed := flag.Bool("seed", false, "provision default users, origins, funnel and sample leads, then exit")
	flag.Parse()

	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting CRM service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	if *seed {
		if err := database.Seed(database.GetDB(), log); err != nil {
			log.Fatal("Seeding failed", zap.Error(err))
		}
		return
	}

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	handler.Register(e)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
