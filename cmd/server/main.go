package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/arnavshah/roster-refiner/pkg/config"
	"github.com/arnavshah/roster-refiner/pkg/database"
	"github.com/arnavshah/roster-refiner/pkg/handlers"
	"github.com/arnavshah/roster-refiner/pkg/logger"
	"github.com/arnavshah/roster-refiner/pkg/metrics"
)

func main() {
	// Load .env if it exists
	// Try root and parent directories for flexibility
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}

	logg := logger.NewZerologLogger("server")
	cfg, err := config.Load(os.Getenv("ROSTER_CONFIG"))
	if err != nil {
		logg.Errorf("load config: %v", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.Logging.Level)
	gin.SetMode(cfg.Server.GinMode)

	store, err := database.Open(cfg.Database)
	if err != nil {
		logg.Errorf("open database: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	prom, err := metrics.NewPromSink()
	if err != nil {
		logg.Errorf("prom sink: %v", err)
		os.Exit(1)
	}

	h := &handlers.Handler{
		Store:  store,
		Config: cfg,
		Log:    logger.NewZerologLogger("handlers"),
		Sink:   metrics.MultiSink{prom, metrics.NewLogSink(logger.NewZerologLogger("refinement"))},
	}
	r := handlers.NewRouter(h)

	logg.Infof("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logg.Errorf("could not run server: %v", err)
		os.Exit(1)
	}
}
