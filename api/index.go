package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/arnavshah/roster-refiner/pkg/config"
	"github.com/arnavshah/roster-refiner/pkg/database"
	"github.com/arnavshah/roster-refiner/pkg/handlers"
	"github.com/arnavshah/roster-refiner/pkg/logger"
	"github.com/arnavshah/roster-refiner/pkg/metrics"
)

var r *gin.Engine

func init() {
	// Load .env if it exists (for local testing with vercel dev)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	logg := logger.NewZerologLogger("vercel")
	cfg, err := config.Default()
	if err != nil {
		logg.Errorf("load config: %v", err)
		cfg = &config.Config{}
		cfg.SetDefaults()
	}
	logger.SetLevel(cfg.Logging.Level)

	h := &handlers.Handler{Config: cfg, Log: logger.NewZerologLogger("handlers")}
	// Runs are still served when the database is unreachable
	if store, err := database.Open(cfg.Database); err != nil {
		logg.Errorf("open database: %v", err)
	} else {
		h.Store = store
	}
	if prom, err := metrics.NewPromSink(); err == nil {
		h.Sink = prom
	}

	gin.SetMode(gin.ReleaseMode)
	r = handlers.NewRouter(h)
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
