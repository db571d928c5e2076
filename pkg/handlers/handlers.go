package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arnavshah/roster-refiner/pkg/config"
	"github.com/arnavshah/roster-refiner/pkg/coverage"
	"github.com/arnavshah/roster-refiner/pkg/database"
	"github.com/arnavshah/roster-refiner/pkg/dataset"
	"github.com/arnavshah/roster-refiner/pkg/logger"
	"github.com/arnavshah/roster-refiner/pkg/models"
	"github.com/arnavshah/roster-refiner/pkg/refinement"
	"github.com/arnavshah/roster-refiner/pkg/validator"
)

// Version is reported by the root endpoint
const Version = "1.0.0"

// Handler contains dependencies for the route handlers. A nil Store disables
// persistence; runs are still served.
type Handler struct {
	Store    *database.Store
	Config   *config.Config
	Log      logger.Logger
	Sink     refinement.ProgressSink
	Gatherer prometheus.Gatherer
}

// NewRouter registers every route on a new gin engine
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/metrics", h.Metrics())

	api := r.Group("/api")
	{
		api.POST("/roster/generate", h.GenerateRoster)
		api.POST("/roster/validate", h.ValidateRoster)
		api.POST("/dataset/validate", h.ValidateDataset)
		api.GET("/runs", h.ListRuns)
		api.GET("/runs/:id", h.GetRun)
		api.GET("/runs/:id/export/csv", h.ExportCSV)
		api.GET("/runs/:id/export/xlsx", h.ExportXLSX)
		api.GET("/usage", h.GetUsage)
	}
	return r
}

func (h *Handler) log() logger.Logger {
	return logger.OrNop(h.Log)
}

func (h *Handler) config() *config.Config {
	if h.Config != nil {
		return h.Config
	}
	cfg := &config.Config{}
	cfg.SetDefaults()
	return cfg
}

// Root describes the service
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Roster Refiner API",
		"version": Version,
	})
}

// Health reports service and database status
func (h *Handler) Health(c *gin.Context) {
	db := "disabled"
	if h.Store != nil {
		db = "ok"
		if sqlDB, err := h.Store.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			db = "unavailable"
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": db})
}

// Metrics serves the Prometheus registry
func (h *Handler) Metrics() gin.HandlerFunc {
	g := h.Gatherer
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

// GenerateRequest is the body of POST /api/roster/generate
type GenerateRequest struct {
	Dataset     models.Dataset     `json:"dataset"`
	Refinement  *refinement.Config `json:"refinement,omitempty"`
	MinCoverage float64            `json:"min_coverage,omitempty"`
}

// GenerateRoster runs the refinement loop for a dataset and stores the result
func (h *Handler) GenerateRoster(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg := h.config()
	ds := &req.Dataset
	if ds.HorizonDays == 0 {
		ds.HorizonDays = cfg.HorizonDays
	}
	loop := cfg.Refinement
	if req.Refinement != nil {
		loop = *req.Refinement
	}
	minCoverage := cfg.Report.MinCoverage
	if req.MinCoverage > 0 {
		minCoverage = req.MinCoverage
	}

	ctrl := refinement.NewController(loop,
		refinement.WithLogger(h.Log),
		refinement.WithSink(h.Sink),
		refinement.WithConstraints(cfg.Constraints),
		refinement.WithMinCoverage(minCoverage),
	)
	res, err := ctrl.Run(c.Request.Context(), ds)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrInvalidConfig) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	persisted := h.persist(c, ds, res)
	c.JSON(http.StatusOK, gin.H{
		"run_id":    res.RunID,
		"persisted": persisted,
		"result":    res,
	})
}

// persist stores a run and bumps today's usage counters. Failures are logged
// and reported as persisted=false.
func (h *Handler) persist(c *gin.Context, ds *models.Dataset, res *refinement.Result) bool {
	if h.Store == nil {
		return false
	}
	ctx := c.Request.Context()
	if err := h.Store.SaveRun(ctx, ds, res); err != nil {
		h.log().Errorf("save run %s: %v", res.RunID, err)
		return false
	}
	today := time.Now().Format(models.DateLayout)
	if err := h.Store.RecordUsage(ctx, today, res.Iterations, res.Schedule.Summary.TotalShifts, len(res.Violations)); err != nil {
		h.log().Errorf("record usage for run %s: %v", res.RunID, err)
	}
	return true
}

// ValidateRequest is the body of POST /api/roster/validate
type ValidateRequest struct {
	Dataset     models.Dataset  `json:"dataset"`
	Schedule    models.Schedule `json:"schedule"`
	MinCoverage float64         `json:"min_coverage,omitempty"`
}

// ValidateRoster checks a caller-supplied schedule and reports its coverage
func (h *Handler) ValidateRoster(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg := h.config()
	ds := &req.Dataset
	if ds.HorizonDays == 0 {
		ds.HorizonDays = cfg.HorizonDays
	}
	if err := dataset.Validate(ds); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	constraints := cfg.Constraints
	if ds.Constraints != nil {
		constraints = *ds.Constraints
	}
	minCoverage := cfg.Report.MinCoverage
	if req.MinCoverage > 0 {
		minCoverage = req.MinCoverage
	}

	schedule := &req.Schedule
	if schedule.StartDate == "" {
		schedule.StartDate = ds.StartDate
	}
	if schedule.HorizonDays <= 0 {
		schedule.HorizonDays = ds.Days()
	}
	schedule.Finalize()

	violations, err := validator.New(ds, constraints).Validate(schedule)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrInvalidConfig) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	report := coverage.NewReporter(ds, constraints, minCoverage).Report(schedule, violations)
	c.JSON(http.StatusOK, gin.H{
		"valid":      len(violations) == 0,
		"violations": violations,
		"report":     report,
	})
}
