// Package refinement drives the generate, validate and repair loop. Each run
// owns its refinement memory; runs share nothing and may execute concurrently.
package refinement

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/arnavshah/roster-refiner/pkg/coverage"
	"github.com/arnavshah/roster-refiner/pkg/dataset"
	"github.com/arnavshah/roster-refiner/pkg/logger"
	"github.com/arnavshah/roster-refiner/pkg/models"
	"github.com/arnavshah/roster-refiner/pkg/scheduler"
	"github.com/arnavshah/roster-refiner/pkg/validator"
)

// Controller runs the refinement state machine
type Controller struct {
	cfg         Config
	constraints models.ConstraintSet
	minCoverage float64
	log         logger.Logger
	sink        ProgressSink
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the controller's logger
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) { c.log = logger.OrNop(l) }
}

// WithSink sets the progress sink
func WithSink(s ProgressSink) Option {
	return func(c *Controller) { c.sink = s }
}

// WithConstraints sets the constraint set used when a dataset carries none
func WithConstraints(cs models.ConstraintSet) Option {
	return func(c *Controller) { c.constraints = cs }
}

// WithMinCoverage sets the reporter's approval threshold
func WithMinCoverage(pct float64) Option {
	return func(c *Controller) { c.minCoverage = pct }
}

// NewController creates a Controller. Zero config fields take defaults.
func NewController(cfg Config, opts ...Option) *Controller {
	cfg.SetDefaults()
	c := &Controller{
		cfg:         cfg,
		constraints: models.DefaultConstraints(),
		log:         logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the effective loop settings
func (c *Controller) Config() Config {
	return c.cfg
}

// Run refines a schedule for the dataset until it converges or the loop is
// exhausted. Configuration errors abort before the first iteration. The
// context is only checked between iterations.
func (c *Controller) Run(ctx context.Context, ds *models.Dataset) (*Result, error) {
	startTime := time.Now()

	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := dataset.Validate(ds); err != nil {
		return nil, err
	}
	constraints := c.constraints
	if ds.Constraints != nil {
		constraints = *ds.Constraints
	}
	if err := constraints.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	gen := scheduler.NewScheduler(ds, constraints,
		scheduler.WithLogger(c.log),
		scheduler.WithBaseSeed(c.cfg.Seed()),
	)
	val := validator.New(ds, constraints)
	rep := coverage.NewReporter(ds, constraints, c.minCoverage)
	memory := models.NewRefinementMemory()

	var (
		schedule   *models.Schedule
		unfilled   []scheduler.UnfilledSlot
		violations []models.Violation
		history    []IterationRecord
		state      = StateGenerating
		reason     Reason
		iteration  int
	)

	for iteration = 1; !state.Terminal(); iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("refinement canceled after %d iterations: %w", iteration-1, err)
		}
		iterationStart := time.Now()

		sched, open, err := gen.Generate(memory, iteration)
		if err != nil {
			return nil, &RunError{Iteration: iteration, Stage: StageGenerate, Err: err}
		}
		schedule, unfilled = sched, open
		state = StateValidating

		found, err := val.Validate(schedule)
		if err != nil {
			return nil, &RunError{Iteration: iteration, Stage: StageValidate, Err: err}
		}
		violations = found
		UpdateMemory(memory, violations)

		record := IterationRecord{
			Iteration:        iteration,
			ViolationCount:   len(violations),
			CriticalCount:    models.CountCritical(violations),
			CoverageEstimate: rep.Estimate(schedule),
			Threshold:        scheduler.RestThreshold(iteration, constraints.MinRestHours),
			BlacklistSize:    memory.BlacklistSize(),
			Assigned:         schedule.Summary.TotalShifts,
			Duration:         time.Since(iterationStart),
		}
		history = append(history, record)
		if c.sink != nil {
			c.sink.IterationCompleted(ProgressEvent{RunID: runID, IterationRecord: record})
		}
		c.log.Infof("run %s iteration %d: %d violations (%d critical), coverage %.2f%%, rest threshold %.1fh",
			runID, iteration, record.ViolationCount, record.CriticalCount, record.CoverageEstimate, record.Threshold)

		state, reason = c.next(record)
		if !state.Terminal() {
			state = StateGenerating
		}
	}
	iterations := iteration - 1

	result := &Result{
		RunID:       runID,
		State:       state,
		Reason:      reason,
		Iterations:  iterations,
		Schedule:    schedule,
		Violations:  violations,
		Report:      rep.Report(schedule, violations),
		History:     history,
		Blacklist:   memory.Blacklist(),
		Unfilled:    unfilled,
		Constraints: constraints,
		ElapsedTime: time.Since(startTime),
	}
	if c.sink != nil {
		c.sink.RunCompleted(Outcome{
			RunID:       runID,
			State:       state,
			Reason:      reason,
			Iterations:  iterations,
			ElapsedTime: result.ElapsedTime,
		})
	}
	c.log.Infof("run %s finished %s (%s) after %d iterations: coverage %.2f%%, status %s",
		runID, state, reason, iterations, result.Report.CoveragePercent, result.Report.Status)
	return result, nil
}

// next decides the transition out of VALIDATING
func (c *Controller) next(r IterationRecord) (State, Reason) {
	switch {
	case r.ViolationCount == 0:
		return StateConverged, ReasonNoViolations
	case r.Iteration >= c.cfg.MaxIterations:
		return StateExhausted, ReasonMaxIterations
	case r.Iteration >= c.cfg.EarlyStopMinIteration &&
		r.CoverageEstimate >= c.cfg.EarlyStopCoverage &&
		r.ViolationCount <= c.cfg.MaxViolations():
		return StateExhausted, ReasonGoodEnough
	}
	return StateGenerating, ""
}

var preferredCodeRe = regexp.MustCompile(`(?i)reassign to shift code ([A-Za-z0-9_-]+)`)

// UpdateMemory folds one validation pass into memory. Critical violations
// naming an employee, date and shift code are blacklisted, rest-period dates
// are remembered, and availability recommendations that name an alternative
// shift code become a preference for that employee.
func UpdateMemory(memory *models.RefinementMemory, violations []models.Violation) {
	for _, v := range violations {
		if v.IsCritical() && v.EmployeeID != "" && v.Date != "" && v.ShiftCode != "" {
			memory.AddBlacklist(v.EmployeeID, v.Date, v.ShiftCode)
		}
		switch v.Kind {
		case models.KindRestPeriod:
			if v.Date != "" {
				memory.AddRestViolation(v.Date)
			}
		case models.KindAvailability:
			if v.EmployeeID == "" {
				continue
			}
			if m := preferredCodeRe.FindStringSubmatch(v.Recommendation); m != nil && m[1] != v.ShiftCode {
				memory.AddPreference(v.EmployeeID, m[1])
			}
		}
	}
}
