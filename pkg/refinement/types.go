package refinement

import (
	"fmt"
	"time"

	"github.com/arnavshah/roster-refiner/pkg/models"
	"github.com/arnavshah/roster-refiner/pkg/scheduler"
)

// State is a refinement state machine state
type State string

const (
	StateGenerating State = "GENERATING"
	StateValidating State = "VALIDATING"
	StateConverged  State = "CONVERGED"
	StateExhausted  State = "EXHAUSTED"
)

// Terminal reports whether the state ends a run
func (s State) Terminal() bool {
	return s == StateConverged || s == StateExhausted
}

// Reason explains why a run stopped
type Reason string

const (
	ReasonNoViolations  Reason = "no-violations"
	ReasonMaxIterations Reason = "max-iterations"
	ReasonGoodEnough    Reason = "good-enough"
)

// Stage names the step of an iteration that failed
type Stage string

const (
	StageGenerate Stage = "generate"
	StageValidate Stage = "validate"
)

// Config controls the refinement loop. BaseSeed and EarlyStopMaxViolations
// are pointers because zero is a meaningful setting for both; nil means
// unset and SetDefaults fills it in.
type Config struct {
	MaxIterations          int     `json:"max_iterations"`
	BaseSeed               *int64  `json:"base_seed,omitempty"`
	EarlyStopCoverage      float64 `json:"early_stop_coverage"`
	EarlyStopMaxViolations *int    `json:"early_stop_max_violations,omitempty"`
	EarlyStopMinIteration  int     `json:"early_stop_min_iteration"`
}

// DefaultConfig returns the standard loop settings
func DefaultConfig() Config {
	seed := int64(scheduler.DefaultBaseSeed)
	maxViolations := 10
	return Config{
		MaxIterations:          7,
		BaseSeed:               &seed,
		EarlyStopCoverage:      90,
		EarlyStopMaxViolations: &maxViolations,
		EarlyStopMinIteration:  1,
	}
}

// SetDefaults fills zero values with DefaultConfig values. For the pointer
// fields only nil counts as unset.
func (c *Config) SetDefaults() {
	d := DefaultConfig()
	if c.MaxIterations == 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.BaseSeed == nil {
		c.BaseSeed = d.BaseSeed
	}
	if c.EarlyStopCoverage == 0 {
		c.EarlyStopCoverage = d.EarlyStopCoverage
	}
	if c.EarlyStopMaxViolations == nil {
		c.EarlyStopMaxViolations = d.EarlyStopMaxViolations
	}
	if c.EarlyStopMinIteration == 0 {
		c.EarlyStopMinIteration = d.EarlyStopMinIteration
	}
}

// Seed returns the base seed, or the default when unset
func (c Config) Seed() int64 {
	if c.BaseSeed == nil {
		return scheduler.DefaultBaseSeed
	}
	return *c.BaseSeed
}

// MaxViolations returns the early-stop violation ceiling, or the default when
// unset
func (c Config) MaxViolations() int {
	if c.EarlyStopMaxViolations == nil {
		return *DefaultConfig().EarlyStopMaxViolations
	}
	return *c.EarlyStopMaxViolations
}

// Validate checks the loop settings
func (c Config) Validate() error {
	if c.MaxIterations <= 0 {
		return &models.ConfigError{Field: "refinement.max_iterations", Reason: fmt.Sprintf("must be positive, got %d", c.MaxIterations)}
	}
	if c.EarlyStopCoverage < 0 || c.EarlyStopCoverage > 100 {
		return &models.ConfigError{Field: "refinement.early_stop_coverage", Reason: fmt.Sprintf("must be within [0, 100], got %g", c.EarlyStopCoverage)}
	}
	if c.MaxViolations() < 0 {
		return &models.ConfigError{Field: "refinement.early_stop_max_violations", Reason: fmt.Sprintf("cannot be negative, got %d", c.MaxViolations())}
	}
	if c.EarlyStopMinIteration < 1 {
		return &models.ConfigError{Field: "refinement.early_stop_min_iteration", Reason: fmt.Sprintf("must be at least 1, got %d", c.EarlyStopMinIteration)}
	}
	return nil
}

// IterationRecord summarises one generate and validate pass
type IterationRecord struct {
	Iteration        int           `json:"iteration"`
	ViolationCount   int           `json:"violation_count"`
	CriticalCount    int           `json:"critical_count"`
	CoverageEstimate float64       `json:"coverage_estimate"`
	Threshold        float64       `json:"threshold"`
	BlacklistSize    int           `json:"blacklist_size"`
	Assigned         int           `json:"assigned"`
	Duration         time.Duration `json:"duration"`
}

// ProgressEvent is emitted after every validation
type ProgressEvent struct {
	RunID string
	IterationRecord
}

// Outcome is emitted once when a run reaches a terminal state
type Outcome struct {
	RunID       string
	State       State
	Reason      Reason
	Iterations  int
	ElapsedTime time.Duration
}

// ProgressSink receives notifications from the controller. Implementations
// must return promptly; the controller never waits for acknowledgement.
type ProgressSink interface {
	IterationCompleted(ProgressEvent)
	RunCompleted(Outcome)
}

// Result is the payload of both terminal states
type Result struct {
	RunID       string                   `json:"run_id"`
	State       State                    `json:"state"`
	Reason      Reason                   `json:"reason"`
	Iterations  int                      `json:"iterations"`
	Schedule    *models.Schedule         `json:"schedule"`
	Violations  []models.Violation       `json:"violations"`
	Report      *models.CoverageReport   `json:"report"`
	History     []IterationRecord        `json:"history"`
	Blacklist   []models.BlacklistEntry  `json:"blacklist"`
	Unfilled    []scheduler.UnfilledSlot `json:"unfilled"`
	Constraints models.ConstraintSet     `json:"constraints"`
	ElapsedTime time.Duration            `json:"elapsed_time"`
}

// Converged reports whether the run ended with zero violations
func (r *Result) Converged() bool {
	return r.State == StateConverged
}

// RunError wraps a fatal generator or validator failure
type RunError struct {
	Iteration int
	Stage     Stage
	Err       error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s failed at iteration %d: %v", e.Stage, e.Iteration, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
