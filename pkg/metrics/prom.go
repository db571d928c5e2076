package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arnavshah/roster-refiner/pkg/refinement"
)

// PromSink records refinement progress in Prometheus metrics.
type PromSink struct {
	iterations *prometheus.CounterVec
	violations prometheus.Histogram
	coverage   prometheus.Gauge
	runs       *prometheus.CounterVec
	runLength  prometheus.Histogram
	duration   prometheus.Histogram
}

// NewPromSink registers refinement metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	iterations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_iterations_total",
		Help: "Total number of generate and validate passes",
	}, []string{"clean"})
	violations := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "roster_iteration_violations",
		Help:    "Violations found per iteration",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})
	coverage := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "roster_coverage_estimate_percent",
		Help: "Availability coverage of the most recent iteration",
	})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_runs_total",
		Help: "Completed refinement runs by terminal state and reason",
	}, []string{"state", "reason"})
	runLength := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "roster_run_iterations",
		Help:    "Iterations needed per refinement run",
		Buckets: prometheus.LinearBuckets(1, 1, 10),
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "roster_run_duration_seconds",
		Help:    "Wall-clock duration of refinement runs",
		Buckets: prometheus.DefBuckets,
	})

	var err error
	if iterations, err = register(reg, iterations); err != nil {
		return nil, err
	}
	if violations, err = register(reg, violations); err != nil {
		return nil, err
	}
	if coverage, err = register(reg, coverage); err != nil {
		return nil, err
	}
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if runLength, err = register(reg, runLength); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}

	return &PromSink{
		iterations: iterations,
		violations: violations,
		coverage:   coverage,
		runs:       runs,
		runLength:  runLength,
		duration:   duration,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// IterationCompleted records one generate and validate pass.
func (s *PromSink) IterationCompleted(e refinement.ProgressEvent) {
	clean := "false"
	if e.ViolationCount == 0 {
		clean = "true"
	}
	s.iterations.WithLabelValues(clean).Inc()
	s.violations.Observe(float64(e.ViolationCount))
	s.coverage.Set(e.CoverageEstimate)
}

// RunCompleted records the terminal state of a run.
func (s *PromSink) RunCompleted(o refinement.Outcome) {
	s.runs.WithLabelValues(string(o.State), string(o.Reason)).Inc()
	s.runLength.Observe(float64(o.Iterations))
	s.duration.Observe(o.ElapsedTime.Seconds())
}
