package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/arnavshah/roster-refiner/pkg/refinement"
)

func event(iteration, violations int, coverage float64) refinement.ProgressEvent {
	return refinement.ProgressEvent{
		RunID: "run-1",
		IterationRecord: refinement.IterationRecord{
			Iteration:        iteration,
			ViolationCount:   violations,
			CoverageEstimate: coverage,
		},
	}
}

func TestPromSink_IterationCompleted(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sink.IterationCompleted(event(1, 4, 62.5))
	sink.IterationCompleted(event(2, 0, 87.5))

	expected := `
# HELP roster_iterations_total Total number of generate and validate passes
# TYPE roster_iterations_total counter
roster_iterations_total{clean="false"} 1
roster_iterations_total{clean="true"} 1
`
	if err := testutil.CollectAndCompare(sink.iterations, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if v := testutil.ToFloat64(sink.coverage); v != 87.5 {
		t.Errorf("expected coverage gauge 87.5, got %v", v)
	}
	if c := testutil.CollectAndCount(sink.violations); c != 1 {
		t.Errorf("expected violations histogram, got %d series", c)
	}
}

func TestPromSink_RunCompleted(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sink.RunCompleted(refinement.Outcome{
		RunID:       "run-1",
		State:       refinement.StateExhausted,
		Reason:      refinement.ReasonMaxIterations,
		Iterations:  7,
		ElapsedTime: 20 * time.Millisecond,
	})

	expected := `
# HELP roster_runs_total Completed refinement runs by terminal state and reason
# TYPE roster_runs_total counter
roster_runs_total{reason="max-iterations",state="EXHAUSTED"} 1
`
	if err := testutil.CollectAndCompare(sink.runs, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if c := testutil.CollectAndCount(sink.duration); c == 0 {
		t.Errorf("duration not recorded")
	}
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	second, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second sink: %v", err)
	}
	first.IterationCompleted(event(1, 0, 100))
	second.IterationCompleted(event(1, 0, 100))

	if v := testutil.ToFloat64(first.iterations.WithLabelValues("true")); v != 2 {
		t.Errorf("expected shared counter at 2, got %v", v)
	}
}
