package metrics

import (
	"sync/atomic"

	"github.com/arnavshah/roster-refiner/pkg/logger"
	"github.com/arnavshah/roster-refiner/pkg/refinement"
)

// LogSink writes progress events to a logger.
type LogSink struct {
	log logger.Logger
}

// NewLogSink creates a LogSink. A nil logger discards events.
func NewLogSink(l logger.Logger) *LogSink {
	return &LogSink{log: logger.OrNop(l)}
}

func (s *LogSink) IterationCompleted(e refinement.ProgressEvent) {
	s.log.Debugw("iteration completed", map[string]any{
		"run_id":            e.RunID,
		"iteration":         e.Iteration,
		"violation_count":   e.ViolationCount,
		"critical_count":    e.CriticalCount,
		"coverage_estimate": e.CoverageEstimate,
		"threshold":         e.Threshold,
		"blacklist_size":    e.BlacklistSize,
	})
}

func (s *LogSink) RunCompleted(o refinement.Outcome) {
	s.log.Infof("run %s completed: %s (%s) after %d iterations in %s", o.RunID, o.State, o.Reason, o.Iterations, o.ElapsedTime)
}

// MultiSink fans events out to several sinks in order.
type MultiSink []refinement.ProgressSink

func (m MultiSink) IterationCompleted(e refinement.ProgressEvent) {
	for _, s := range m {
		if s != nil {
			s.IterationCompleted(e)
		}
	}
}

func (m MultiSink) RunCompleted(o refinement.Outcome) {
	for _, s := range m {
		if s != nil {
			s.RunCompleted(o)
		}
	}
}

// ChanSink forwards progress events to a channel without blocking. Events
// that do not fit in the buffer are dropped and counted.
type ChanSink struct {
	events   chan refinement.ProgressEvent
	outcomes chan refinement.Outcome
	dropped  atomic.Int64
}

// NewChanSink creates a ChanSink with the given buffer size.
func NewChanSink(buffer int) *ChanSink {
	return &ChanSink{
		events:   make(chan refinement.ProgressEvent, buffer),
		outcomes: make(chan refinement.Outcome, buffer),
	}
}

// Events returns the progress channel.
func (s *ChanSink) Events() <-chan refinement.ProgressEvent { return s.events }

// Outcomes returns the channel of terminal outcomes.
func (s *ChanSink) Outcomes() <-chan refinement.Outcome { return s.outcomes }

// Dropped returns how many notifications were discarded.
func (s *ChanSink) Dropped() int64 { return s.dropped.Load() }

func (s *ChanSink) IterationCompleted(e refinement.ProgressEvent) {
	select {
	case s.events <- e:
	default:
		s.dropped.Add(1)
	}
}

func (s *ChanSink) RunCompleted(o refinement.Outcome) {
	select {
	case s.outcomes <- o:
	default:
		s.dropped.Add(1)
	}
}
