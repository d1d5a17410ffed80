// Package metrics is a tiny facade for run metrics.
//
// The cleaning pipeline only ever calls the helpers in this package; the
// process entry point decides which backend (if any) receives the data. The
// default backend is a nop, so library code never has to nil-check.
package metrics

import (
	"sync"
	"time"
)

// Labels are free-form metric dimensions.
type Labels map[string]string

// Backend receives raw metric events. Implementations must be safe for
// concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

// Metric names emitted by the pipeline.
const (
	MetricRowsTotal          = "clean_rows_total"             // labels: kind=in|out
	MetricStageDropsTotal    = "clean_stage_drops_total"      // labels: stage
	MetricStageDurationSecs  = "clean_stage_duration_seconds" // labels: stage
	MetricRunDurationSeconds = "clean_run_duration_seconds"
)

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs the process-wide metrics backend.
func SetBackend(b Backend) {
	if b == nil {
		b = nopBackend{}
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush forwards to the installed backend.
func Flush() error { return current().Flush() }

// IncRows counts ingested ("in") or egressed ("out") rows.
func IncRows(kind string, n int) {
	if n <= 0 {
		return
	}
	current().IncCounter(MetricRowsTotal, float64(n), Labels{"kind": kind})
}

// IncStageDrops counts rows removed by a cleaning stage.
func IncStageDrops(stage string, n int) {
	if n <= 0 {
		return
	}
	current().IncCounter(MetricStageDropsTotal, float64(n), Labels{"stage": stage})
}

// ObserveStageDuration records how long a stage took.
func ObserveStageDuration(stage string, d time.Duration) {
	current().ObserveHistogram(MetricStageDurationSecs, d.Seconds(), Labels{"stage": stage})
}

// ObserveRunDuration records the wall time of a whole cleaning run.
func ObserveRunDuration(d time.Duration) {
	current().ObserveHistogram(MetricRunDurationSeconds, d.Seconds(), nil)
}
