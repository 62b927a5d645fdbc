package diffmap

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting per-stage
// pipeline metrics. Implement this interface to integrate with
// monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordNeighborSearch is called after the neighbor graph stage.
	RecordNeighborSearch(duration time.Duration, err error)

	// RecordKernel is called after kernel and operator construction.
	RecordKernel(duration time.Duration)

	// RecordEigen is called after the eigendecomposition stage.
	// err is non-nil when the solver returned a degraded result.
	RecordEigen(duration time.Duration, err error)

	// RecordSelection is called with the selected component count.
	RecordSelection(m int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordNeighborSearch(time.Duration, error) {}
func (NoopMetricsCollector) RecordKernel(time.Duration)                {}
func (NoopMetricsCollector) RecordEigen(time.Duration, error)          {}
func (NoopMetricsCollector) RecordSelection(int)                       {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external
// dependencies.
type BasicMetricsCollector struct {
	NeighborSearchCount  atomic.Int64
	NeighborSearchErrors atomic.Int64
	NeighborSearchNanos  atomic.Int64
	KernelCount          atomic.Int64
	KernelNanos          atomic.Int64
	EigenCount           atomic.Int64
	EigenDegraded        atomic.Int64
	EigenNanos           atomic.Int64
	SelectionCount       atomic.Int64
	LastSelection        atomic.Int64
}

// RecordNeighborSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordNeighborSearch(d time.Duration, err error) {
	b.NeighborSearchCount.Add(1)
	b.NeighborSearchNanos.Add(d.Nanoseconds())
	if err != nil {
		b.NeighborSearchErrors.Add(1)
	}
}

// RecordKernel implements MetricsCollector.
func (b *BasicMetricsCollector) RecordKernel(d time.Duration) {
	b.KernelCount.Add(1)
	b.KernelNanos.Add(d.Nanoseconds())
}

// RecordEigen implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEigen(d time.Duration, err error) {
	b.EigenCount.Add(1)
	b.EigenNanos.Add(d.Nanoseconds())
	if err != nil {
		b.EigenDegraded.Add(1)
	}
}

// RecordSelection implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSelection(m int) {
	b.SelectionCount.Add(1)
	b.LastSelection.Store(int64(m))
}
