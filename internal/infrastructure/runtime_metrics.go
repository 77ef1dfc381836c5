package infrastructure

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeMetrics records Go runtime health around pipeline runs. The panel
// and factor stages allocate in proportion to the dataset, so heap and GC
// figures per run are the first thing to look at when a run slows down.
type RuntimeMetrics struct {
	goroutines metric.Int64Gauge
	heapAlloc  metric.Int64Gauge
	heapSys    metric.Int64Gauge
	gcCount    metric.Int64Counter
	gcPause    metric.Float64Histogram

	mu        sync.Mutex
	lastNumGC uint32
}

// RuntimeStats is one snapshot of the Go runtime.
type RuntimeStats struct {
	Goroutines  int
	HeapAlloc   uint64
	HeapSys     uint64
	GCCount     uint32
	LastGCPause time.Duration
}

// NewRuntimeMetrics creates the runtime instruments on the given meter.
func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	goroutines, err := meter.Int64Gauge(
		"runtime_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, err
	}

	heapAlloc, err := meter.Int64Gauge(
		"runtime_heap_alloc_bytes",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	heapSys, err := meter.Int64Gauge(
		"runtime_heap_sys_bytes",
		metric.WithDescription("Bytes of heap memory obtained from the OS"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	gcCount, err := meter.Int64Counter(
		"runtime_gc_total",
		metric.WithDescription("Total number of completed garbage collections"),
	)
	if err != nil {
		return nil, err
	}

	gcPause, err := meter.Float64Histogram(
		"runtime_gc_pause_seconds",
		metric.WithDescription("Most recent garbage collection pause duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RuntimeMetrics{
		goroutines: goroutines,
		heapAlloc:  heapAlloc,
		heapSys:    heapSys,
		gcCount:    gcCount,
		gcPause:    gcPause,
	}, nil
}

// Sample reads the runtime, records the instruments, and returns the
// snapshot. GC count and pause are only recorded when a collection has
// completed since the previous sample, so repeated samples do not
// double-count the same collection.
func (rm *RuntimeMetrics) Sample(ctx context.Context) RuntimeStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	stats := RuntimeStats{
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  ms.HeapAlloc,
		HeapSys:    ms.HeapSys,
		GCCount:    ms.NumGC,
	}
	if ms.NumGC > 0 {
		stats.LastGCPause = time.Duration(ms.PauseNs[(ms.NumGC+255)%256])
	}

	rm.mu.Lock()
	newCollections := ms.NumGC - rm.lastNumGC
	rm.lastNumGC = ms.NumGC
	rm.mu.Unlock()

	rm.goroutines.Record(ctx, int64(stats.Goroutines))
	rm.heapAlloc.Record(ctx, int64(stats.HeapAlloc))
	rm.heapSys.Record(ctx, int64(stats.HeapSys))

	if newCollections > 0 {
		rm.gcCount.Add(ctx, int64(newCollections))
		rm.gcPause.Record(ctx, stats.LastGCPause.Seconds())
	}

	return stats
}
