package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeStats is a snapshot of Go runtime state, reported by the health
// endpoint.
type RuntimeStats struct {
	Goroutines    int64   `json:"goroutines"`
	HeapAllocMB   float64 `json:"heap_alloc_mb"`
	SysMB         float64 `json:"sys_mb"`
	GCCount       uint32  `json:"gc_count"`
	LastGCPauseMS float64 `json:"last_gc_pause_ms"`
	CPUCount      int     `json:"cpu_count"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// RuntimeCollector periodically records runtime gauges.
type RuntimeCollector struct {
	startTime time.Time
	interval  time.Duration

	goroutines metric.Int64Gauge
	heapAlloc  metric.Int64Gauge
	gcPause    metric.Float64Histogram
	uptime     metric.Float64Gauge
}

// NewRuntimeCollector creates the runtime instruments on meter.
func NewRuntimeCollector(meter metric.Meter, interval time.Duration) (*RuntimeCollector, error) {
	c := &RuntimeCollector{startTime: time.Now(), interval: interval}
	var err error

	if c.goroutines, err = meter.Int64Gauge("system_goroutines",
		metric.WithDescription("Number of active goroutines")); err != nil {
		return nil, err
	}
	if c.heapAlloc, err = meter.Int64Gauge("system_memory_usage_bytes",
		metric.WithDescription("Heap bytes in use"),
		metric.WithUnit("By")); err != nil {
		return nil, err
	}
	if c.gcPause, err = meter.Float64Histogram("system_gc_pause_seconds",
		metric.WithDescription("Garbage collection pause duration"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if c.uptime, err = meter.Float64Gauge("system_process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return c, nil
}

// Collect records the current runtime state and returns it.
func (c *RuntimeCollector) Collect(ctx context.Context) RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	lastPause := time.Duration(mem.PauseNs[(mem.NumGC+255)%256])
	stats := RuntimeStats{
		Goroutines:    int64(runtime.NumGoroutine()),
		HeapAllocMB:   float64(mem.HeapAlloc) / (1 << 20),
		SysMB:         float64(mem.Sys) / (1 << 20),
		GCCount:       mem.NumGC,
		LastGCPauseMS: float64(lastPause) / float64(time.Millisecond),
		CPUCount:      runtime.NumCPU(),
		UptimeSeconds: time.Since(c.startTime).Seconds(),
	}

	c.goroutines.Record(ctx, stats.Goroutines)
	c.heapAlloc.Record(ctx, int64(mem.HeapAlloc))
	c.uptime.Record(ctx, stats.UptimeSeconds)
	if lastPause > 0 {
		c.gcPause.Record(ctx, lastPause.Seconds())
	}
	return stats
}

// Run collects every interval until ctx is cancelled.
func (c *RuntimeCollector) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Collect(ctx)
	for {
		select {
		case <-ticker.C:
			c.Collect(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}
