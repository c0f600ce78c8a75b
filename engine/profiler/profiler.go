package profiler

import (
	"log"
	"runtime"
	"time"
)

// Stats is one reporting interval of the profiler.
type Stats struct {
	// FPS is the frame rate over the interval.
	FPS float64
	// Links is the number of program links made during the interval.
	Links int
	// HeapMB is the live heap size at the end of the interval.
	HeapMB float64
	// GCCount is the total number of completed GC cycles.
	GCCount uint32
}

// Profiler tracks frame rate, program relinks and heap usage, logging a summary once
// per interval. A steady nonzero link rate means an expression is flipping shaders
// every frame.
type Profiler struct {
	now            func() time.Time
	updateInterval time.Duration

	frameCount    int
	lastTime      time.Time
	lastLinkCount int
	last          Stats
	memStats      runtime.MemStats
}

// NewProfiler creates a profiler reporting once per second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return newProfiler(time.Now, time.Second)
}

func newProfiler(now func() time.Time, interval time.Duration) *Profiler {
	return &Profiler{
		now:            now,
		updateInterval: interval,
		lastTime:       now(),
	}
}

// Tick should be called once per frame with the running total of program links, as
// reported by Effect.LinkCount. When the interval has elapsed it logs the frame rate
// and the number of links made since the previous report.
//
// Parameters:
//   - linkCount: the cumulative link count
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(linkCount int) bool {
	p.frameCount++
	current := p.now()
	elapsed := current.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	p.last = Stats{
		FPS:     float64(p.frameCount) / elapsed.Seconds(),
		Links:   linkCount - p.lastLinkCount,
		HeapMB:  float64(p.memStats.Alloc) / 1024 / 1024,
		GCCount: p.memStats.NumGC,
	}

	log.Printf("[Profiler] FPS: %.2f | Links: %d | Heap: %.2f MB | GC: %d",
		p.last.FPS, p.last.Links, p.last.HeapMB, p.last.GCCount)

	p.frameCount = 0
	p.lastTime = current
	p.lastLinkCount = linkCount
	return true
}

// Last returns the most recently logged stats, zero before the first report.
//
// Returns:
//   - Stats: the last reported interval
func (p *Profiler) Last() Stats {
	return p.last
}
