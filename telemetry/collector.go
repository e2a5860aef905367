package telemetry

import (
	"log/slog"
	"sync"
	"time"

	"github.com/pthm-cable/galaxy/galaxy"
)

// WindowStats summarizes the regenerations seen in one time window.
type WindowStats struct {
	Window     int     `csv:"window"`
	ElapsedSec float64 `csv:"elapsed_sec"`

	Results    int `csv:"results"`
	OK         int `csv:"ok"`
	Invalid    int `csv:"invalid"`
	Allocation int `csv:"allocation"`
	Superseded int `csv:"superseded"`
	Cancelled  int `csv:"cancelled"`
	Errors     int `csv:"errors"`

	// Over installed results only
	ParticlesInstalled int     `csv:"particles_installed"`
	MeanTotalMS        float64 `csv:"mean_total_ms"`
	MaxTotalMS         float64 `csv:"max_total_ms"`
}

// Collector accumulates regeneration results within time windows and
// produces WindowStats. Results arrive from worker goroutines, so the
// collector is safe for concurrent use.
type Collector struct {
	mu sync.Mutex

	windowDuration time.Duration
	start          time.Time
	windowStart    time.Time
	window         int

	counts    map[string]int
	particles int
	totalMS   float64
	maxMS     float64
}

// NewCollector creates a new stats collector.
// windowDuration: how long each stats window lasts in wall time.
func NewCollector(windowDuration time.Duration) *Collector {
	if windowDuration <= 0 {
		windowDuration = 10 * time.Second
	}
	now := time.Now()
	return &Collector{
		windowDuration: windowDuration,
		start:          now,
		windowStart:    now,
		counts:         make(map[string]int),
	}
}

// Record counts one regeneration result.
func (c *Collector) Record(res galaxy.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := Status(res.Err)
	c.counts[status]++
	if status != StatusOK {
		return
	}
	total := ms(res.Timings.Total())
	c.particles += res.Buffer.Len()
	c.totalMS += total
	if total > c.maxMS {
		c.maxMS = total
	}
}

// ShouldFlush returns true if the current window has run its full length.
func (c *Collector) ShouldFlush(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return now.Sub(c.windowStart) >= c.windowDuration
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(now time.Time) WindowStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := WindowStats{
		Window:             c.window,
		ElapsedSec:         now.Sub(c.start).Seconds(),
		OK:                 c.counts[StatusOK],
		Invalid:            c.counts[StatusInvalid],
		Allocation:         c.counts[StatusAllocation],
		Superseded:         c.counts[StatusSuperseded],
		Cancelled:          c.counts[StatusCancelled],
		Errors:             c.counts[StatusError],
		ParticlesInstalled: c.particles,
		MaxTotalMS:         c.maxMS,
	}
	for _, n := range c.counts {
		stats.Results += n
	}
	if stats.OK > 0 {
		stats.MeanTotalMS = c.totalMS / float64(stats.OK)
	}

	// Reset for next window
	c.window++
	c.windowStart = now
	c.counts = make(map[string]int)
	c.particles = 0
	c.totalMS = 0
	c.maxMS = 0

	return stats
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window", s.Window,
		"elapsed_sec", s.ElapsedSec,
		"results", s.Results,
		"ok", s.OK,
		"invalid", s.Invalid,
		"allocation", s.Allocation,
		"superseded", s.Superseded,
		"cancelled", s.Cancelled,
		"errors", s.Errors,
		"particles_installed", s.ParticlesInstalled,
		"mean_total_ms", s.MeanTotalMS,
		"max_total_ms", s.MaxTotalMS,
	)
}
