package telemetry

import (
	"log/slog"
	"sync"
	"time"

	"github.com/pthm-cable/galaxy/galaxy"
)

// Phase names for a regeneration.
const (
	PhaseGenerate = "generate"
	PhaseBuild    = "build"
	PhaseSwap     = "swap"
	PhaseRelease  = "release"
)

var phases = []string{PhaseGenerate, PhaseBuild, PhaseSwap, PhaseRelease}

// PerfSample holds timing data for a single regeneration.
type PerfSample struct {
	Total  time.Duration
	Phases map[string]time.Duration
}

// PerfCollector tracks regeneration timings over a rolling window, plus
// frame timing in graphics mode. Regenerations are recorded from worker
// goroutines, so the collector is safe for concurrent use.
type PerfCollector struct {
	mu          sync.Mutex
	windowSize  int
	samples     []PerfSample
	writeIndex  int
	sampleCount int

	// Frame timing (for graphics mode)
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of regenerations to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 32
	}
	return &PerfCollector{
		windowSize: windowSize,
		samples:    make([]PerfSample, windowSize),
	}
}

// Record adds the phase timings of one regeneration.
func (p *PerfCollector) Record(t galaxy.Timings) {
	sample := PerfSample{
		Total: t.Total(),
		Phases: map[string]time.Duration{
			PhaseGenerate: t.Generate,
			PhaseBuild:    t.Build,
			PhaseSwap:     t.Swap,
			PhaseRelease:  t.Release,
		},
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.samples[p.writeIndex] = sample
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordFrame records frame timing for graphics mode.
func (p *PerfCollector) RecordFrame() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	Samples int

	// Regeneration timing
	AvgDuration time.Duration
	MinDuration time.Duration
	MaxDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total regeneration time
	PhasePct map[string]float64

	// Frame timing (graphics mode)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Frame timing is always available (independent of regeneration samples)
	var fps float64
	if p.frameDuration > 0 {
		fps = float64(time.Second) / float64(p.frameDuration)
	}

	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg:      make(map[string]time.Duration),
			PhasePct:      make(map[string]float64),
			FrameDuration: p.frameDuration,
			FPS:           fps,
		}
	}

	var total time.Duration
	var minDur, maxDur time.Duration
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.Total

		if i == 0 || s.Total < minDur {
			minDur = s.Total
		}
		if s.Total > maxDur {
			maxDur = s.Total
		}

		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	return PerfStats{
		Samples:       p.sampleCount,
		AvgDuration:   avg,
		MinDuration:   minDur,
		MaxDuration:   maxDur,
		PhaseAvg:      phaseAvg,
		PhasePct:      phasePct,
		FrameDuration: p.frameDuration,
		FPS:           fps,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"samples", s.Samples,
		"avg_us", s.AvgDuration.Microseconds(),
		"min_us", s.MinDuration.Microseconds(),
		"max_us", s.MaxDuration.Microseconds(),
	}

	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}

	for _, phase := range phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("samples", s.Samples),
		slog.Int64("avg_us", s.AvgDuration.Microseconds()),
		slog.Int64("min_us", s.MinDuration.Microseconds()),
		slog.Int64("max_us", s.MaxDuration.Microseconds()),
	}

	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}

	for _, phase := range phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Window      int     `csv:"window"`
	Samples     int     `csv:"samples"`
	AvgUS       int64   `csv:"avg_us"`
	MinUS       int64   `csv:"min_us"`
	MaxUS       int64   `csv:"max_us"`
	FPS         float64 `csv:"fps"`
	GeneratePct float64 `csv:"generate_pct"`
	BuildPct    float64 `csv:"build_pct"`
	SwapPct     float64 `csv:"swap_pct"`
	ReleasePct  float64 `csv:"release_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(window int) PerfStatsCSV {
	return PerfStatsCSV{
		Window:      window,
		Samples:     s.Samples,
		AvgUS:       s.AvgDuration.Microseconds(),
		MinUS:       s.MinDuration.Microseconds(),
		MaxUS:       s.MaxDuration.Microseconds(),
		FPS:         s.FPS,
		GeneratePct: s.PhasePct[PhaseGenerate],
		BuildPct:    s.PhasePct[PhaseBuild],
		SwapPct:     s.PhasePct[PhaseSwap],
		ReleasePct:  s.PhasePct[PhaseRelease],
	}
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
