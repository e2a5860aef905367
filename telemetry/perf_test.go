package telemetry

import (
	"testing"
	"time"

	"github.com/pthm-cable/galaxy/galaxy"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.Record(galaxy.Timings{
			Generate: 3 * time.Millisecond,
			Build:    100 * time.Microsecond,
			Swap:     50 * time.Microsecond,
			Release:  50 * time.Microsecond,
		})
	}

	stats := pc.Stats()

	if stats.Samples != 5 {
		t.Errorf("Samples = %d, want 5", stats.Samples)
	}
	if stats.AvgDuration != 3200*time.Microsecond {
		t.Errorf("AvgDuration = %v, want 3.2ms", stats.AvgDuration)
	}
	for _, phase := range phases {
		if _, ok := stats.PhaseAvg[phase]; !ok {
			t.Errorf("expected %s phase to be tracked", phase)
		}
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5) // Small window

	for i := 1; i <= 10; i++ {
		pc.Record(galaxy.Timings{Generate: time.Duration(i) * time.Millisecond})
	}

	stats := pc.Stats()

	if stats.Samples != 5 {
		t.Errorf("Samples = %d, want 5", stats.Samples)
	}
	// Only 6..10 remain in the window.
	if stats.MinDuration != 6*time.Millisecond || stats.MaxDuration != 10*time.Millisecond {
		t.Errorf("min/max = %v/%v, want 6ms/10ms", stats.MinDuration, stats.MaxDuration)
	}
	if stats.AvgDuration != 8*time.Millisecond {
		t.Errorf("AvgDuration = %v, want 8ms", stats.AvgDuration)
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.Record(galaxy.Timings{Generate: 9 * time.Millisecond, Swap: time.Millisecond})
	}

	stats := pc.Stats()

	if pct := stats.PhasePct[PhaseGenerate]; pct < 89.9 || pct > 90.1 {
		t.Errorf("generate pct = %v, want 90", pct)
	}
	if pct := stats.PhasePct[PhaseSwap]; pct < 9.9 || pct > 10.1 {
		t.Errorf("swap pct = %v, want 10", pct)
	}

	row := stats.ToCSV(3)
	if row.Window != 3 || row.Samples != 5 || row.AvgUS != 10000 {
		t.Errorf("ToCSV = %+v", row)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	// Empty collector should return zero values without panicking
	if stats.AvgDuration != 0 {
		t.Error("expected zero avg duration for empty collector")
	}

	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}

	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// First call establishes baseline
	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond) // ~60fps frame time
	// Second call measures duration
	pc.RecordFrame()

	stats := pc.Stats()

	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}

	if stats.FPS <= 0 {
		t.Error("expected positive FPS")
	}

	// Sleep overshoots on loaded machines, so only bound from above.
	if stats.FPS > 70 {
		t.Errorf("expected FPS <= 70 with 16ms frame time, got %v", stats.FPS)
	}
}
