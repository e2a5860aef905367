package viewer

import (
	"errors"
	"log/slog"
	"time"

	"github.com/pthm-cable/galaxy/galaxy"
	"github.com/pthm-cable/galaxy/telemetry"
)

// observe receives every generation result. It runs on whichever goroutine
// regenerated: the caller of New for the first generation, the galaxy's
// regenerator afterwards.
func (a *App) observe(res galaxy.Result) {
	a.collector.Record(res)
	if res.Err == nil {
		a.perfCollector.Record(res.Timings)
	}

	rec := telemetry.NewGenerationRecord(res, a.cfg.Telemetry.StatsSample)
	if a.opts.LogStats {
		rec.LogStats()
	}
	if err := a.outputManager.WriteGeneration(rec); err != nil {
		slog.Error("failed to write generation", "error", err)
	}
	if res.Buffer != nil && (a.opts.DumpParticles || a.cfg.Telemetry.DumpParticles) {
		if err := a.outputManager.WriteParticles(res.Instance, res.Buffer); err != nil {
			slog.Error("failed to write particles", "galaxy", res.Instance, "error", err)
		}
	}

	a.statusMu.Lock()
	defer a.statusMu.Unlock()
	s := a.status[res.Instance]
	switch {
	case res.Err == nil:
		s.lastMS = rec.TotalMS
		s.err = ""
	case errors.Is(res.Err, galaxy.ErrSuperseded), rec.Status == telemetry.StatusCancelled:
		// A newer generation is on its way; keep the last outcome.
	default:
		s.err = res.Err.Error()
	}
	a.status[res.Instance] = s
}

// flushTelemetry closes the stats window when it is due, or always if force.
func (a *App) flushTelemetry(force bool) {
	now := time.Now()
	if !force && !a.collector.ShouldFlush(now) {
		return
	}

	stats := a.collector.Flush(now)
	perfStats := a.perfCollector.Stats()

	// Log stats if enabled (console output)
	if a.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if a.outputManager != nil {
		if err := a.outputManager.WriteWindow(stats); err != nil {
			slog.Error("failed to write window stats", "error", err)
		}
		if err := a.outputManager.WritePerf(perfStats, stats.Window); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// SaveSnapshot writes the parameters of every galaxy to disk and returns
// the path, or "" on failure.
func (a *App) SaveSnapshot(label string) string {
	dir := a.opts.SnapshotDir
	if dir == "" {
		dir = a.outputManager.Dir()
	}
	if dir == "" {
		dir = "snapshots"
	}

	path, err := telemetry.SaveSnapshot(a.Snapshot(label), dir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return ""
	}

	slog.Info("snapshot saved", "path", path, "frame", a.frame)
	return path
}

// Snapshot captures the current parameters and cloud shape of every galaxy.
func (a *App) Snapshot(label string) *telemetry.Snapshot {
	snapshot := &telemetry.Snapshot{
		Version: telemetry.SnapshotVersion,
		Seed:    a.opts.Seed,
		Frame:   a.frame,
		Label:   label,
	}

	for i, inst := range a.instances {
		p := inst.Params()
		g := a.cfg.Galaxies[i]
		gc := configFor(g.Name, g.Preset, p)

		state := telemetry.GalaxyState{
			Config: gc,
			State:  inst.State().String(),
		}
		if r := inst.Current(); r != nil {
			state.Seq = r.Seq
			state.Stats = telemetry.ComputeCloudStats(r.Buffer, p, a.cfg.Telemetry.StatsSample)
		}
		snapshot.Galaxies = append(snapshot.Galaxies, state)
	}

	return snapshot
}
