package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/galaxy/config"
)

// headlessStep is the animation step per headless round.
const headlessStep = float32(1.0 / 60)

// Watch reloads the config file at path whenever it changes. Reloaded
// galaxies are committed on the app's goroutine: in Update, or in
// RunHeadless.
func (a *App) Watch(ctx context.Context, path string) error {
	ctx, cancel := context.WithCancel(ctx)
	err := config.Watch(ctx, path, func(cfg *config.Config) {
		// Only the latest reload matters.
		for {
			select {
			case a.reloads <- cfg:
				return
			default:
			}
			select {
			case <-a.reloads:
			default:
			}
		}
	})
	if err != nil {
		cancel()
		return err
	}
	a.stopWatcher = cancel
	return nil
}

// applyReloads applies a pending config reload, if any.
func (a *App) applyReloads() {
	select {
	case cfg := <-a.reloads:
		a.applyReload(cfg)
	default:
	}
}

// applyReload commits every galaxy whose parameters changed. Galaxies are
// matched by name; entries the running scene does not have are ignored.
func (a *App) applyReload(cfg *config.Config) int {
	committed := 0
	for i, inst := range a.instances {
		_, p, ok := cfg.Galaxy(inst.Name())
		if !ok {
			slog.Warn("galaxy missing from reloaded config", "galaxy", inst.Name())
			continue
		}
		if p == inst.Params() {
			continue
		}
		if err := a.regens[i].Commit(p); err != nil {
			slog.Error("failed to commit reloaded galaxy", "galaxy", inst.Name(), "error", err)
			continue
		}
		a.editors[i].Reset(p)
		committed++
	}
	if committed > 0 {
		slog.Info("config applied", "galaxies", committed)
	}
	return committed
}

// RunHeadless regenerates every galaxy rounds times through its
// regenerator, waiting for each round to be applied. With a watcher
// running it then keeps applying reloads until ctx is done.
func (a *App) RunHeadless(ctx context.Context, rounds int) error {
	for i := 0; i < rounds; i++ {
		for _, r := range a.regens {
			if err := r.Commit(r.Instance().Params()); err != nil {
				return fmt.Errorf("round %d: %w", i, err)
			}
		}
		if err := a.flush(ctx); err != nil {
			return err
		}
		a.step(headlessStep)
		a.frame++
		a.flushTelemetry(false)
	}

	if a.stopWatcher == nil {
		return nil
	}

	slog.Info("watching for config changes")
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg := <-a.reloads:
			if a.applyReload(cfg) == 0 {
				continue
			}
			// Only a done ctx fails a flush.
			if err := a.flush(ctx); err != nil {
				return nil
			}
			a.frame++
		case <-ticker.C:
			a.flushTelemetry(false)
		}
	}
}

// flush waits until every regenerator has applied its commits.
func (a *App) flush(ctx context.Context) error {
	for _, r := range a.regens {
		if err := r.Flush(ctx); err != nil {
			return err
		}
	}
	return nil
}
