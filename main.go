package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/galaxy/config"
	"github.com/pthm-cable/galaxy/telemetry"
	"github.com/pthm-cable/galaxy/viewer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 10, "Stats window size in seconds")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files (empty = output dir)")
	restore := flag.String("restore", "", "Snapshot file to restore galaxies and seed from")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config, then time-based)")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")
	regenerations := flag.Int("regenerations", 1, "Headless regeneration rounds after the initial generation")
	watch := flag.Bool("watch", false, "Reload the config file on change and regenerate edited galaxies")
	dumpParticles := flag.Bool("dump-particles", false, "Write particles_<galaxy>.csv for every installed cloud")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if *restore != "" {
		snapshot, err := telemetry.LoadSnapshot(*restore)
		if err != nil {
			slog.Error("failed to load snapshot", "error", err)
			os.Exit(1)
		}
		if err := cfg.SetGalaxies(snapshot.Configs()); err != nil {
			slog.Error("failed to restore snapshot", "path", *restore, "error", err)
			os.Exit(1)
		}
		if rngSeed == 0 {
			rngSeed = snapshot.Seed
		}
		slog.Info("snapshot restored", "path", *restore, "galaxies", len(snapshot.Galaxies))
	}
	if rngSeed == 0 {
		rngSeed = cfg.Generation.Seed
	}
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := viewer.Options{
		Seed:          rngSeed,
		LogStats:      *logStats,
		StatsWindow:   time.Duration(*statsWindow * float64(time.Second)),
		OutputDir:     *outputDir,
		SnapshotDir:   *snapshotDir,
		DumpParticles: *dumpParticles,
		Headless:      *headless,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *watch && *configPath == "" {
		slog.Warn("-watch needs -config, ignoring")
		*watch = false
	}

	if *headless {
		// Headless mode - generation and telemetry only, no raylib window
		app, err := viewer.New(cfg, opts)
		if err != nil {
			slog.Error("failed to start", "error", err)
			os.Exit(1)
		}
		defer app.Unload()

		if *watch {
			if err := app.Watch(ctx, *configPath); err != nil {
				slog.Error("failed to watch config", "error", err)
			}
		}

		slog.Info("starting headless run",
			"seed", rngSeed,
			"regenerations", *regenerations,
			"watch", *watch,
		)

		if err := app.RunHeadless(ctx, *regenerations); err != nil {
			slog.Error("headless run failed", "error", err)
			return
		}
		if *snapshotDir != "" {
			app.SaveSnapshot("final")
		}
		return
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Galaxy")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	app, err := viewer.New(cfg, opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		return
	}
	defer app.Unload()

	if *watch {
		if err := app.Watch(ctx, *configPath); err != nil {
			slog.Error("failed to watch config", "error", err)
		}
	}

	for !rl.WindowShouldClose() && ctx.Err() == nil {
		app.Update()
		app.Draw()

		if *maxFrames > 0 && int(app.Frame()) >= *maxFrames {
			slog.Info("max frames reached", "frame", app.Frame())
			break
		}
	}
}
