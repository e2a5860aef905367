// Package viewer wires the galaxy instances, scene, animation, telemetry and
// UI into a runnable application, in a window or headless.
package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/galaxy/animation"
	"github.com/pthm-cable/galaxy/camera"
	"github.com/pthm-cable/galaxy/config"
	"github.com/pthm-cable/galaxy/galaxy"
	"github.com/pthm-cable/galaxy/renderer"
	"github.com/pthm-cable/galaxy/scene"
	"github.com/pthm-cable/galaxy/telemetry"
	"github.com/pthm-cable/galaxy/ui"
)

const panelWidth = 300

// Options configures an App.
type Options struct {
	Seed          int64         // generator seed, already resolved (never 0 = time-based here)
	LogStats      bool          // log window and generation stats via slog
	StatsWindow   time.Duration // telemetry window length, 0 = collector default
	OutputDir     string        // CSV and config output, empty disables
	SnapshotDir   string        // snapshot destination, empty falls back to OutputDir
	DumpParticles bool          // write particles_<galaxy>.csv for every installed cloud
	Headless      bool
}

// galaxyStatus is the last interesting result of one galaxy, kept for the HUD.
type galaxyStatus struct {
	lastMS float64
	err    string
}

// App is the galaxy viewer.
type App struct {
	cfg  *config.Config
	opts Options

	scene     *scene.Scene
	group     galaxy.NodeID
	instances []*galaxy.Instance
	regens    []*galaxy.Regenerator
	driver    *animation.Driver

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager

	statusMu sync.Mutex
	status   map[string]galaxyStatus

	// Config reloads, delivered by the watcher and applied on the app's own goroutine
	reloads     chan *config.Config
	stopWatcher context.CancelFunc

	frame int64

	// Graphics state, unused headless
	camera             *camera.Orbit
	pointRenderer      *renderer.PointRenderer
	backgroundRenderer *renderer.BackgroundRenderer
	editors            []*ui.Editor
	panel              *ui.Panel
	hud                *ui.HUD
	perfPanel          *ui.PerfPanel
	controlsPanel      *ui.ControlsPanel
	overlays           *ui.OverlayRegistry

	screenWidth, screenHeight int32

	paused    bool
	panelDrag bool
}

// New builds the scene and runs the first generation of every configured
// galaxy. It does not open a window.
func New(cfg *config.Config, opts Options) (*App, error) {
	a := &App{
		cfg:           cfg,
		opts:          opts,
		scene:         scene.New(),
		collector:     telemetry.NewCollector(opts.StatsWindow),
		perfCollector: telemetry.NewPerfCollector(32),
		status:        make(map[string]galaxyStatus),
		reloads:       make(chan *config.Config, 1),
		screenWidth:   int32(cfg.Screen.Width),
		screenHeight:  int32(cfg.Screen.Height),
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	a.outputManager = om

	a.group, err = a.scene.NewGroup(a.scene.Root())
	if err != nil {
		a.outputManager.Close()
		return nil, fmt.Errorf("creating galaxy group: %w", err)
	}

	a.driver, err = animation.New(a.scene, a.group, animation.Settings{
		SpinSpeed:      float32(cfg.Animation.SpinSpeed),
		ScrollStep:     float32(cfg.Animation.ScrollStep),
		ScrollLag:      float32(cfg.Animation.ScrollLag),
		ScrollRotation: config.Vec3(cfg.Animation.ScrollRotation),
		ScrollPosition: config.Vec3(cfg.Animation.ScrollPosition),
	})
	if err != nil {
		a.outputManager.Close()
		return nil, err
	}

	ctx := context.Background()
	for i, g := range cfg.Galaxies {
		inst, err := galaxy.NewInstance(ctx, g.Name, cfg.Derived.Params[i], a.scene, a.group,
			galaxy.WithGenerator(a.generatorFor(i)),
			galaxy.WithObserver(a.observe),
		)
		if err != nil {
			a.Unload()
			return nil, fmt.Errorf("creating galaxy %s: %w", g.Name, err)
		}
		a.instances = append(a.instances, inst)
		a.regens = append(a.regens, galaxy.NewRegenerator(inst, galaxy.WithSettle(cfg.Derived.Settle)))
		a.driver.AddAnchor(inst.Anchor())
	}

	a.initView()

	slog.Info("viewer ready",
		"seed", opts.Seed,
		"galaxies", len(a.instances),
		"clouds", a.scene.CloudCount(),
		"headless", opts.Headless,
	)
	return a, nil
}

// initView builds the camera and UI. None of it touches the GPU until drawn.
func (a *App) initView() {
	c := a.cfg.Camera
	a.camera = camera.New(config.Vec3(c.Position), config.Vec3(c.Target))
	a.camera.FOV = float32(c.FOV)
	a.camera.Near = float32(c.Near)
	a.camera.Far = float32(c.Far)
	a.camera.Damping = float32(c.Damping)
	a.camera.RotateSpeed = float32(c.RotateSpeed)
	a.camera.ZoomSpeed = float32(c.ZoomSpeed)
	a.camera.MinDistance = float32(c.MinDistance)
	a.camera.MaxDistance = float32(c.MaxDistance)
	if c.IntroDuration > 0 {
		a.camera.StartIntro(float32(c.IntroEndX), float32(c.IntroDuration))
	}

	a.editors = make([]*ui.Editor, len(a.instances))
	for i, inst := range a.instances {
		a.editors[i] = ui.NewEditor(inst.Name(), inst.Params(), a.regens[i])
	}
	a.panel = ui.NewPanel(a.screenWidth-panelWidth-10, 10, panelWidth, a.editors)
	a.hud = ui.NewHUD()
	a.perfPanel = ui.NewPerfPanel(10, a.screenHeight-140)
	a.controlsPanel = ui.NewControlsPanel(a.screenWidth-panelWidth*2-20, 10, 220)
	a.overlays = ui.NewOverlayRegistry()
	a.pointRenderer = renderer.NewPointRenderer()
	a.pointRenderer.SetFog(float32(c.FogNear), float32(c.FogFar), a.cfg.Derived.Background)
	a.backgroundRenderer = renderer.NewBackgroundRenderer(a.screenWidth, a.screenHeight, a.cfg.Derived.Background)
}

// generatorFor builds the generator for the i-th galaxy. Regenerators run
// concurrently, so every instance owns its random source.
func (a *App) generatorFor(i int) *galaxy.Generator {
	seed := a.opts.Seed
	if seed != 0 {
		seed += int64(i)
	}
	gen := galaxy.NewGenerator(seed)
	if a.cfg.Generation.MaxParticles > 0 {
		gen.MaxParticles = a.cfg.Generation.MaxParticles
	}
	return gen
}

// Scene returns the scene graph.
func (a *App) Scene() *scene.Scene { return a.scene }

// Instances returns the galaxies in config order.
func (a *App) Instances() []*galaxy.Instance { return a.instances }

// Frame returns the number of frames (or headless rounds) run.
func (a *App) Frame() int64 { return a.frame }

// Update advances one frame: input, config reloads, camera and animation.
func (a *App) Update() {
	a.handleInput()
	a.applyReloads()

	dt := rl.GetFrameTime()
	a.camera.Update(dt)
	if !a.paused {
		a.step(dt)
	}

	a.perfCollector.RecordFrame()
	a.frame++
	a.flushTelemetry(false)
}

// step advances the animation clock.
func (a *App) step(dt float32) {
	if err := a.driver.Update(dt); err != nil {
		slog.Warn("animation_failed", "error", err)
	}
}

// Draw renders the frame.
func (a *App) Draw() {
	// Released clouds are only freed here, on the render thread.
	a.pointRenderer.Evict(a.scene.DrainReleased())

	rl.BeginDrawing()
	a.backgroundRenderer.Draw()

	rl.BeginMode3D(renderer.Camera3D(a.camera))
	eye := a.camera.Position()
	right := renderer.CameraRight(a.camera)
	a.scene.PointClouds(func(r *galaxy.Renderable, world mgl32.Mat4) {
		a.pointRenderer.Draw(r, world, eye, right)
	})
	rl.EndMode3D()

	if a.overlays.IsEnabled(ui.OverlayLabels) {
		a.drawLabels()
	}
	if a.overlays.IsEnabled(ui.OverlayHUD) {
		a.hud.Draw(a.hudData())
	}
	a.panel.Draw()
	if a.overlays.IsEnabled(ui.OverlayPerf) {
		a.perfPanel.Draw(a.perfCollector.Stats())
	}
	if a.overlays.IsEnabled(ui.OverlayControls) {
		a.controlsPanel.Draw(a.overlays)
	} else {
		a.hud.DrawControls(a.screenWidth, a.screenHeight, "C: controls")
	}

	rl.EndDrawing()
}

// drawLabels writes each galaxy's name at its anchor.
func (a *App) drawLabels() {
	w, h := float32(a.screenWidth), float32(a.screenHeight)
	for _, inst := range a.instances {
		world, err := a.scene.WorldMatrix(inst.Anchor())
		if err != nil {
			continue
		}
		p := inst.Params().Offset.Vec4(1)
		x, y, ok := a.camera.WorldToScreen(world.Mul4x1(p).Vec3(), w, h)
		if !ok {
			continue
		}
		rl.DrawText(inst.Name(), int32(x)+6, int32(y)-6, 12, rl.Fade(rl.White, 0.6))
	}
}

func (a *App) hudData() ui.HUDData {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()

	galaxies := make([]ui.GalaxyStatus, len(a.instances))
	for i, inst := range a.instances {
		s := ui.GalaxyStatus{
			Name:    inst.Name(),
			State:   inst.State().String(),
			Pending: a.regens[i].Pending(),
			LastMS:  a.status[inst.Name()].lastMS,
			Err:     a.status[inst.Name()].err,
		}
		if r := inst.Current(); r != nil {
			s.Particles = r.Buffer.Len()
			s.Seq = r.Seq
		}
		galaxies[i] = s
	}

	return ui.HUDData{
		Title:        "Galaxy",
		FPS:          rl.GetFPS(),
		Paused:       a.paused,
		Scroll:       a.driver.Progress(),
		Galaxies:     galaxies,
		ScreenWidth:  a.screenWidth,
		ScreenHeight: a.screenHeight,
	}
}

// CurrentConfig returns the loaded config with every galaxy replaced by its
// current parameters.
func (a *App) CurrentConfig() (*config.Config, error) {
	out := *a.cfg
	gs := make([]config.GalaxyConfig, len(a.instances))
	for i, inst := range a.instances {
		gs[i] = configFor(inst.Name(), a.cfg.Galaxies[i].Preset, inst.Params())
	}
	if err := out.SetGalaxies(gs); err != nil {
		return nil, err
	}
	return &out, nil
}

// configFor builds a resolved config entry that still records its preset.
func configFor(name, preset string, p galaxy.Parameters) config.GalaxyConfig {
	g := config.FromParams(name, p)
	g.Preset = preset
	return g
}

// Unload stops the workers, removes every galaxy from the scene and closes
// the telemetry output. The edited configuration is written alongside the
// CSV files.
func (a *App) Unload() {
	if a.stopWatcher != nil {
		a.stopWatcher()
	}
	for _, r := range a.regens {
		r.Close()
	}

	if a.outputManager != nil {
		if cfg, err := a.CurrentConfig(); err != nil {
			slog.Error("failed to build config", "error", err)
		} else if err := a.outputManager.WriteConfig(cfg); err != nil {
			slog.Error("failed to write config", "error", err)
		}
	}

	for _, inst := range a.instances {
		if err := inst.Close(); err != nil {
			slog.Warn("galaxy_close_failed", "galaxy", inst.Name(), "error", err)
		}
	}
	if a.pointRenderer != nil {
		a.pointRenderer.Evict(a.scene.DrainReleased())
	}

	a.flushTelemetry(true)
	if err := a.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
