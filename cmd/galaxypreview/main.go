// Galaxy preview tool - renders configured galaxies to a PNG without a window.
//
// Usage: go run ./cmd/galaxypreview -config galaxy.yaml -out preview.png
package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/galaxy/config"
	"github.com/pthm-cable/galaxy/galaxy"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	name := flag.String("galaxy", "", "Galaxy to render (empty = all)")
	out := flag.String("out", "preview.png", "Output PNG path")
	size := flag.Int("size", 768, "Image size in pixels")
	supersample := flag.Int("supersample", 2, "Supersampling factor")
	exposure := flag.Float64("exposure", 0.2, "Light added per particle")
	view := flag.String("view", string(ViewTop), "Projection: top or side")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config, then time-based)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(*configPath, *name, *out, *seed, PreviewParams{
		Size:        *size,
		Supersample: *supersample,
		Exposure:    float32(*exposure),
		View:        View(*view),
	}); err != nil {
		slog.Error("preview failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, name, out string, seed int64, pp PreviewParams) error {
	if pp.View != ViewTop && pp.View != ViewSide {
		return fmt.Errorf("unknown view %q", pp.View)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if seed == 0 {
		seed = cfg.Generation.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var params []galaxy.Parameters
	for i, g := range cfg.Galaxies {
		if name == "" || g.Name == name {
			params = append(params, cfg.Derived.Params[i])
		}
	}
	if len(params) == 0 {
		return fmt.Errorf("no galaxy named %q", name)
	}

	gen := galaxy.NewGenerator(seed)
	if cfg.Generation.MaxParticles > 0 {
		gen.MaxParticles = cfg.Generation.MaxParticles
	}

	start := time.Now()
	clouds := make([]Cloud, len(params))
	for i, p := range params {
		buf, err := gen.Generate(context.Background(), p)
		if err != nil {
			return err
		}
		clouds[i] = Cloud{Buffer: buf}
	}
	genTime := time.Since(start)

	pp.Extent = extentFor(params)
	pp.Background = cfg.Derived.Background

	start = time.Now()
	img := Render(clouds, pp)
	renderTime := time.Since(start)

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}

	slog.Info("preview written",
		"path", out,
		"galaxies", len(clouds),
		"seed", seed,
		"generate_ms", genTime.Milliseconds(),
		"render_ms", renderTime.Milliseconds(),
	)
	return nil
}
