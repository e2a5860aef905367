package main

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/galaxy/galaxy"
)

func TestRenderSplatsParticle(t *testing.T) {
	buf := galaxy.NewBuffer(1)
	copy(buf.Colors, []float32{1, 0, 0})

	pp := PreviewParams{Size: 10, Supersample: 1, Exposure: 10, Extent: 1, View: ViewTop}
	img := Render([]Cloud{{Buffer: buf}}, pp)

	// The origin lands in the center pixel.
	if c := img.RGBAAt(5, 5); c.R < 250 || c.G != 0 || c.B != 0 {
		t.Errorf("expected saturated red at center, got %+v", c)
	}
	if c := img.RGBAAt(0, 0); c.R != 0 {
		t.Errorf("expected black corner, got %+v", c)
	}
}

func TestRenderSideView(t *testing.T) {
	buf := galaxy.NewBuffer(1)
	copy(buf.Positions, []float32{0, 0.5, 0})
	copy(buf.Colors, []float32{0, 0, 1})

	pp := PreviewParams{Size: 10, Supersample: 1, Exposure: 10, Extent: 1, View: ViewSide}
	img := Render([]Cloud{{Buffer: buf}}, pp)

	// +y is up, so the particle sits above the center row.
	if c := img.RGBAAt(5, 2); c.B < 250 {
		t.Errorf("expected blue above center, got %+v", c)
	}
}

func TestExtentFor(t *testing.T) {
	params := []galaxy.Parameters{
		{Radius: 5},
		{Radius: 2, Offset: mgl32.Vec3{0, 0, 4}},
	}
	if got := extentFor(params); got < 6.59 || got > 6.61 {
		t.Errorf("expected extent 6.6, got %v", got)
	}
}

func TestRunWritesPNG(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "galaxy.yaml")
	data := []byte("galaxies:\n  - name: small\n    preset: classic\n    particle_count: 3000\n")
	if err := os.WriteFile(cfgPath, data, 0644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "preview.png")
	pp := PreviewParams{Size: 64, Supersample: 2, Exposure: 0.2, View: ViewTop}
	if err := run(cfgPath, "", out, 3, pp); err != nil {
		t.Fatalf("run: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 64 {
		t.Errorf("expected 64x64, got %v", b)
	}

	if err := run(cfgPath, "missing", out, 3, pp); err == nil {
		t.Error("expected error for unknown galaxy")
	}
}
