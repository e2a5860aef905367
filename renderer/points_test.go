package renderer

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/galaxy/camera"
	"github.com/pthm-cable/galaxy/galaxy"
)

func TestColorsForConvertsToSRGB(t *testing.T) {
	buf := galaxy.NewBuffer(2)
	inside := galaxy.MustParseColor("#ff5588")
	outside := galaxy.MustParseColor("#00fbff")
	copy(buf.Colors, []float32{inside.R, inside.G, inside.B, outside.R, outside.G, outside.B})

	colors := colorsFor(buf)
	if len(colors) != 2 {
		t.Fatalf("expected 2 colors, got %d", len(colors))
	}
	if c := colors[0]; c.R != 0xff || c.G != 0x55 || c.B != 0x88 || c.A != 255 {
		t.Errorf("expected #ff5588, got %+v", c)
	}
	if c := colors[1]; c.R != 0x00 || c.G != 0xfb || c.B != 0xff {
		t.Errorf("expected #00fbff, got %+v", c)
	}
}

func TestCacheEviction(t *testing.T) {
	p := NewPointRenderer()
	a := &galaxy.Renderable{ID: "a", Buffer: galaxy.NewBuffer(3)}
	b := &galaxy.Renderable{ID: "b", Buffer: galaxy.NewBuffer(5)}

	if p.prepare(a) != p.prepare(a) {
		t.Error("expected cached data to be reused")
	}
	p.prepare(b)
	if p.Cached() != 2 {
		t.Fatalf("expected 2 cached clouds, got %d", p.Cached())
	}

	p.Evict([]*galaxy.Renderable{a})
	if p.Cached() != 1 {
		t.Errorf("expected 1 cached cloud after eviction, got %d", p.Cached())
	}
	if _, ok := p.cache["b"]; !ok {
		t.Error("evicted the wrong cloud")
	}
}

func TestStrokeOffsetIgnoresScale(t *testing.T) {
	world := mgl32.Translate3D(1, 2, 3).
		Mul4(mgl32.HomogRotate3DY(0.7)).
		Mul4(mgl32.Scale3D(4, 4, 4))
	right := mgl32.Vec3{0, 0, 2}

	half := strokeOffset(world, right, 0.5)

	// Back in world space the half stroke is 0.25 long and points along right.
	w := world.Mul4x1(half.Vec4(0)).Vec3()
	if !w.ApproxEqualThreshold(mgl32.Vec3{0, 0, 0.25}, 1e-5) {
		t.Errorf("expected world half stroke (0, 0, 0.25), got %v", w)
	}
	if got := strokeOffset(world, mgl32.Vec3{}, 0.5); got != (mgl32.Vec3{}) {
		t.Errorf("expected zero offset for zero right vector, got %v", got)
	}
}

func TestCameraConversion(t *testing.T) {
	o := camera.New(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{})

	c := Camera3D(o)
	if c.Position.Z < 4.999 || c.Fovy != o.FOV {
		t.Errorf("unexpected raylib camera %+v", c)
	}

	// Looking down -z with +y up, right is +x.
	if r := CameraRight(o); !r.ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, 1e-5) {
		t.Errorf("expected right (1, 0, 0), got %v", r)
	}
}

func TestFogAmount(t *testing.T) {
	tests := []struct {
		d, want float32
	}{
		{-1, 0},
		{0, 0},
		{3.5, 0.5},
		{7, 1},
		{20, 1},
	}
	for _, tt := range tests {
		if got := fogAmount(tt.d, 0, 7); got < tt.want-1e-6 || got > tt.want+1e-6 {
			t.Errorf("fogAmount(%v) = %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestFoggedBlendsTowardBackground(t *testing.T) {
	p := NewPointRenderer()
	p.SetFog(0, 7, galaxy.MustParseColor("#1a1a1a"))
	col := rl.Color{R: 200, G: 100, B: 0, A: 255}

	if got := fogged(col, p.fogColor, 0); got != col {
		t.Errorf("expected unchanged color, got %+v", got)
	}
	if got := fogged(col, p.fogColor, 1); got != (rl.Color{R: 0x1a, G: 0x1a, B: 0x1a, A: 255}) {
		t.Errorf("expected fog color, got %+v", got)
	}
	if got := fogged(col, p.fogColor, 0.5); got.R != 113 || got.G != 63 || got.B != 13 {
		t.Errorf("expected halfway blend, got %+v", got)
	}
}
