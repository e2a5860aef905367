// Package renderer draws the scene with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/galaxy/galaxy"
)

// pointsPerBatch bounds the vertices sent between batch limit checks.
const pointsPerBatch = 4096

// cloud is the draw-ready copy of one renderable.
type cloud struct {
	colors []rl.Color // sRGB, one per particle
}

// PointRenderer draws point clouds as short camera-facing strokes with
// additive blending. Colors are converted to 8-bit sRGB once per
// renderable and cached until the scene releases it.
type PointRenderer struct {
	cache map[galaxy.ResourceID]*cloud

	fogNear, fogFar float32
	fogColor        rl.Color
}

// NewPointRenderer creates a new point renderer.
func NewPointRenderer() *PointRenderer {
	return &PointRenderer{cache: make(map[galaxy.ResourceID]*cloud)}
}

// prepare returns the cached draw data for r, building it on first use.
func (p *PointRenderer) prepare(r *galaxy.Renderable) *cloud {
	if c, ok := p.cache[r.ID]; ok {
		return c
	}
	c := &cloud{colors: colorsFor(r.Buffer)}
	p.cache[r.ID] = c
	return c
}

// colorsFor converts a buffer's linear colors to opaque sRGB.
func colorsFor(buf *galaxy.Buffer) []rl.Color {
	n := buf.Len()
	colors := make([]rl.Color, n)
	for i := 0; i < n; i++ {
		r, g, b := buf.Color(i).SRGB8()
		colors[i] = rl.Color{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// Evict drops cached data for renderables the scene has released.
func (p *PointRenderer) Evict(released []*galaxy.Renderable) {
	for _, r := range released {
		delete(p.cache, r.ID)
	}
}

// SetFog fades points toward color as their distance from the eye goes
// from near to far. A far distance of zero disables fog.
func (p *PointRenderer) SetFog(near, far float32, color galaxy.Color) {
	p.fogNear, p.fogFar = near, far
	r, g, b := color.SRGB8()
	p.fogColor = rl.Color{R: r, G: g, B: b, A: 255}
}

// Cached returns the number of renderables with cached draw data.
func (p *PointRenderer) Cached() int { return len(p.cache) }

// Draw renders r under its world matrix. eye is the camera position and
// camRight its right vector, both in world space; strokes are laid along
// camRight so they face the viewer.
// Must be called between rl.BeginMode3D and rl.EndMode3D.
func (p *PointRenderer) Draw(r *galaxy.Renderable, world mgl32.Mat4, eye, camRight mgl32.Vec3) {
	n := r.Buffer.Len()
	if n == 0 {
		return
	}
	c := p.prepare(r)
	half := strokeOffset(world, camRight, r.Material.Size)

	fog := p.fogFar > p.fogNear && p.fogFar > 0
	var localEye mgl32.Vec3
	var scale float32
	if fog {
		localEye = world.Inv().Mul4x1(eye.Vec4(1)).Vec3()
		scale = world.Col(0).Vec3().Len()
	}

	if r.Material.Additive {
		rl.BeginBlendMode(rl.BlendAdditive)
		defer rl.EndBlendMode()
	}

	rl.PushMatrix()
	rl.MultMatrixf(world[:])

	pos := r.Buffer.Positions
	for start := 0; start < n; start += pointsPerBatch {
		end := min(start+pointsPerBatch, n)
		rl.CheckRenderBatchLimit(int32(2 * (end - start)))

		rl.Begin(rl.Lines)
		for i := start; i < end; i++ {
			col := c.colors[i]
			x, y, z := pos[3*i], pos[3*i+1], pos[3*i+2]
			if fog {
				d := mgl32.Vec3{x, y, z}.Sub(localEye).Len() * scale
				col = fogged(col, p.fogColor, fogAmount(d, p.fogNear, p.fogFar))
			}
			rl.Color4ub(col.R, col.G, col.B, col.A)
			rl.Vertex3f(x-half[0], y-half[1], z-half[2])
			rl.Vertex3f(x+half[0], y+half[1], z+half[2])
		}
		rl.End()
	}

	rl.PopMatrix()
}

// strokeOffset returns half a stroke of the given world length, expressed
// in the cloud's local space.
func strokeOffset(world mgl32.Mat4, camRight mgl32.Vec3, size float32) mgl32.Vec3 {
	l := camRight.Len()
	if l == 0 {
		return mgl32.Vec3{}
	}
	// Mapping back through world gives exactly camRight, so the stroke's
	// world length does not depend on node scale.
	local := world.Inv().Mul4x1(camRight.Vec4(0)).Vec3()
	return local.Mul(size / 2 / l)
}

// fogAmount is the fog weight at distance d, eased from 0 at near to 1 at far.
func fogAmount(d, near, far float32) float32 {
	t := (d - near) / (far - near)
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

// fogged blends col toward fog by amount.
func fogged(col, fog rl.Color, amount float32) rl.Color {
	if amount == 0 {
		return col
	}
	mix := func(a, b uint8) uint8 {
		return uint8(float32(a) + (float32(b)-float32(a))*amount + 0.5)
	}
	return rl.Color{R: mix(col.R, fog.R), G: mix(col.G, fog.G), B: mix(col.B, fog.B), A: col.A}
}
