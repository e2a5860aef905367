package galaxy

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultMaxParticles bounds a single generation. Above this the buffers
// (24 bytes per particle) stop being an interactive-time allocation.
const DefaultMaxParticles = 5_000_000

// cancelCheckInterval is how many particles are generated between context checks.
const cancelCheckInterval = 4096

// Uniform returns a uniform draw in [0, 1).
type Uniform func() float64

// Buffer is the output of one generation: two index-aligned flat slices
// holding one xyz triple and one rgb triple per particle.
type Buffer struct {
	Positions []float32
	Colors    []float32
}

// NewBuffer allocates a buffer for n particles.
func NewBuffer(n int) *Buffer {
	return &Buffer{
		Positions: make([]float32, n*3),
		Colors:    make([]float32, n*3),
	}
}

// Len returns the particle count.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Positions) / 3
}

// Position returns particle i's position.
func (b *Buffer) Position(i int) mgl32.Vec3 {
	i3 := i * 3
	return mgl32.Vec3{b.Positions[i3], b.Positions[i3+1], b.Positions[i3+2]}
}

// Color returns particle i's color.
func (b *Buffer) Color(i int) Color {
	i3 := i * 3
	return Color{R: b.Colors[i3], G: b.Colors[i3+1], B: b.Colors[i3+2]}
}

// Particle is a single generated point along with the intermediate values
// that produced it.
type Particle struct {
	Position    [3]float64
	Color       Color
	Radius      float64
	BranchAngle float64
	Angle       float64
	Fraction    float64 // color blend position in [0, 1]
}

// Sample computes particle i for p using u as the random source. Draws are
// consumed in a fixed order: radius, then magnitude and sign for x, y and z.
// Sample does not validate p.
func Sample(p Parameters, i int, u Uniform) Particle {
	r := p.InnerRadius + u()*(p.Radius-p.InnerRadius)
	branch := BranchAngle(i, p.Branches)
	angle := branch + r*p.Spin

	jx := jitter(p, r, u)
	jy := jitter(p, r, u)
	jz := jitter(p, r, u)

	t := p.BlendFraction(r)

	return Particle{
		Position: [3]float64{
			math.Cos(angle)*r + jx + float64(p.Offset[0]),
			jy + float64(p.Offset[1]),
			math.Sin(angle)*r + jz + float64(p.Offset[2]),
		},
		Color:       p.InsideColor.Lerp(p.OutsideColor, float32(t)),
		Radius:      r,
		BranchAngle: branch,
		Angle:       angle,
		Fraction:    t,
	}
}

// jitter draws a signed offset whose magnitude is biased toward zero by the
// randomness power and grows with the particle's radius.
func jitter(p Parameters, r float64, u Uniform) float64 {
	mag := math.Pow(u(), p.RandomnessPower)
	sign := 1.0
	if u() >= 0.5 {
		sign = -1
	}
	return mag * sign * p.Randomness * r
}

// Generator produces particle buffers. A Generator owns its random source
// and is not safe for concurrent use; each Instance holds its own.
type Generator struct {
	rng *rand.Rand

	// MaxParticles is the largest count Generate will allocate for.
	MaxParticles int
}

// NewGenerator creates a generator. A zero seed uses the current time, so
// successive runs differ the way the interactive tool expects.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rng:          rand.New(rand.NewSource(seed)),
		MaxParticles: DefaultMaxParticles,
	}
}

// Generate fills a fresh buffer with p.ParticleCount particles. Parameters
// are validated before anything is allocated. A cancelled context aborts
// the loop and no partial buffer is returned.
func (g *Generator) Generate(ctx context.Context, p Parameters) (*Buffer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if g.MaxParticles > 0 && p.ParticleCount > g.MaxParticles {
		return nil, fmt.Errorf("%w: %d particles requested, limit %d", ErrAllocation, p.ParticleCount, g.MaxParticles)
	}

	buf := NewBuffer(p.ParticleCount)
	u := g.rng.Float64

	for i := 0; i < p.ParticleCount; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		pt := Sample(p, i, u)

		i3 := i * 3
		buf.Positions[i3+0] = float32(pt.Position[0])
		buf.Positions[i3+1] = float32(pt.Position[1])
		buf.Positions[i3+2] = float32(pt.Position[2])

		buf.Colors[i3+0] = pt.Color.R
		buf.Colors[i3+1] = pt.Color.G
		buf.Colors[i3+2] = pt.Color.B
	}

	return buf, nil
}
