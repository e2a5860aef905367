// Package galaxy generates spiral-galaxy point clouds and manages the
// lifecycle of the renderables built from them.
package galaxy

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Error taxonomy for generation and regeneration.
var (
	// ErrInvalidParameters reports a parameter set the generator cannot honor.
	ErrInvalidParameters = errors.New("invalid galaxy parameters")
	// ErrAllocation reports a particle count above the generator's budget.
	ErrAllocation = errors.New("particle allocation exceeds budget")
	// ErrSuperseded reports a result discarded because a newer one was installed.
	ErrSuperseded = errors.New("generation superseded")
)

// Parameters describes one galaxy. It is treated as a value: the generator
// never mutates it and instances copy it on every generation.
type Parameters struct {
	ParticleCount   int
	ParticleSize    float32
	Radius          float64
	InnerRadius     float64
	Branches        int
	Spin            float64 // radians per unit radius; negative mirrors the spiral
	Randomness      float64
	RandomnessPower float64
	InsideColor     Color
	OutsideColor    Color
	Offset          mgl32.Vec3
}

// Validate checks the generator's preconditions. The returned error wraps
// ErrInvalidParameters.
func (p Parameters) Validate() error {
	switch {
	case p.ParticleCount < 0:
		return fmt.Errorf("%w: particle count %d is negative", ErrInvalidParameters, p.ParticleCount)
	case !finite(p.Radius) || !finite(p.InnerRadius) || !finite(p.Spin) ||
		!finite(p.Randomness) || !finite(p.RandomnessPower):
		return fmt.Errorf("%w: non-finite numeric field", ErrInvalidParameters)
	case !(p.ParticleSize > 0) || math.IsInf(float64(p.ParticleSize), 0):
		return fmt.Errorf("%w: particle size %g must be positive", ErrInvalidParameters, p.ParticleSize)
	case p.InnerRadius < 0:
		return fmt.Errorf("%w: inner radius %g is negative", ErrInvalidParameters, p.InnerRadius)
	case p.Radius <= p.InnerRadius:
		return fmt.Errorf("%w: radius %g must exceed inner radius %g", ErrInvalidParameters, p.Radius, p.InnerRadius)
	case p.Branches < 1:
		return fmt.Errorf("%w: branches %d must be at least 1", ErrInvalidParameters, p.Branches)
	case p.Randomness < 0:
		return fmt.Errorf("%w: randomness %g is negative", ErrInvalidParameters, p.Randomness)
	case p.RandomnessPower < 0:
		return fmt.Errorf("%w: randomness power %g is negative", ErrInvalidParameters, p.RandomnessPower)
	}
	for i := 0; i < 3; i++ {
		if !finite(float64(p.Offset[i])) {
			return fmt.Errorf("%w: non-finite offset", ErrInvalidParameters)
		}
	}
	return nil
}

// Mirrored returns a copy with the opposite spiral chirality.
func (p Parameters) Mirrored() Parameters {
	p.Spin = -p.Spin
	return p
}

// BranchAngle is the arm angle assigned to particle i. It depends only on
// the index, never on random draws.
func BranchAngle(i, branches int) float64 {
	return float64(i%branches) / float64(branches) * 2 * math.Pi
}

// BlendFraction normalizes a radius into the [0, 1] color gradient position.
func (p Parameters) BlendFraction(r float64) float64 {
	t := (r - p.InnerRadius) / (p.Radius - p.InnerRadius)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
