package telemetry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/galaxy/galaxy"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 2.5},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.0},
		{"clamped above", []float64{1, 2, 3}, 1.5, 3.0},
		{"clamped below", []float64{1, 2, 3}, -1, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func testParams() galaxy.Parameters {
	return galaxy.Parameters{
		ParticleCount:   4,
		ParticleSize:    0.01,
		Radius:          5,
		InnerRadius:     1,
		Branches:        2,
		Spin:            1,
		Randomness:      0,
		RandomnessPower: 1,
		InsideColor:     galaxy.MustParseColor("#ffffff"),
		OutsideColor:    galaxy.MustParseColor("#000000"),
		Offset:          mgl32.Vec3{10, 2, 0},
	}
}

// ringBuffer places particle i at distance radii[i] from the offset along
// +x, lifted by lift[i] above it.
func ringBuffer(p galaxy.Parameters, radii, lift []float32) *galaxy.Buffer {
	buf := galaxy.NewBuffer(len(radii))
	for i, r := range radii {
		buf.Positions[3*i] = p.Offset[0] + r
		buf.Positions[3*i+1] = p.Offset[1] + lift[i]
		buf.Positions[3*i+2] = p.Offset[2]
	}
	return buf
}

func TestComputeCloudStats(t *testing.T) {
	p := testParams()
	buf := ringBuffer(p, []float32{1, 2, 3, 4}, []float32{0.5, -0.5, 0.5, -0.5})

	s := ComputeCloudStats(buf, p, 0)

	if s.Particles != 4 {
		t.Errorf("Particles = %d, want 4", s.Particles)
	}
	if math.Abs(s.RadiusMean-2.5) > 1e-5 {
		t.Errorf("RadiusMean = %v, want 2.5", s.RadiusMean)
	}
	// Sample standard deviation of 1..4.
	if math.Abs(s.RadiusStd-math.Sqrt(5.0/3.0)) > 1e-5 {
		t.Errorf("RadiusStd = %v, want %v", s.RadiusStd, math.Sqrt(5.0/3.0))
	}
	if math.Abs(s.RadiusP50-2) > 1e-5 {
		t.Errorf("RadiusP50 = %v, want 2", s.RadiusP50)
	}
	if math.Abs(s.Thickness-0.5) > 1e-5 {
		t.Errorf("Thickness = %v, want 0.5", s.Thickness)
	}
	// Fractions 0, 0.25, 0.5, 0.75.
	if math.Abs(s.ColorFraction-0.375) > 1e-5 {
		t.Errorf("ColorFraction = %v, want 0.375", s.ColorFraction)
	}
}

func TestComputeCloudStatsEmpty(t *testing.T) {
	if s := ComputeCloudStats(nil, testParams(), 0); s != (CloudStats{}) {
		t.Errorf("nil buffer stats = %+v, want zero", s)
	}
	if s := ComputeCloudStats(galaxy.NewBuffer(0), testParams(), 0); s != (CloudStats{}) {
		t.Errorf("empty buffer stats = %+v, want zero", s)
	}
}

func TestComputeCloudStatsSampled(t *testing.T) {
	p := testParams()
	p.ParticleCount = 20000
	p.Randomness = 0.3
	buf, err := galaxy.NewGenerator(3).Generate(context.Background(), p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	full := ComputeCloudStats(buf, p, 0)
	sampled := ComputeCloudStats(buf, p, 1000)

	if sampled.Particles != full.Particles {
		t.Errorf("sampled Particles = %d, want %d", sampled.Particles, full.Particles)
	}
	if math.Abs(sampled.RadiusMean-full.RadiusMean) > 0.25 {
		t.Errorf("sampled mean %v too far from full mean %v", sampled.RadiusMean, full.RadiusMean)
	}
	if full.RadiusP10 > full.RadiusP50 || full.RadiusP50 > full.RadiusP90 {
		t.Errorf("percentiles out of order: %v %v %v", full.RadiusP10, full.RadiusP50, full.RadiusP90)
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, StatusOK},
		{fmt.Errorf("gen: %w", galaxy.ErrInvalidParameters), StatusInvalid},
		{fmt.Errorf("gen: %w", galaxy.ErrAllocation), StatusAllocation},
		{fmt.Errorf("%w: %w", galaxy.ErrSuperseded, context.Canceled), StatusSuperseded},
		{context.Canceled, StatusCancelled},
		{context.DeadlineExceeded, StatusCancelled},
		{errors.New("boom"), StatusError},
	}

	for _, tt := range tests {
		if got := Status(tt.err); got != tt.want {
			t.Errorf("Status(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestNewGenerationRecord(t *testing.T) {
	p := testParams()
	buf := ringBuffer(p, []float32{1, 2, 3, 4}, []float32{0, 0, 0, 0})

	rec := NewGenerationRecord(galaxy.Result{
		Instance: "primary",
		Seq:      7,
		Params:   p,
		Buffer:   buf,
		Timings:  galaxy.Timings{Generate: 2 * time.Millisecond, Swap: time.Millisecond},
	}, 0)

	if rec.Galaxy != "primary" || rec.Seq != 7 || rec.Status != StatusOK {
		t.Errorf("record header = %+v", rec)
	}
	if rec.TotalMS != 3 || rec.GenMS != 2 {
		t.Errorf("TotalMS = %v GenMS = %v, want 3 and 2", rec.TotalMS, rec.GenMS)
	}
	if rec.Particles != 4 {
		t.Errorf("Particles = %d, want 4", rec.Particles)
	}

	failed := NewGenerationRecord(galaxy.Result{
		Instance: "primary",
		Params:   p,
		Err:      fmt.Errorf("gen: %w", galaxy.ErrInvalidParameters),
	}, 0)
	if failed.Status != StatusInvalid || failed.Error == "" || failed.Particles != 0 {
		t.Errorf("failed record = %+v", failed)
	}
}
