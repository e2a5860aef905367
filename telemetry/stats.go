package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/galaxy/galaxy"
)

// Generation statuses as written to regenerations.csv.
const (
	StatusOK         = "ok"
	StatusInvalid    = "invalid"
	StatusAllocation = "allocation"
	StatusSuperseded = "superseded"
	StatusCancelled  = "cancelled"
	StatusError      = "error"
)

// CloudStats summarizes the shape of one generated cloud.
type CloudStats struct {
	Particles int `csv:"particles" json:"particles"`

	// Distance from the cloud's offset in the disk (xz) plane
	RadiusMean float64 `csv:"radius_mean" json:"radius_mean"`
	RadiusStd  float64 `csv:"radius_std" json:"radius_std"`
	RadiusP10  float64 `csv:"radius_p10" json:"radius_p10"`
	RadiusP50  float64 `csv:"radius_p50" json:"radius_p50"`
	RadiusP90  float64 `csv:"radius_p90" json:"radius_p90"`

	Thickness     float64 `csv:"thickness" json:"thickness"`           // mean |y - offset.y|
	ColorFraction float64 `csv:"color_fraction" json:"color_fraction"` // mean gradient position in [0, 1]
}

// Percentile returns the p-th quantile of a sorted slice using linear
// interpolation. Returns 0 if the slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(math.Max(0, math.Min(1, p)), stat.LinInterp, sorted, nil)
}

// ComputeCloudStats measures buf as generated from p. When sample is
// positive and smaller than the particle count, every k-th particle is
// used so large clouds stay cheap to summarize.
func ComputeCloudStats(buf *galaxy.Buffer, p galaxy.Parameters, sample int) CloudStats {
	n := buf.Len()
	if n == 0 {
		return CloudStats{}
	}

	stride := 1
	if sample > 0 && n > sample {
		stride = n / sample
	}

	ox, oy, oz := float64(p.Offset[0]), float64(p.Offset[1]), float64(p.Offset[2])
	radii := make([]float64, 0, n/stride+1)
	var thickness, fraction float64
	for i := 0; i < n; i += stride {
		pos := buf.Position(i)
		dx := float64(pos[0]) - ox
		dz := float64(pos[2]) - oz
		r := math.Hypot(dx, dz)
		radii = append(radii, r)
		thickness += math.Abs(float64(pos[1]) - oy)
		fraction += p.BlendFraction(r)
	}

	m := float64(len(radii))
	mean, std := stat.MeanStdDev(radii, nil)
	if len(radii) < 2 {
		std = 0
	}
	sort.Float64s(radii)

	return CloudStats{
		Particles:     n,
		RadiusMean:    mean,
		RadiusStd:     std,
		RadiusP10:     Percentile(radii, 0.10),
		RadiusP50:     Percentile(radii, 0.50),
		RadiusP90:     Percentile(radii, 0.90),
		Thickness:     thickness / m,
		ColorFraction: fraction / m,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s CloudStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("particles", s.Particles),
		slog.Float64("radius_mean", s.RadiusMean),
		slog.Float64("radius_std", s.RadiusStd),
		slog.Float64("radius_p10", s.RadiusP10),
		slog.Float64("radius_p50", s.RadiusP50),
		slog.Float64("radius_p90", s.RadiusP90),
		slog.Float64("thickness", s.Thickness),
		slog.Float64("color_fraction", s.ColorFraction),
	)
}

// Status classifies a generation error.
func Status(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, galaxy.ErrSuperseded):
		return StatusSuperseded
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCancelled
	case errors.Is(err, galaxy.ErrInvalidParameters):
		return StatusInvalid
	case errors.Is(err, galaxy.ErrAllocation):
		return StatusAllocation
	default:
		return StatusError
	}
}

// GenerationRecord is one row of regenerations.csv.
type GenerationRecord struct {
	Galaxy    string  `csv:"galaxy"`
	Seq       uint64  `csv:"seq"`
	Status    string  `csv:"status"`
	Requested int     `csv:"requested"`
	Branches  int     `csv:"branches"`
	Spin      float64 `csv:"spin"`
	TotalMS   float64 `csv:"total_ms"`
	GenMS     float64 `csv:"generate_ms"`
	BuildMS   float64 `csv:"build_ms"`
	SwapMS    float64 `csv:"swap_ms"`
	ReleaseMS float64 `csv:"release_ms"`
	Error     string  `csv:"error"`

	CloudStats
}

// NewGenerationRecord builds a record from a generation result. Stats are
// only computed for installed results.
func NewGenerationRecord(res galaxy.Result, sample int) GenerationRecord {
	rec := GenerationRecord{
		Galaxy:    res.Instance,
		Seq:       res.Seq,
		Status:    Status(res.Err),
		Requested: res.Params.ParticleCount,
		Branches:  res.Params.Branches,
		Spin:      res.Params.Spin,
		TotalMS:   ms(res.Timings.Total()),
		GenMS:     ms(res.Timings.Generate),
		BuildMS:   ms(res.Timings.Build),
		SwapMS:    ms(res.Timings.Swap),
		ReleaseMS: ms(res.Timings.Release),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	if res.Buffer != nil {
		rec.CloudStats = ComputeCloudStats(res.Buffer, res.Params, sample)
	}
	return rec
}

// LogStats logs the record using slog.
func (r GenerationRecord) LogStats() {
	slog.Info("generation",
		"galaxy", r.Galaxy,
		"seq", r.Seq,
		"status", r.Status,
		"total_ms", r.TotalMS,
		"stats", r.CloudStats,
	)
}
