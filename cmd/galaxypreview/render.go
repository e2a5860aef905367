package main

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/pthm-cable/galaxy/galaxy"
)

// View selects the projection plane.
type View string

const (
	ViewTop  View = "top"  // x right, z down
	ViewSide View = "side" // x right, y up
)

// PreviewParams controls how clouds are splatted into an image.
type PreviewParams struct {
	Size        int     // output edge in pixels
	Supersample int     // accumulation grid is Size*Supersample
	Exposure    float32 // linear intensity added per particle
	Extent      float32 // world half-width covered by the image
	View        View
	Background  galaxy.Color
}

// Cloud is one generated galaxy to draw.
type Cloud struct {
	Buffer *galaxy.Buffer
}

// extentFor returns a half-width that fits every galaxy with a margin.
func extentFor(params []galaxy.Parameters) float32 {
	var e float64
	for _, p := range params {
		off := math.Max(math.Abs(float64(p.Offset.X())), math.Max(math.Abs(float64(p.Offset.Y())), math.Abs(float64(p.Offset.Z()))))
		e = math.Max(e, p.Radius+off)
	}
	if e == 0 {
		e = 1
	}
	return float32(e * 1.1)
}

// Render accumulates every particle additively in linear space, then
// tone maps and downsamples to Size.
func Render(clouds []Cloud, pp PreviewParams) *image.RGBA {
	ss := max(pp.Supersample, 1)
	n := pp.Size * ss
	acc := make([]float32, n*n*3)

	scale := float32(n) / (2 * pp.Extent)
	for _, c := range clouds {
		for i := 0; i < c.Buffer.Len(); i++ {
			pos := c.Buffer.Position(i)
			u := pos.X()
			v := pos.Z()
			if pp.View == ViewSide {
				v = -pos.Y()
			}
			x := int((u + pp.Extent) * scale)
			y := int((v + pp.Extent) * scale)
			if x < 0 || y < 0 || x >= n || y >= n {
				continue
			}
			col := c.Buffer.Color(i)
			k := (y*n + x) * 3
			acc[k] += col.R * pp.Exposure
			acc[k+1] += col.G * pp.Exposure
			acc[k+2] += col.B * pp.Exposure
		}
	}

	big := image.NewRGBA(image.Rect(0, 0, n, n))
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			k := (y*n + x) * 3
			c := galaxy.Color{
				R: pp.Background.R + tonemap(acc[k]),
				G: pp.Background.G + tonemap(acc[k+1]),
				B: pp.Background.B + tonemap(acc[k+2]),
			}
			r, g, b := c.SRGB8()
			big.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}

	if ss == 1 {
		return big
	}
	out := image.NewRGBA(image.Rect(0, 0, pp.Size, pp.Size))
	xdraw.CatmullRom.Scale(out, out.Bounds(), big, big.Bounds(), xdraw.Src, nil)
	return out
}

// tonemap compresses unbounded additive light into [0, 1).
func tonemap(v float32) float32 {
	return 1 - float32(math.Exp(-float64(v)))
}
