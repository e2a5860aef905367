// Package ui provides a descriptor-driven UI for editing galaxies.
// Instead of hard-coding a widget per parameter, sliders are defined
// through metadata that is updated alongside galaxy.Parameters.
package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/galaxy/galaxy"
)

// Slider defines how one parameter is edited.
type Slider struct {
	ID      string  // Unique identifier
	Label   string  // Display label
	Min     float32 // Slider range
	Max     float32
	Format  string // Printf format for the value text
	Integer bool   // Round to whole numbers
	Section string // Section header shown before the first slider of a section

	Get func(galaxy.Parameters) float32
	Set func(*galaxy.Parameters, float32)
}

// ParameterSliders returns one slider per editable parameter, grouped into
// sections in display order.
func ParameterSliders() []Slider {
	sliders := []Slider{
		{
			ID: "count", Label: "Count", Section: "Shape",
			Min: 100, Max: 1_000_000, Format: "%.0f", Integer: true,
			Get: func(p galaxy.Parameters) float32 { return float32(p.ParticleCount) },
			Set: func(p *galaxy.Parameters, v float32) { p.ParticleCount = int(v) },
		},
		{
			ID: "size", Label: "Size", Min: 0.001, Max: 0.1, Format: "%.3f",
			Get: func(p galaxy.Parameters) float32 { return p.ParticleSize },
			Set: func(p *galaxy.Parameters, v float32) { p.ParticleSize = v },
		},
		{
			ID: "radius", Label: "Radius", Min: 0.01, Max: 20, Format: "%.2f",
			Get: func(p galaxy.Parameters) float32 { return float32(p.Radius) },
			Set: func(p *galaxy.Parameters, v float32) { p.Radius = float64(v) },
		},
		{
			ID: "inner", Label: "Inner", Min: 0, Max: 5, Format: "%.3f",
			Get: func(p galaxy.Parameters) float32 { return float32(p.InnerRadius) },
			Set: func(p *galaxy.Parameters, v float32) { p.InnerRadius = float64(v) },
		},
		{
			ID: "branches", Label: "Branches", Min: 1, Max: 20, Format: "%.0f", Integer: true,
			Get: func(p galaxy.Parameters) float32 { return float32(p.Branches) },
			Set: func(p *galaxy.Parameters, v float32) { p.Branches = int(v) },
		},
		{
			ID: "spin", Label: "Spin", Min: -5, Max: 5, Format: "%+.3f",
			Get: func(p galaxy.Parameters) float32 { return float32(p.Spin) },
			Set: func(p *galaxy.Parameters, v float32) { p.Spin = float64(v) },
		},
		{
			ID: "randomness", Label: "Random", Section: "Scatter", Min: 0, Max: 2, Format: "%.3f",
			Get: func(p galaxy.Parameters) float32 { return float32(p.Randomness) },
			Set: func(p *galaxy.Parameters, v float32) { p.Randomness = float64(v) },
		},
		{
			ID: "power", Label: "Power", Min: 1, Max: 10, Format: "%.3f",
			Get: func(p galaxy.Parameters) float32 { return float32(p.RandomnessPower) },
			Set: func(p *galaxy.Parameters, v float32) { p.RandomnessPower = float64(v) },
		},
	}

	for axis, name := range []string{"X", "Y", "Z"} {
		sliders = append(sliders, Slider{
			ID: "offset_" + name, Label: "Offset " + name, Min: -5, Max: 5, Format: "%+.2f",
			Get: func(p galaxy.Parameters) float32 { return p.Offset[axis] },
			Set: func(p *galaxy.Parameters, v float32) { p.Offset[axis] = v },
		})
	}
	sliders[len(sliders)-3].Section = "Offset"

	sliders = append(sliders, colorSliders("inside", "Inside", func(p *galaxy.Parameters) *galaxy.Color { return &p.InsideColor })...)
	sliders = append(sliders, colorSliders("outside", "Outside", func(p *galaxy.Parameters) *galaxy.Color { return &p.OutsideColor })...)
	return sliders
}

// colorSliders edits a color as three 8-bit sRGB channels.
func colorSliders(id, label string, field func(*galaxy.Parameters) *galaxy.Color) []Slider {
	channel := func(c galaxy.Color, i int) uint8 {
		r, g, b := c.SRGB8()
		return [3]uint8{r, g, b}[i]
	}

	out := make([]Slider, 3)
	for i, name := range []string{"R", "G", "B"} {
		out[i] = Slider{
			ID: id + "_" + name, Label: label + " " + name, Min: 0, Max: 255, Format: "%.0f", Integer: true,
			Get: func(p galaxy.Parameters) float32 { return float32(channel(*field(&p), i)) },
			Set: func(p *galaxy.Parameters, v float32) {
				c := field(p)
				rgb := [3]uint8{channel(*c, 0), channel(*c, 1), channel(*c, 2)}
				rgb[i] = uint8(v)
				*c = galaxy.FromSRGB8(rgb[0], rgb[1], rgb[2])
			},
		}
	}
	out[0].Section = label + " color"
	return out
}

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	ErrorColor     rl.Color
	BarBg          rl.Color
	BarFill        rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 240},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.LightGray,
		ErrorColor:     rl.Color{R: 230, G: 90, B: 90, A: 255},
		BarBg:          rl.Color{R: 40, G: 40, B: 40, A: 255},
		BarFill:        rl.Color{R: 100, G: 150, B: 200, A: 255},
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     70,
		BarHeight:      12,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}
