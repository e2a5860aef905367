package galaxy

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Color is an RGB color in linear sRGB with channels in [0, 1].
// Gradients are interpolated in this space; renderers convert back to
// gamma-encoded sRGB for display.
type Color struct {
	R, G, B float32
}

// ParseColor accepts "#rgb", "#rrggbb" or a CSS color name and returns the
// linear-space color. Hex and named colors are read as gamma-encoded sRGB.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return Color{}, fmt.Errorf("empty color")
	}
	if !strings.HasPrefix(s, "#") {
		named, ok := colornames.Map[s]
		if !ok {
			return Color{}, fmt.Errorf("unknown color name %q", s)
		}
		return FromSRGB8(named.R, named.G, named.B), nil
	}

	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("malformed hex color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("malformed hex color %q: %w", s, err)
	}
	return FromSRGB8(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// MustParseColor is like ParseColor but panics on error. Intended for
// package-level literals and tests.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// FromSRGB8 converts 8-bit gamma-encoded channels to linear space.
func FromSRGB8(r, g, b uint8) Color {
	return Color{
		R: srgbToLinear(float32(r) / 255),
		G: srgbToLinear(float32(g) / 255),
		B: srgbToLinear(float32(b) / 255),
	}
}

// SRGB8 returns the gamma-encoded 8-bit channels of c.
func (c Color) SRGB8() (r, g, b uint8) {
	return to8(linearToSRGB(c.R)), to8(linearToSRGB(c.G)), to8(linearToSRGB(c.B))
}

// Hex formats c as "#rrggbb" in gamma-encoded sRGB.
func (c Color) Hex() string {
	r, g, b := c.SRGB8()
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// Lerp blends each channel independently: c + (to - c) * t.
func (c Color) Lerp(to Color, t float32) Color {
	return Color{
		R: c.R + (to.R-c.R)*t,
		G: c.G + (to.G-c.G)*t,
		B: c.B + (to.B-c.B)*t,
	}
}

func srgbToLinear(v float32) float32 {
	if v < 0.04045 {
		return v * 0.0773993808
	}
	return float32(math.Pow(float64(v)*0.9478672986+0.0521327014, 2.4))
}

func linearToSRGB(v float32) float32 {
	if v < 0.0031308 {
		return v * 12.92
	}
	return float32(1.055*math.Pow(float64(v), 1/2.4) - 0.055)
}

func to8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(float64(v) * 255))
}
