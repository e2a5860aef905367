package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/galaxy/galaxy"
)

// BackgroundRenderer clears the frame to the configured color with a soft
// vertical falloff toward black.
type BackgroundRenderer struct {
	top, bottom rl.Color
	screenW     int32
	screenH     int32
}

// NewBackgroundRenderer creates a new background renderer.
func NewBackgroundRenderer(screenW, screenH int32, base galaxy.Color) *BackgroundRenderer {
	r, g, b := base.SRGB8()
	dr, dg, db := base.Lerp(galaxy.Color{}, 0.6).SRGB8()
	return &BackgroundRenderer{
		top:     rl.Color{R: r, G: g, B: b, A: 255},
		bottom:  rl.Color{R: dr, G: dg, B: db, A: 255},
		screenW: screenW,
		screenH: screenH,
	}
}

// Resize updates the screen dimensions.
func (b *BackgroundRenderer) Resize(screenW, screenH int32) {
	b.screenW, b.screenH = screenW, screenH
}

// Draw clears the frame and paints the gradient.
func (b *BackgroundRenderer) Draw() {
	rl.ClearBackground(b.bottom)
	rl.DrawRectangleGradientV(0, 0, b.screenW, b.screenH, b.top, b.bottom)
}
