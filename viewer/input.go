package viewer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/galaxy/ui"
)

// handleInput processes keyboard and mouse input.
func (a *App) handleInput() {
	// Window resize propagation
	a.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		a.paused = !a.paused
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		a.panel.Toggle()
	}
	for _, key := range a.overlays.Keys() {
		if rl.IsKeyPressed(key) {
			a.overlays.HandleKeyPress(key)
		}
	}

	if rl.IsKeyPressed(rl.KeyR) {
		if ed := a.panel.Active(); ed != nil {
			ed.Regenerate()
		}
	}
	if rl.IsKeyPressed(rl.KeyS) {
		a.SaveSnapshot("")
	}

	// Camera controls
	a.handleCameraInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (a *App) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := int32(rl.GetScreenWidth())
	h := int32(rl.GetScreenHeight())
	if w == a.screenWidth && h == a.screenHeight {
		return
	}
	a.screenWidth = w
	a.screenHeight = h

	a.backgroundRenderer.Resize(w, h)
	a.panel.SetPosition(w-panelWidth-10, 10)
	a.controlsPanel.SetPosition(w-panelWidth*2-20, 10)
	a.perfPanel.SetPosition(10, h-140)
}

// handleCameraInput orbits on drag and zooms (or scrolls) on the wheel.
// A drag that starts on the panel belongs to the panel until release.
func (a *App) handleCameraInput() {
	mouse := rl.GetMousePosition()
	overPanel := a.panel.Contains(mouse.X, mouse.Y)

	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		a.panelDrag = overPanel
	}
	if rl.IsMouseButtonReleased(rl.MouseLeftButton) {
		a.panelDrag = false
	}

	if rl.IsMouseButtonDown(rl.MouseLeftButton) && !a.panelDrag {
		d := rl.GetMouseDelta()
		a.camera.Rotate(d.X, d.Y)
	}

	wheel := rl.GetMouseWheelMove()
	if wheel == 0 || overPanel {
		return
	}
	if a.overlays.IsEnabled(ui.OverlayScrollMode) {
		a.driver.Scroll(-wheel)
	} else {
		a.camera.Zoom(wheel)
	}
}
