package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/galaxy/telemetry"
)

// GalaxyStatus is one galaxy's line in the HUD.
type GalaxyStatus struct {
	Name      string
	State     string
	Particles int
	Seq       uint64
	LastMS    float64
	Pending   bool
	Err       string
}

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	FPS          int32
	Paused       bool
	Scroll       float32
	Galaxies     []GalaxyStatus
	ScreenWidth  int32
	ScreenHeight int32
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	status := "Running"
	if data.Paused {
		status = "PAUSED"
	}
	rl.DrawText(fmt.Sprintf("FPS: %d | %s", data.FPS, status), 10, 35, 16, rl.LightGray)

	y := int32(58)
	for _, g := range data.Galaxies {
		line := fmt.Sprintf("%s: %s  %d particles  #%d  %.1fms", g.Name, g.State, g.Particles, g.Seq, g.LastMS)
		if g.Pending {
			line += "  (pending)"
		}
		rl.DrawText(line, 10, y, 14, rl.LightGray)
		y += 16
		if g.Err != "" {
			y = h.renderer.DrawError(20, y, g.Err)
		}
	}

	h.renderer.DrawBar(10, y+4, "Scroll", data.Scroll, 260)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the regeneration timing breakdown.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Regeneration", x, y, 16, rl.White)
	y += 20

	rl.DrawText(
		fmt.Sprintf("Avg: %s  Max: %s  (%d)", stats.AvgDuration.Round(time.Microsecond), stats.MaxDuration.Round(time.Microsecond), stats.Samples),
		x, y, 14, rl.Yellow,
	)
	y += 16

	for _, phase := range []string{telemetry.PhaseGenerate, telemetry.PhaseBuild, telemetry.PhaseSwap, telemetry.PhaseRelease} {
		pct := stats.PhasePct[phase]

		color := rl.LightGray
		if pct > 80 {
			color = rl.Red
		} else if pct > 40 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", phase, stats.PhaseAvg[phase].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
