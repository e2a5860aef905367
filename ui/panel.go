package ui

import (
	"fmt"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	sliderRowHeight = 22
	sliderHeight    = 14
	valueWidth      = 56
)

// Panel renders the parameter sliders for one selected galaxy. Changes are
// committed when the mouse button is released, or by the Regenerate button.
type Panel struct {
	renderer *Renderer
	editors  []*Editor
	sliders  []Slider
	names    string
	active   int32

	x, y, width int32
	height      int32
	visible     bool
}

// NewPanel creates a panel for the given editors.
func NewPanel(x, y, width int32, editors []*Editor) *Panel {
	names := make([]string, len(editors))
	for i, e := range editors {
		names[i] = e.Name()
	}
	return &Panel{
		renderer: NewRenderer(),
		editors:  editors,
		sliders:  ParameterSliders(),
		names:    strings.Join(names, ";"),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// SetPosition updates the panel position.
func (p *Panel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Toggle switches panel visibility.
func (p *Panel) Toggle() bool {
	p.visible = !p.visible
	return p.visible
}

// IsVisible returns whether the panel is shown.
func (p *Panel) IsVisible() bool { return p.visible }

// Active returns the editor of the selected galaxy.
func (p *Panel) Active() *Editor {
	if len(p.editors) == 0 {
		return nil
	}
	return p.editors[p.active]
}

// Editor returns the editor for the named galaxy.
func (p *Panel) Editor(name string) *Editor {
	for _, e := range p.editors {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

// Contains reports whether a screen point is over the panel, so camera
// input can be ignored while the user drags a slider.
func (p *Panel) Contains(x, y float32) bool {
	if !p.visible {
		return false
	}
	return x >= float32(p.x) && x <= float32(p.x+p.width) &&
		y >= float32(p.y) && y <= float32(p.y+p.height)
}

// Draw renders the panel and applies its input.
func (p *Panel) Draw() {
	ed := p.Active()
	if !p.visible || ed == nil {
		return
	}

	r := p.renderer
	padding := r.Theme.Padding
	inner := p.width - 2*padding

	// Background sized from the previous frame's content
	if p.height > 0 {
		r.DrawPanel(p.x, p.y, p.width, p.height)
	}

	x := p.x + padding
	y := p.y + padding

	rl.DrawText("Galaxy", x, y, 16, rl.White)
	y += r.Theme.LineHeight + 6

	if len(p.editors) > 1 {
		itemWidth := float32(inner) / float32(len(p.editors))
		p.active = gui.ToggleGroup(
			rl.Rectangle{X: float32(x), Y: float32(y), Width: itemWidth, Height: 20},
			p.names, p.active,
		)
		y += 28
		ed = p.Active()
	}

	draft := ed.Draft()
	for _, s := range p.sliders {
		if s.Section != "" {
			y += 4
			y = r.DrawSectionHeader(x, y, s.Section)
		}

		r.DrawLabel(x, y+2, s.Label)
		current := s.Get(draft)
		v := gui.SliderBar(
			rl.Rectangle{
				X:      float32(x + r.Theme.LabelWidth),
				Y:      float32(y + 1),
				Width:  float32(inner - r.Theme.LabelWidth - valueWidth),
				Height: sliderHeight,
			},
			"", "",
			current, s.Min, s.Max,
		)
		if v != current {
			ed.Set(s, v)
			draft = ed.Draft()
		}
		r.DrawValue(x+inner-valueWidth+6, y+2, fmt.Sprintf(s.Format, s.Get(draft)))
		y += sliderRowHeight
	}

	y += 4
	y = r.DrawColorSwatch(x, y, "Inside", draft.InsideColor)
	y = r.DrawColorSwatch(x, y, "Outside", draft.OutsideColor)
	y += 6

	if gui.Button(rl.Rectangle{X: float32(x), Y: float32(y), Width: 120, Height: 26}, "Regenerate") {
		ed.Regenerate()
	}
	y += 34

	if rl.IsMouseButtonReleased(rl.MouseLeftButton) {
		ed.Release()
	}

	if err := ed.Err(); err != nil {
		y = r.DrawError(x, y, truncate(err.Error(), 48))
	} else if ed.Dirty() {
		y = r.DrawError(x, y, "release to apply")
	}

	p.height = y - p.y + padding
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
