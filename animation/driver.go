// Package animation drives the per-frame transforms of the galaxy scene.
// It only ever writes node transforms; geometry belongs to the galaxy
// instances and is never touched here.
package animation

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/galaxy/components"
	"github.com/pthm-cable/galaxy/galaxy"
	"github.com/pthm-cable/galaxy/scene"
)

// Settings configures a Driver.
type Settings struct {
	SpinSpeed float32 // anchor rotation.y radians per second

	// Scroll track: progress in [0, 1] moves the group from its initial
	// transform to ScrollRotation / ScrollPosition.
	ScrollStep     float32 // progress per wheel notch
	ScrollLag      float32 // seconds for smoothed progress to catch up, 0 = immediate
	ScrollRotation mgl32.Vec3
	ScrollPosition mgl32.Vec3
}

// Driver spins every galaxy anchor and moves the shared group along the
// scroll track.
type Driver struct {
	scene    *scene.Scene
	group    galaxy.NodeID
	anchors  []galaxy.NodeID
	settings Settings

	base     components.Transform
	elapsed  float32
	target   float32
	progress float32
}

// New creates a driver for group. The group's current transform is the
// start of the scroll track.
func New(s *scene.Scene, group galaxy.NodeID, settings Settings) (*Driver, error) {
	base, err := s.Transform(group)
	if err != nil {
		return nil, fmt.Errorf("animation group: %w", err)
	}
	return &Driver{
		scene:    s,
		group:    group,
		settings: settings,
		base:     base,
	}, nil
}

// AddAnchor registers a galaxy anchor to spin.
func (d *Driver) AddAnchor(id galaxy.NodeID) {
	d.anchors = append(d.anchors, id)
}

// RemoveAnchor stops spinning id.
func (d *Driver) RemoveAnchor(id galaxy.NodeID) {
	for i, a := range d.anchors {
		if a == id {
			d.anchors = append(d.anchors[:i], d.anchors[i+1:]...)
			return
		}
	}
}

// Scroll moves the scroll target by notches wheel steps.
func (d *Driver) Scroll(notches float32) {
	d.SetScrollTarget(d.target + notches*d.settings.ScrollStep)
}

// SetScrollTarget sets the scroll target directly, clamped to [0, 1].
func (d *Driver) SetScrollTarget(p float32) {
	d.target = clamp01(p)
}

// Progress returns the smoothed scroll progress.
func (d *Driver) Progress() float32 { return d.progress }

// Elapsed returns the animation clock in seconds.
func (d *Driver) Elapsed() float32 { return d.elapsed }

// Update advances the clock by dt seconds and writes the new transforms.
// Anchors removed from the scene are dropped.
func (d *Driver) Update(dt float32) error {
	d.elapsed += dt

	spin := d.elapsed * d.settings.SpinSpeed
	live := d.anchors[:0]
	for _, id := range d.anchors {
		t, err := d.scene.Transform(id)
		if err != nil {
			continue
		}
		t.Rotation[1] = spin
		if err := d.scene.SetTransform(id, t); err != nil {
			continue
		}
		live = append(live, id)
	}
	d.anchors = live

	if lag := d.settings.ScrollLag; lag > 0 {
		d.progress += (d.target - d.progress) * (1 - math32.Exp(-dt/lag))
	} else {
		d.progress = d.target
	}

	t := d.base
	t.Rotation = lerp(d.base.Rotation, d.settings.ScrollRotation, d.progress)
	t.Position = lerp(d.base.Position, d.settings.ScrollPosition, d.progress)
	if err := d.scene.SetTransform(d.group, t); err != nil {
		return fmt.Errorf("animating group: %w", err)
	}
	return nil
}

func lerp(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

func clamp01(x float32) float32 {
	return math32.Max(0, math32.Min(1, x))
}
