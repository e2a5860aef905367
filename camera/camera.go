// Package camera provides a damped orbit camera for viewing the scene.
// It is pure math; the renderer converts it to a raylib camera each frame.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// maxPitch keeps the camera off the poles where the up vector degenerates.
const maxPitch = math32.Pi/2 - 0.01

// Orbit circles a target point. Position is held in spherical coordinates
// (distance, yaw around +Y, pitch above the XZ plane). Rotate and Zoom move
// the goal; Update eases the current values toward it.
type Orbit struct {
	Target mgl32.Vec3
	Up     mgl32.Vec3

	// Vertical field of view in degrees
	FOV       float32
	Near, Far float32

	// Fraction of the remaining delta applied per Update. 0 disables damping.
	Damping float32

	RotateSpeed float32 // radians per pixel
	ZoomSpeed   float32 // fraction of distance per wheel notch

	MinDistance, MaxDistance float32

	distance, yaw, pitch             float32
	goalDistance, goalYaw, goalPitch float32

	intro *intro
}

// intro dollies the camera between two positions, ignoring input.
type intro struct {
	from, to mgl32.Vec3
	duration float32
	elapsed  float32
}

// New creates an orbit camera at position looking at target.
func New(position, target mgl32.Vec3) *Orbit {
	o := &Orbit{
		Target:      target,
		Up:          mgl32.Vec3{0, 1, 0},
		FOV:         75,
		Near:        0.1,
		Far:         100,
		Damping:     0.05,
		RotateSpeed: 0.005,
		ZoomSpeed:   0.1,
		MinDistance: 0.5,
		MaxDistance: 50,
	}
	o.SetPosition(position)
	return o
}

// SetPosition moves the camera immediately, cancelling any damping.
func (o *Orbit) SetPosition(p mgl32.Vec3) {
	d := p.Sub(o.Target)
	dist := d.Len()
	if dist == 0 {
		o.distance, o.yaw, o.pitch = 0, 0, 0
	} else {
		o.distance = dist
		o.yaw = math32.Atan2(d.X(), d.Z())
		o.pitch = math32.Asin(clamp(d.Y()/dist, -1, 1))
	}
	o.goalDistance, o.goalYaw, o.goalPitch = o.distance, o.yaw, o.pitch
}

// Position returns the current camera position in world coordinates.
func (o *Orbit) Position() mgl32.Vec3 {
	cp := math32.Cos(o.pitch)
	return o.Target.Add(mgl32.Vec3{
		o.distance * cp * math32.Sin(o.yaw),
		o.distance * math32.Sin(o.pitch),
		o.distance * cp * math32.Cos(o.yaw),
	})
}

// Distance returns the current distance to the target.
func (o *Orbit) Distance() float32 { return o.distance }

// Rotate orbits by a mouse drag of (dx, dy) pixels.
func (o *Orbit) Rotate(dx, dy float32) {
	if o.intro != nil {
		return
	}
	o.goalYaw -= dx * o.RotateSpeed
	o.goalPitch = clamp(o.goalPitch+dy*o.RotateSpeed, -maxPitch, maxPitch)
}

// Zoom moves toward (positive notches) or away from the target.
func (o *Orbit) Zoom(notches float32) {
	if o.intro != nil {
		return
	}
	scale := math32.Pow(1-o.ZoomSpeed, notches)
	o.goalDistance = clamp(o.goalDistance*scale, o.MinDistance, o.MaxDistance)
}

// StartIntro dollies the camera's x coordinate to endX over duration seconds.
// A non-positive duration is a no-op.
func (o *Orbit) StartIntro(endX, duration float32) {
	if duration <= 0 {
		return
	}
	from := o.Position()
	to := from
	to[0] = endX
	o.intro = &intro{from: from, to: to, duration: duration}
}

// Intro reports whether the intro dolly is still running.
func (o *Orbit) Intro() bool { return o.intro != nil }

// Update advances the intro or eases toward the goal. dt is in seconds.
func (o *Orbit) Update(dt float32) {
	if in := o.intro; in != nil {
		in.elapsed += dt
		t := clamp(in.elapsed/in.duration, 0, 1)
		o.SetPosition(in.from.Add(in.to.Sub(in.from).Mul(easeInOut(t))))
		if t >= 1 {
			o.intro = nil
		}
		return
	}

	k := o.Damping
	if k <= 0 || k > 1 {
		k = 1
	}
	o.distance += (o.goalDistance - o.distance) * k
	o.yaw += (o.goalYaw - o.yaw) * k
	o.pitch += (o.goalPitch - o.pitch) * k
}

// View returns the world-to-camera matrix.
func (o *Orbit) View() mgl32.Mat4 {
	return mgl32.LookAtV(o.Position(), o.Target, o.Up)
}

// Projection returns the perspective matrix for the given aspect ratio.
func (o *Orbit) Projection(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(o.FOV), aspect, o.Near, o.Far)
}

// WorldToScreen projects a world point into a w x h viewport with the
// origin at the top left. visible is false for points behind the camera or
// outside the view volume.
func (o *Orbit) WorldToScreen(p mgl32.Vec3, w, h float32) (sx, sy float32, visible bool) {
	clip := o.Projection(w / h).Mul4(o.View()).Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	sx = (ndc.X() + 1) / 2 * w
	sy = (1 - ndc.Y()) / 2 * h
	visible = math32.Abs(ndc.X()) <= 1 && math32.Abs(ndc.Y()) <= 1 && math32.Abs(ndc.Z()) <= 1
	return sx, sy, visible
}

// easeInOut is a cubic ease, 0 and 1 at the ends.
func easeInOut(t float32) float32 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
