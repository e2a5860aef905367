package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/galaxy/camera"
)

// Camera3D converts the orbit camera for raylib's 3D mode.
func Camera3D(o *camera.Orbit) rl.Camera3D {
	return rl.Camera3D{
		Position:   vec(o.Position()),
		Target:     vec(o.Target),
		Up:         vec(o.Up),
		Fovy:       o.FOV,
		Projection: rl.CameraPerspective,
	}
}

// CameraRight returns the orbit camera's right vector in world space.
func CameraRight(o *camera.Orbit) mgl32.Vec3 {
	forward := o.Target.Sub(o.Position())
	right := forward.Cross(o.Up)
	if right.Len() == 0 {
		return mgl32.Vec3{1, 0, 0}
	}
	return right.Normalize()
}

func vec(v mgl32.Vec3) rl.Vector3 {
	return rl.NewVector3(v[0], v[1], v[2])
}
