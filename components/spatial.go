package components

import "github.com/go-gl/mathgl/mgl32"

// Transform is a node's local transform. Rotation holds Euler angles in
// radians applied in XYZ order.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
}

// Identity returns the transform that leaves its children unchanged.
func Identity() Transform {
	return Transform{Scale: mgl32.Vec3{1, 1, 1}}
}

// Matrix returns T * R * S, with R = Rx * Ry * Rz.
func (t Transform) Matrix() mgl32.Mat4 {
	rot := mgl32.HomogRotate3DX(t.Rotation.X()).
		Mul4(mgl32.HomogRotate3DY(t.Rotation.Y())).
		Mul4(mgl32.HomogRotate3DZ(t.Rotation.Z()))
	return mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(rot).
		Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}
