package math

import "github.com/go-gl/mathgl/mgl32"

/**
 * @brief Represents the transform of an object in the world.
 * Transforms can have a parent whose own transform is then
 * taken into account.
 */
type Transform struct {
	/** @brief The position relative to the parent. */
	Position mgl32.Vec3
	/** @brief The rotation relative to the parent. */
	Rotation mgl32.Quat
	/** @brief The scale relative to the parent. */
	Scale mgl32.Vec3
	/** @brief Indicates that the local matrix needs to be recalculated. */
	IsDirty bool
	/** @brief The local transformation matrix. */
	Local mgl32.Mat4
	/** @brief A pointer to a parent transform if one is assigned. Can also be nil. */
	Parent *Transform
}

func TransformFromPositionRotationScale(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) *Transform {
	return &Transform{
		Position: position,
		Rotation: rotation,
		Scale:    scale,
		IsDirty:  true,
		Local:    mgl32.Ident4(),
	}
}

// TransformFromEuler builds a transform that scales, rotates about X (radians),
// then about Y, then translates.
func TransformFromEuler(scale mgl32.Vec3, rotX, rotY float32, position mgl32.Vec3) *Transform {
	rotation := mgl32.QuatRotate(rotY, mgl32.Vec3{0, 1, 0}).Mul(mgl32.QuatRotate(rotX, mgl32.Vec3{1, 0, 0}))
	return TransformFromPositionRotationScale(position, rotation, scale)
}

// GetLocal returns translation * rotation * scale, rebuilding it only when dirty.
func (t *Transform) GetLocal() mgl32.Mat4 {
	if t == nil {
		return mgl32.Ident4()
	}
	if t.IsDirty {
		tr := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
		r := t.Rotation.Mat4()
		s := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())
		t.Local = tr.Mul4(r).Mul4(s)
		t.IsDirty = false
	}
	return t.Local
}

func (t *Transform) GetWorld() mgl32.Mat4 {
	if t == nil {
		return mgl32.Ident4()
	}
	l := t.GetLocal()
	if t.Parent != nil {
		return t.Parent.GetWorld().Mul4(l)
	}
	return l
}
