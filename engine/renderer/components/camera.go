package components

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/citadel/engine/math"
)

const (
	OrbitDefaultTheta  float32 = 1.5 * math.K_PI
	OrbitDefaultPhi    float32 = 0.2 * math.K_PI
	OrbitDefaultRadius float32 = 15.0

	OrbitMinPhi    float32 = 0.1
	OrbitMaxPhi    float32 = math.K_PI - 0.1
	OrbitMinRadius float32 = 5.0
	OrbitMaxRadius float32 = 150.0

	// Degrees of rotation per pixel of left drag.
	OrbitRotateDegreesPerPixel float32 = 0.25
	// Units of zoom per pixel of right drag.
	OrbitZoomPerPixel float32 = 0.05

	DefaultFovY  float32 = 0.25 * math.K_PI
	DefaultNearZ float32 = 1.0
	DefaultFarZ  float32 = 1000.0
)

/**
 * @brief A camera orbiting the origin on a sphere described by
 * theta (azimuth), phi (polar angle) and radius.
 */
type Camera struct {
	Theta  float32
	Phi    float32
	Radius float32

	FovY  float32
	NearZ float32
	FarZ  float32

	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty bool

	position   mgl32.Vec3
	viewMatrix mgl32.Mat4
	projMatrix mgl32.Mat4
}

func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

func (c *Camera) Reset() {
	c.Theta = OrbitDefaultTheta
	c.Phi = OrbitDefaultPhi
	c.Radius = OrbitDefaultRadius
	c.FovY = DefaultFovY
	c.NearZ = DefaultNearZ
	c.FarZ = DefaultFarZ
	c.viewMatrix = mgl32.Ident4()
	c.projMatrix = mgl32.Ident4()
	c.IsDirty = true
}

// Rotate applies a left drag of dx, dy pixels.
func (c *Camera) Rotate(dx, dy float32) {
	c.Theta += math.DegToRad(OrbitRotateDegreesPerPixel * dx)
	c.Phi += math.DegToRad(OrbitRotateDegreesPerPixel * dy)
	c.Phi = math.Clamp(c.Phi, OrbitMinPhi, OrbitMaxPhi)
	c.IsDirty = true
}

// Zoom applies a right drag of dx, dy pixels.
func (c *Camera) Zoom(dx, dy float32) {
	c.Radius += OrbitZoomPerPixel*dx - OrbitZoomPerPixel*dy
	c.Radius = math.Clamp(c.Radius, OrbitMinRadius, OrbitMaxRadius)
	c.IsDirty = true
}

// SetLens rebuilds the projection for the given viewport.
func (c *Camera) SetLens(width, height uint32) {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	c.projMatrix = mgl32.Perspective(c.FovY, aspect, c.NearZ, c.FarZ)
}

func (c *Camera) GetPosition() mgl32.Vec3 {
	c.update()
	return c.position
}

func (c *Camera) GetView() mgl32.Mat4 {
	c.update()
	return c.viewMatrix
}

func (c *Camera) GetProjection() mgl32.Mat4 {
	return c.projMatrix
}

func (c *Camera) update() {
	if !c.IsDirty {
		return
	}
	sinPhi := math.Sin(c.Phi)
	c.position = mgl32.Vec3{
		c.Radius * sinPhi * math.Cos(c.Theta),
		c.Radius * math.Cos(c.Phi),
		c.Radius * sinPhi * math.Sin(c.Theta),
	}
	c.viewMatrix = mgl32.LookAtV(c.position, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	c.IsDirty = false
}
