package math

import "github.com/go-gl/mathgl/mgl32"

/**
 * @brief Represents a single vertex in 3D space as it is laid out in the shared vertex buffer.
 */
type Vertex3D struct {
	/** @brief The position of the vertex */
	Position mgl32.Vec3
	/** @brief The normal of the vertex. */
	Normal mgl32.Vec3
	/** @brief The texture coordinate of the vertex. */
	Texcoord mgl32.Vec2
}

/**
 * @brief A billboard point, expanded into a quad by the geometry stage.
 */
type SpriteVertex struct {
	Position mgl32.Vec3
	Size     mgl32.Vec2
}

/**
 * @brief Represents the extents of a 3d object.
 */
type Extents3D struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}
