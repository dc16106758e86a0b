package metadata

import (
	"github.com/spaghettifunk/citadel/engine/math"
)

/**
 * @brief Represents the configuration for a piece of geometry before it is
 * packed into a mesh.
 */
type GeometryConfig struct {
	/** @brief The Name of the geometry, used as the submesh name once packed. */
	Name string
	/** @brief An array of Vertices. */
	Vertices []math.Vertex3D
	/** @brief An array of Indices, relative to the first vertex of this geometry. */
	Indices []uint32
}

/**
 * @brief The draw arguments of one shape inside a shared vertex/index buffer.
 */
type SubmeshGeometry struct {
	IndexCount         uint32
	StartIndexLocation uint32
	BaseVertexLocation int32
	/** @brief The extents of the shape in local coordinates. */
	Extents math.Extents3D
}
