package metadata

import "github.com/spaghettifunk/citadel/engine/math"

/** @brief The topology used to draw a mesh. */
type PrimitiveTopology int

const (
	PrimitiveTopologyTriangleList PrimitiveTopology = iota
	PrimitiveTopologyPointList
)

/**
 * @brief Immutable geometry: one vertex buffer and one index buffer holding
 * any number of named submeshes.
 */
type Mesh struct {
	/** @brief The mesh name, e.g. "shapeGeo". */
	Name string
	/** @brief Vertices for triangle meshes. */
	Vertices []math.Vertex3D
	/** @brief Vertices for point sprite meshes. */
	SpriteVertices []math.SpriteVertex
	Indices        []uint32
	/** @brief The size in bytes of a single vertex. */
	VertexByteStride uint32
	VertexBufferSize uint32
	IndexBufferSize  uint32
	Topology         PrimitiveTopology
	DrawArgs         map[string]SubmeshGeometry
}

// Empty reports whether the mesh holds no drawable data.
func (m *Mesh) Empty() bool {
	return m == nil || len(m.DrawArgs) == 0
}
