package metadata

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

/** @brief The pass a render item is drawn in. */
type RenderLayer int

const (
	RenderLayerOpaque RenderLayer = iota
	RenderLayerTransparent
	RenderLayerAlphaTested
	RenderLayerAlphaTestedTreeSprites
	RenderLayerCount
)

// DrawOrder is the order layers are submitted in.
var DrawOrder = []RenderLayer{
	RenderLayerOpaque,
	RenderLayerAlphaTested,
	RenderLayerAlphaTestedTreeSprites,
	RenderLayerTransparent,
}

func (l RenderLayer) String() string {
	switch l {
	case RenderLayerOpaque:
		return "opaque"
	case RenderLayerTransparent:
		return "transparent"
	case RenderLayerAlphaTested:
		return "alpha_tested"
	case RenderLayerAlphaTestedTreeSprites:
		return "alpha_tested_tree_sprites"
	}
	return "unknown"
}

/**
 * @brief A drawable object: a submesh of a mesh, drawn with a material
 * at a world transform.
 */
type RenderItem struct {
	ID uuid.UUID
	/** @brief Local to world matrix. */
	World mgl32.Mat4
	/** @brief Transform applied to texture coordinates. */
	TexTransform mgl32.Mat4
	/**
	 * @brief Number of frame resources that still hold stale constants for this item.
	 * Set to the ring depth whenever the item changes.
	 */
	NumFramesDirty int
	/** @brief Index into the per-frame object constant buffer. */
	ObjCBIndex uint32
	Mesh       MeshHandle
	Material   MaterialHandle
	Submesh    string
	Topology   PrimitiveTopology
	/** @brief Draw arguments resolved from the mesh's submesh. */
	IndexCount         uint32
	StartIndexLocation uint32
	BaseVertexLocation int32
}

func (r *RenderItem) MarkDirty(frames int) {
	r.NumFramesDirty = frames
}

// Constants packs the item for the object constant buffer, transposing
// the matrices into the shader's row-major layout.
func (r *RenderItem) Constants() ObjectConstants {
	return ObjectConstants{
		World:        r.World.Transpose(),
		TexTransform: r.TexTransform.Transpose(),
	}
}
