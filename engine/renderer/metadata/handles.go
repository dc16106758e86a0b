package metadata

import "math"

// Handles are indices into the arenas owned by the systems. They are resolved
// once while the scene is assembled; render items never hold pointers to the
// meshes or materials they use.
type (
	MeshHandle     uint32
	MaterialHandle uint32
	TextureHandle  uint32
	ItemHandle     uint32
)

const (
	InvalidMesh     MeshHandle     = math.MaxUint32
	InvalidMaterial MaterialHandle = math.MaxUint32
	InvalidTexture  TextureHandle  = math.MaxUint32
	InvalidItem     ItemHandle     = math.MaxUint32
)

func (h MeshHandle) Valid() bool     { return h != InvalidMesh }
func (h MaterialHandle) Valid() bool { return h != InvalidMaterial }
func (h TextureHandle) Valid() bool  { return h != InvalidTexture }
func (h ItemHandle) Valid() bool     { return h != InvalidItem }
