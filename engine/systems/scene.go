package systems

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/spaghettifunk/citadel/engine/core"
	"github.com/spaghettifunk/citadel/engine/renderer"
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

type SceneSystemConfig struct {
	/** @brief The maximum number of render items, which is also the size of the per-frame object buffer. */
	MaxObjectCount uint32
	/** @brief The number of frame resources a change has to reach. */
	FrameResources int
}

// RenderItemConfig describes a render item to register. Zero matrices are
// treated as identity.
type RenderItemConfig struct {
	Layer        metadata.RenderLayer
	Mesh         metadata.MeshHandle
	Submesh      string
	Material     metadata.MaterialHandle
	World        mgl32.Mat4
	TexTransform mgl32.Mat4
}

// SceneSystem owns the render items. Every item sits in the master list and
// in exactly one layer list; registration order is draw order.
type SceneSystem struct {
	Config *SceneSystemConfig

	items  []*metadata.RenderItem
	layers [metadata.RenderLayerCount][]*metadata.RenderItem

	geometry  *GeometrySystem
	materials *MaterialSystem
}

var _ renderer.DrawSource = (*SceneSystem)(nil)

func NewSceneSystem(config *SceneSystemConfig, gs *GeometrySystem, ms *MaterialSystem) (*SceneSystem, error) {
	if config.MaxObjectCount == 0 {
		err := errors.New("func NewSceneSystem - config.MaxObjectCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	if config.FrameResources <= 0 {
		return nil, errors.New("func NewSceneSystem - config.FrameResources must be > 0")
	}
	if gs == nil || ms == nil {
		return nil, errors.New("scene requires the geometry and material systems")
	}
	return &SceneSystem{
		Config:    config,
		items:     make([]*metadata.RenderItem, 0, config.MaxObjectCount),
		geometry:  gs,
		materials: ms,
	}, nil
}

func (ss *SceneSystem) Shutdown() error {
	ss.items = nil
	for i := range ss.layers {
		ss.layers[i] = nil
	}
	return nil
}

func identityIfZero(m mgl32.Mat4) mgl32.Mat4 {
	if m == (mgl32.Mat4{}) {
		return mgl32.Ident4()
	}
	return m
}

// Register resolves the draw arguments of a new render item and appends it.
// Items of a mesh that failed to load are kept but never drawn.
func (ss *SceneSystem) Register(config RenderItemConfig) (metadata.ItemHandle, error) {
	if config.Layer < 0 || config.Layer >= metadata.RenderLayerCount {
		return metadata.InvalidItem, errors.Newf("invalid render layer %d", config.Layer)
	}
	if uint32(len(ss.items)) >= ss.Config.MaxObjectCount {
		return metadata.InvalidItem, errors.Newf("cannot register render item: all %d object slots in use", ss.Config.MaxObjectCount)
	}
	if _, err := ss.materials.Get(config.Material); err != nil {
		return metadata.InvalidItem, err
	}
	mesh, err := ss.geometry.Get(config.Mesh)
	if err != nil {
		return metadata.InvalidItem, err
	}

	item := &metadata.RenderItem{
		ID:             uuid.New(),
		World:          identityIfZero(config.World),
		TexTransform:   identityIfZero(config.TexTransform),
		NumFramesDirty: ss.Config.FrameResources,
		ObjCBIndex:     uint32(len(ss.items)),
		Mesh:           config.Mesh,
		Material:       config.Material,
		Submesh:        config.Submesh,
		Topology:       mesh.Topology,
	}
	if mesh.Empty() {
		core.LogWarn("Render item %s uses empty mesh '%s', it will not be drawn.", item.ID, mesh.Name)
	} else {
		args, ok := mesh.DrawArgs[config.Submesh]
		if !ok {
			return metadata.InvalidItem, errors.Newf("mesh %q has no submesh %q", mesh.Name, config.Submesh)
		}
		item.IndexCount = args.IndexCount
		item.StartIndexLocation = args.StartIndexLocation
		item.BaseVertexLocation = args.BaseVertexLocation
	}

	ss.items = append(ss.items, item)
	ss.layers[config.Layer] = append(ss.layers[config.Layer], item)
	return metadata.ItemHandle(item.ObjCBIndex), nil
}

func (ss *SceneSystem) Get(h metadata.ItemHandle) (*metadata.RenderItem, error) {
	if !h.Valid() || int(h) >= len(ss.items) {
		return nil, errors.Wrapf(core.ErrInvalidHandle, "render item %d", h)
	}
	return ss.items[h], nil
}

func (ss *SceneSystem) SetWorld(h metadata.ItemHandle, world mgl32.Mat4) error {
	item, err := ss.Get(h)
	if err != nil {
		return err
	}
	item.World = world
	item.MarkDirty(ss.Config.FrameResources)
	return nil
}

func (ss *SceneSystem) SetTexTransform(h metadata.ItemHandle, texTransform mgl32.Mat4) error {
	item, err := ss.Get(h)
	if err != nil {
		return err
	}
	item.TexTransform = texTransform
	item.MarkDirty(ss.Config.FrameResources)
	return nil
}

func (ss *SceneSystem) SetMaterial(h metadata.ItemHandle, material metadata.MaterialHandle) error {
	item, err := ss.Get(h)
	if err != nil {
		return err
	}
	if _, err := ss.materials.Get(material); err != nil {
		return err
	}
	item.Material = material
	item.MarkDirty(ss.Config.FrameResources)
	return nil
}

// MarkDirty schedules an item for upload after its fields were edited directly.
func (ss *SceneSystem) MarkDirty(h metadata.ItemHandle) error {
	item, err := ss.Get(h)
	if err != nil {
		return err
	}
	item.MarkDirty(ss.Config.FrameResources)
	return nil
}

func (ss *SceneSystem) Items() []*metadata.RenderItem {
	return ss.items
}

func (ss *SceneSystem) Layer(layer metadata.RenderLayer) []*metadata.RenderItem {
	if layer < 0 || layer >= metadata.RenderLayerCount {
		return nil
	}
	return ss.layers[layer]
}

func (ss *SceneSystem) Material(h metadata.MaterialHandle) (*metadata.Material, error) {
	return ss.materials.Get(h)
}

func (ss *SceneSystem) Materials() []*metadata.Material {
	return ss.materials.Materials()
}

func (ss *SceneSystem) Count() int {
	return len(ss.items)
}
