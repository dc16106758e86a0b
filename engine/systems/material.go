package systems

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/citadel/engine/core"
	"github.com/spaghettifunk/citadel/engine/math"
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

type MaterialSystemConfig struct {
	/** @brief The maximum number of materials, which is also the size of the per-frame material buffer. */
	MaxMaterialCount uint32
	/** @brief The number of frame resources a change has to reach. */
	FrameResources int
}

// MaterialSystem owns every material. MatCBIndex is the registration order.
// Materials are only mutated from the main loop.
type MaterialSystem struct {
	Config *MaterialSystemConfig

	materials []*metadata.Material
	table     map[string]metadata.MaterialHandle

	textures *TextureSystem
	assets   AssetLoader
	eventID  uint64
}

func NewMaterialSystem(config *MaterialSystemConfig, ts *TextureSystem, assets AssetLoader) (*MaterialSystem, error) {
	if config.MaxMaterialCount == 0 {
		err := errors.New("func NewMaterialSystem - config.MaxMaterialCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	if config.FrameResources <= 0 {
		return nil, errors.New("func NewMaterialSystem - config.FrameResources must be > 0")
	}
	return &MaterialSystem{
		Config:    config,
		materials: make([]*metadata.Material, 0, config.MaxMaterialCount),
		table:     make(map[string]metadata.MaterialHandle),
		textures:  ts,
		assets:    assets,
	}, nil
}

// Initialize subscribes to material library changes.
func (ms *MaterialSystem) Initialize() error {
	ms.eventID = core.EventRegister(core.EVENT_CODE_MATERIALS_CHANGED, ms.onMaterialsChanged)
	return nil
}

func (ms *MaterialSystem) Shutdown() error {
	if ms.eventID != 0 {
		core.EventUnregister(core.EVENT_CODE_MATERIALS_CHANGED, ms.eventID)
		ms.eventID = 0
	}
	ms.materials = nil
	ms.table = make(map[string]metadata.MaterialHandle)
	return nil
}

// Create registers a new material. It starts dirty for every frame resource.
func (ms *MaterialSystem) Create(config metadata.MaterialConfig) (metadata.MaterialHandle, error) {
	if config.Name == "" {
		return metadata.InvalidMaterial, errors.New("material name is required")
	}
	if _, ok := ms.table[config.Name]; ok {
		return metadata.InvalidMaterial, errors.Newf("material %q already exists", config.Name)
	}
	if uint32(len(ms.materials)) >= ms.Config.MaxMaterialCount {
		return metadata.InvalidMaterial, errors.Newf("cannot create material %q: all %d slots in use", config.Name, ms.Config.MaxMaterialCount)
	}

	h := metadata.MaterialHandle(len(ms.materials))
	m := &metadata.Material{
		Name:         config.Name,
		MatCBIndex:   uint32(h),
		MatTransform: mgl32.Ident4(),
	}
	ms.apply(m, config)
	ms.materials = append(ms.materials, m)
	ms.table[config.Name] = h
	core.LogDebug("Material '%s' created at index %d.", m.Name, m.MatCBIndex)
	return h, nil
}

// apply copies config into m, keeps any texture scroll and marks m dirty.
func (ms *MaterialSystem) apply(m *metadata.Material, config metadata.MaterialConfig) {
	m.DiffuseAlbedo = mgl32.Vec4(config.DiffuseAlbedo)
	m.FresnelR0 = mgl32.Vec3(config.FresnelR0)
	m.Roughness = config.Roughness

	m.DiffuseTexture = DefaultTextureHandle
	if config.DiffuseMapName != "" && ms.textures != nil {
		m.DiffuseTexture = ms.textures.Acquire(config.DiffuseMapName)
	}

	sx, sy := config.TexScale[0], config.TexScale[1]
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	m.MatTransform.Set(0, 0, sx)
	m.MatTransform.Set(1, 1, sy)
	m.MarkDirty(ms.Config.FrameResources)
}

func (ms *MaterialSystem) Get(h metadata.MaterialHandle) (*metadata.Material, error) {
	if !h.Valid() || int(h) >= len(ms.materials) {
		return nil, errors.Wrapf(core.ErrInvalidHandle, "material %d", h)
	}
	return ms.materials[h], nil
}

func (ms *MaterialSystem) Lookup(name string) (metadata.MaterialHandle, error) {
	h, ok := ms.table[name]
	if !ok {
		return metadata.InvalidMaterial, errors.Wrapf(core.ErrAssetNotFound, "material %q", name)
	}
	return h, nil
}

// Materials returns every material in MatCBIndex order.
func (ms *MaterialSystem) Materials() []*metadata.Material {
	return ms.materials
}

// MarkDirty schedules a material for upload after its fields were edited directly.
func (ms *MaterialSystem) MarkDirty(h metadata.MaterialHandle) error {
	m, err := ms.Get(h)
	if err != nil {
		return err
	}
	m.MarkDirty(ms.Config.FrameResources)
	return nil
}

// ApplyLibrary creates the materials it does not know yet and updates the
// ones it does. It returns how many existing materials changed.
func (ms *MaterialSystem) ApplyLibrary(configs []metadata.MaterialConfig) (int, error) {
	updated := 0
	for _, cfg := range configs {
		if h, ok := ms.table[cfg.Name]; ok {
			ms.apply(ms.materials[h], cfg)
			updated++
			continue
		}
		if _, err := ms.Create(cfg); err != nil {
			return updated, err
		}
	}
	return updated, nil
}

// LoadLibrary loads a material library through the asset manager and applies it.
func (ms *MaterialSystem) LoadLibrary(name string) (int, error) {
	if ms.assets == nil {
		return 0, errors.Wrapf(core.ErrAssetNotFound, "material library %q: no asset manager", name)
	}
	asset, err := ms.assets.LoadAsset(name, metadata.AssetTypeMaterialLibrary)
	if err != nil {
		return 0, err
	}
	defer ms.assets.UnloadAsset(asset)

	configs, ok := asset.Data.([]metadata.MaterialConfig)
	if !ok {
		return 0, errors.Newf("material library %q: unexpected asset data %T", name, asset.Data)
	}
	return ms.ApplyLibrary(configs)
}

func (ms *MaterialSystem) onMaterialsChanged(context core.EventContext) bool {
	ev, ok := context.Data.(*core.AssetEvent)
	if !ok {
		return false
	}
	n, err := ms.LoadLibrary(ev.Path)
	if err != nil {
		core.LogError("Reloading material library %s failed, keeping current materials: %s", ev.Path, err.Error())
		return true
	}
	core.LogInfo("Reloaded material library %s, %d materials updated.", ev.Path, n)
	return true
}

// AnimateScroll moves the texture coordinates of a material by (du, dv) per
// second, wrapping into [0, 1).
func (ms *MaterialSystem) AnimateScroll(h metadata.MaterialHandle, du, dv, deltaTime float32) error {
	m, err := ms.Get(h)
	if err != nil {
		return err
	}
	tu := math.Wrap01(m.MatTransform.At(0, 3) + du*deltaTime)
	tv := math.Wrap01(m.MatTransform.At(1, 3) + dv*deltaTime)
	m.MatTransform.Set(0, 3, tu)
	m.MatTransform.Set(1, 3, tv)
	m.MarkDirty(ms.Config.FrameResources)
	return nil
}
