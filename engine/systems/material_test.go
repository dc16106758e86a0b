package systems

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/citadel/engine/core"
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

const testFrames = 3

func newMaterialSystem(t *testing.T, assets *fakeAssets) *MaterialSystem {
	t.Helper()
	ts, err := NewTextureSystem(&TextureSystemConfig{MaxTextureCount: 8}, assets)
	require.NoError(t, err)
	ms, err := NewMaterialSystem(&MaterialSystemConfig{MaxMaterialCount: 8, FrameResources: testFrames}, ts, assets)
	require.NoError(t, err)
	return ms
}

func stone() metadata.MaterialConfig {
	return metadata.MaterialConfig{
		Name:           "stone0",
		DiffuseMapName: "stone",
		DiffuseAlbedo:  [4]float32{1, 1, 1, 1},
		FresnelR0:      [3]float32{0.05, 0.05, 0.05},
		Roughness:      0.3,
		TexScale:       [2]float32{1, 1},
	}
}

func TestMaterialCreate(t *testing.T) {
	assets := newFakeAssets()
	assets.textures["stone"] = &metadata.Texture{Width: 1, Height: 1}
	ms := newMaterialSystem(t, assets)

	h, err := ms.Create(stone())
	require.NoError(t, err)
	tile := stone()
	tile.Name = "tile0"
	tile.DiffuseMapName = "tile"
	h2, err := ms.Create(tile)
	require.NoError(t, err)

	m, err := ms.Get(h)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), m.MatCBIndex)
	assert.Equal(t, testFrames, m.NumFramesDirty)
	assert.Equal(t, metadata.TextureHandle(1), m.DiffuseTexture)
	assert.Equal(t, mgl32.Vec3{0.05, 0.05, 0.05}, m.FresnelR0)
	assert.Equal(t, mgl32.Ident4(), m.MatTransform)

	m2, err := ms.Get(h2)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), m2.MatCBIndex)
	assert.Equal(t, DefaultTextureHandle, m2.DiffuseTexture)

	found, err := ms.Lookup("tile0")
	require.NoError(t, err)
	assert.Equal(t, h2, found)

	_, err = ms.Create(stone())
	assert.Error(t, err)
	_, err = ms.Lookup("water")
	assert.ErrorIs(t, err, core.ErrAssetNotFound)
	_, err = ms.Get(metadata.MaterialHandle(7))
	assert.ErrorIs(t, err, core.ErrInvalidHandle)
	assert.Len(t, ms.Materials(), 2)
}

func TestMaterialCapacity(t *testing.T) {
	ts, err := NewTextureSystem(&TextureSystemConfig{MaxTextureCount: 1}, nil)
	require.NoError(t, err)
	ms, err := NewMaterialSystem(&MaterialSystemConfig{MaxMaterialCount: 1, FrameResources: 3}, ts, nil)
	require.NoError(t, err)

	_, err = ms.Create(metadata.MaterialConfig{Name: "a"})
	require.NoError(t, err)
	_, err = ms.Create(metadata.MaterialConfig{Name: "b"})
	assert.Error(t, err)

	_, err = NewMaterialSystem(&MaterialSystemConfig{MaxMaterialCount: 1}, ts, nil)
	assert.Error(t, err)
}

func TestApplyLibraryUpdatesInPlace(t *testing.T) {
	ms := newMaterialSystem(t, newFakeAssets())
	h, err := ms.Create(stone())
	require.NoError(t, err)
	m, _ := ms.Get(h)
	m.NumFramesDirty = 0
	m.MatTransform.Set(0, 3, 0.25)

	changed := stone()
	changed.Roughness = 0.9
	changed.TexScale = [2]float32{4, 2}
	water := metadata.MaterialConfig{Name: "water", DiffuseAlbedo: [4]float32{1, 1, 1, 0.5}, TexScale: [2]float32{5, 5}}

	n, err := ms.ApplyLibrary([]metadata.MaterialConfig{changed, water})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Same(t, m, ms.Materials()[0])
	assert.Equal(t, float32(0.9), m.Roughness)
	assert.Equal(t, testFrames, m.NumFramesDirty)
	assert.Equal(t, float32(4), m.MatTransform.At(0, 0))
	assert.Equal(t, float32(2), m.MatTransform.At(1, 1))
	assert.Equal(t, float32(0.25), m.MatTransform.At(0, 3))

	wh, err := ms.Lookup("water")
	require.NoError(t, err)
	assert.Equal(t, metadata.MaterialHandle(1), wh)
}

func TestLoadLibraryAndHotReloadEvent(t *testing.T) {
	require.True(t, core.EventSystemInitialize())
	defer core.EventSystemShutdown()

	assets := newFakeAssets()
	assets.libraries["materials.toml"] = []metadata.MaterialConfig{stone()}
	ms := newMaterialSystem(t, assets)
	require.NoError(t, ms.Initialize())
	defer ms.Shutdown()

	n, err := ms.LoadLibrary("materials.toml")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, assets.unloads)

	m, _ := ms.Get(0)
	m.NumFramesDirty = 0

	edited := stone()
	edited.DiffuseAlbedo = [4]float32{0.5, 0.5, 0.5, 1}
	assets.libraries["materials.toml"] = []metadata.MaterialConfig{edited}

	handled := core.EventFire(core.EventContext{
		Type: core.EVENT_CODE_MATERIALS_CHANGED,
		Data: &core.AssetEvent{Path: "materials.toml"},
	})
	assert.True(t, handled)
	assert.Equal(t, mgl32.Vec4{0.5, 0.5, 0.5, 1}, m.DiffuseAlbedo)
	assert.Equal(t, testFrames, m.NumFramesDirty)

	// A broken reload keeps the current materials.
	delete(assets.libraries, "materials.toml")
	assert.True(t, core.EventFire(core.EventContext{
		Type: core.EVENT_CODE_MATERIALS_CHANGED,
		Data: &core.AssetEvent{Path: "materials.toml"},
	}))
	assert.Len(t, ms.Materials(), 1)
}

func TestAnimateScrollWrapsAndMarksDirty(t *testing.T) {
	ms := newMaterialSystem(t, newFakeAssets())
	h, err := ms.Create(metadata.MaterialConfig{Name: "water"})
	require.NoError(t, err)
	m, _ := ms.Get(h)

	for i := 0; i < 12; i++ {
		m.NumFramesDirty = 0
		require.NoError(t, ms.AnimateScroll(h, 0.1, 0.02, 1))
		assert.Equal(t, testFrames, m.NumFramesDirty)
	}
	assert.InDelta(t, 0.2, m.MatTransform.At(0, 3), 1e-4)
	assert.InDelta(t, 0.24, m.MatTransform.At(1, 3), 1e-4)

	// Translation lands in the last row once transposed.
	c := m.Constants()
	assert.InDelta(t, 0.2, c.MatTransform.At(3, 0), 1e-4)

	assert.ErrorIs(t, ms.AnimateScroll(metadata.MaterialHandle(9), 0.1, 0.1, 1), core.ErrInvalidHandle)
}
