package assets

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/citadel/engine/core"
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

const model = `VertexCount: 3
TriangleCount: 1
VertexList (pos, normal)
{
	0 0 0 0 1 0
	1 0 0 0 1 0
	0 0 1 0 1 0
}
TriangleList
{
	0 2 1
}
`

const materials = `[[material]]
name = "grassMat"
diffuse_map = "grass"
roughness = 0.3
`

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func newAssetDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ModelsDir, "skull.txt"), []byte(model))
	writeFile(t, filepath.Join(dir, "materials.toml"), []byte(materials))
	writeFile(t, filepath.Join(dir, "README.md"), []byte("ignored"))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, TexturesDir), 0o755))
	f, err := os.Create(filepath.Join(dir, TexturesDir, "grass.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 2, 2))))
	require.NoError(t, f.Close())
	return dir
}

func TestAssetManagerIndexesAndLoads(t *testing.T) {
	am := NewAssetManager()
	require.NoError(t, am.Initialize(newAssetDir(t), false))
	defer am.Shutdown()

	assert.Equal(t, 3, am.Count())

	tex, err := am.LoadAsset("grass", metadata.AssetTypeTexture)
	require.NoError(t, err)
	assert.Equal(t, "grass", tex.Name)
	assert.Equal(t, uint32(2), tex.Data.(*metadata.Texture).Width)

	skull, err := am.LoadAsset("skull", metadata.AssetTypeModel)
	require.NoError(t, err)
	assert.Len(t, skull.Data.(*metadata.GeometryConfig).Vertices, 3)
	require.NoError(t, am.UnloadAsset(skull))
	assert.Nil(t, skull.Data)

	lib, err := am.LoadAsset("materials", metadata.AssetTypeMaterialLibrary)
	require.NoError(t, err)
	assert.Len(t, lib.Data.([]metadata.MaterialConfig), 1)

	lib, err = am.LoadAsset("materials.toml", metadata.AssetTypeMaterialLibrary)
	require.NoError(t, err)
	assert.Equal(t, metadata.AssetTypeMaterialLibrary, lib.Type)
}

func TestAssetManagerMissingAsset(t *testing.T) {
	am := NewAssetManager()
	require.NoError(t, am.Initialize(newAssetDir(t), false))
	defer am.Shutdown()

	_, err := am.LoadAsset("treeArray", metadata.AssetTypeTexture)
	assert.ErrorIs(t, err, core.ErrAssetNotFound)

	// A model is not a texture even if the name matches.
	_, err = am.LoadAsset("skull", metadata.AssetTypeTexture)
	assert.ErrorIs(t, err, core.ErrAssetNotFound)
}

func TestAssetManagerRejectsMissingDir(t *testing.T) {
	am := NewAssetManager()
	assert.Error(t, am.Initialize(filepath.Join(t.TempDir(), "nope"), false))
	assert.NoError(t, am.Shutdown())
}

func TestDetermineAssetType(t *testing.T) {
	tests := map[string]metadata.AssetType{
		"materials.toml":        metadata.AssetTypeMaterialLibrary,
		"models/skull.txt":      metadata.AssetTypeModel,
		"notes.txt":             metadata.AssetTypeNone,
		"textures/water1.PNG":   metadata.AssetTypeTexture,
		"textures/stone.webp":   metadata.AssetTypeTexture,
		"textures/bricks2.dds":  metadata.AssetTypeNone,
		"shaders/default.hlsl":  metadata.AssetTypeNone,
		"textures/sub/tree.bmp": metadata.AssetTypeTexture,
	}
	for path, want := range tests {
		assert.Equal(t, want, determineAssetType(path), path)
	}
}

func TestAssetManagerHotReloadFiresEvent(t *testing.T) {
	require.True(t, core.EventSystemInitialize())
	defer core.EventSystemShutdown()

	dir := newAssetDir(t)
	am := NewAssetManager()
	require.NoError(t, am.Initialize(dir, true))
	defer am.Shutdown()

	var mu sync.Mutex
	var paths []string
	id := core.EventRegister(core.EVENT_CODE_MATERIALS_CHANGED, func(ctx core.EventContext) bool {
		mu.Lock()
		defer mu.Unlock()
		paths = append(paths, ctx.Data.(*core.AssetEvent).Path)
		return true
	})
	require.NotZero(t, id)

	writeFile(t, filepath.Join(dir, "materials.toml"), []byte(materials+"\n# edited\n"))

	require.Eventually(t, func() bool {
		am.Update()
		mu.Lock()
		defer mu.Unlock()
		return len(paths) > 0
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "materials.toml", paths[0])
	mu.Unlock()

	// Files created after start are indexed too.
	writeFile(t, filepath.Join(dir, TexturesDir, "water1.png"), []byte("x"))
	require.Eventually(t, func() bool {
		_, err := am.resolve("water1", metadata.AssetTypeTexture)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
}
