package systems

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/citadel/engine/core"
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

type sceneFixture struct {
	scene    *SceneSystem
	shapes   metadata.MeshHandle
	skull    metadata.MeshHandle
	stone    metadata.MaterialHandle
	bricks   metadata.MaterialHandle
	geometry *GeometrySystem
}

func newSceneFixture(t *testing.T, maxObjects uint32) *sceneFixture {
	t.Helper()
	gs := newGeometrySystem(t, 8)
	ms := newMaterialSystem(t, newFakeAssets())

	shapes, err := gs.Pack("shapeGeo",
		GeometrySystemGenerateBoxConfig(1, 1, 1, 3, "box"),
		GeometrySystemGenerateCylinderConfig(0.5, 0.45, 5, 20, 20, "cylinder"),
	)
	require.NoError(t, err)
	skull, err := gs.Reserve("skullGeo")
	require.NoError(t, err)

	stone, err := ms.Create(stone())
	require.NoError(t, err)
	bricks, err := ms.Create(metadata.MaterialConfig{Name: "bricks0"})
	require.NoError(t, err)

	ss, err := NewSceneSystem(&SceneSystemConfig{MaxObjectCount: maxObjects, FrameResources: testFrames}, gs, ms)
	require.NoError(t, err)
	return &sceneFixture{scene: ss, shapes: shapes, skull: skull, stone: stone, bricks: bricks, geometry: gs}
}

func TestRegisterResolvesDrawArgs(t *testing.T) {
	f := newSceneFixture(t, 16)
	world := mgl32.Translate3D(0, 2, 0).Mul4(mgl32.Scale3D(10, 4, 10))

	box, err := f.scene.Register(RenderItemConfig{
		Layer: metadata.RenderLayerOpaque, Mesh: f.shapes, Submesh: "box", Material: f.stone, World: world,
	})
	require.NoError(t, err)
	cyl, err := f.scene.Register(RenderItemConfig{
		Layer: metadata.RenderLayerAlphaTested, Mesh: f.shapes, Submesh: "cylinder", Material: f.bricks,
	})
	require.NoError(t, err)

	mesh, _ := f.geometry.Get(f.shapes)
	item, err := f.scene.Get(box)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), item.ObjCBIndex)
	assert.Equal(t, world, item.World)
	assert.Equal(t, mgl32.Ident4(), item.TexTransform)
	assert.Equal(t, testFrames, item.NumFramesDirty)
	assert.Equal(t, mesh.DrawArgs["box"].IndexCount, item.IndexCount)

	item2, err := f.scene.Get(cyl)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), item2.ObjCBIndex)
	assert.Equal(t, mesh.DrawArgs["cylinder"].StartIndexLocation, item2.StartIndexLocation)
	assert.Equal(t, mesh.DrawArgs["cylinder"].BaseVertexLocation, item2.BaseVertexLocation)
	assert.NotEqual(t, item.ID, item2.ID)

	assert.Equal(t, []*metadata.RenderItem{item}, f.scene.Layer(metadata.RenderLayerOpaque))
	assert.Equal(t, []*metadata.RenderItem{item2}, f.scene.Layer(metadata.RenderLayerAlphaTested))
	assert.Empty(t, f.scene.Layer(metadata.RenderLayerTransparent))
	assert.Nil(t, f.scene.Layer(metadata.RenderLayerCount))
	assert.Len(t, f.scene.Items(), 2)
	assert.Len(t, f.scene.Materials(), 2)
}

func TestRegisterKeepsDuplicatesInOrder(t *testing.T) {
	f := newSceneFixture(t, 16)
	cfg := RenderItemConfig{Layer: metadata.RenderLayerOpaque, Mesh: f.shapes, Submesh: "box", Material: f.stone}
	for i := 0; i < 3; i++ {
		_, err := f.scene.Register(cfg)
		require.NoError(t, err)
	}
	layer := f.scene.Layer(metadata.RenderLayerOpaque)
	require.Len(t, layer, 3)
	for i, item := range layer {
		assert.Equal(t, uint32(i), item.ObjCBIndex)
	}
}

func TestRegisterEmptyMeshIsNotDrawn(t *testing.T) {
	f := newSceneFixture(t, 16)
	h, err := f.scene.Register(RenderItemConfig{
		Layer: metadata.RenderLayerOpaque, Mesh: f.skull, Submesh: "skull", Material: f.stone,
	})
	require.NoError(t, err)
	item, _ := f.scene.Get(h)
	assert.Zero(t, item.IndexCount)
	assert.Equal(t, testFrames, item.NumFramesDirty)
}

func TestRegisterErrors(t *testing.T) {
	f := newSceneFixture(t, 1)
	_, err := f.scene.Register(RenderItemConfig{Layer: metadata.RenderLayerOpaque, Mesh: f.shapes, Submesh: "torus", Material: f.stone})
	assert.Error(t, err)
	_, err = f.scene.Register(RenderItemConfig{Layer: metadata.RenderLayerCount, Mesh: f.shapes, Submesh: "box", Material: f.stone})
	assert.Error(t, err)
	_, err = f.scene.Register(RenderItemConfig{Layer: metadata.RenderLayerOpaque, Mesh: f.shapes, Submesh: "box", Material: metadata.InvalidMaterial})
	assert.ErrorIs(t, err, core.ErrInvalidHandle)
	_, err = f.scene.Register(RenderItemConfig{Layer: metadata.RenderLayerOpaque, Mesh: metadata.MeshHandle(42), Submesh: "box", Material: f.stone})
	assert.ErrorIs(t, err, core.ErrInvalidHandle)

	_, err = f.scene.Register(RenderItemConfig{Layer: metadata.RenderLayerOpaque, Mesh: f.shapes, Submesh: "box", Material: f.stone})
	require.NoError(t, err)
	_, err = f.scene.Register(RenderItemConfig{Layer: metadata.RenderLayerOpaque, Mesh: f.shapes, Submesh: "box", Material: f.stone})
	assert.Error(t, err)
	assert.Equal(t, 1, f.scene.Count())
}

func TestMutatorsResetCountdown(t *testing.T) {
	f := newSceneFixture(t, 4)
	h, err := f.scene.Register(RenderItemConfig{Layer: metadata.RenderLayerOpaque, Mesh: f.shapes, Submesh: "box", Material: f.stone})
	require.NoError(t, err)
	item, _ := f.scene.Get(h)

	item.NumFramesDirty = 1
	require.NoError(t, f.scene.SetWorld(h, mgl32.Translate3D(1, 2, 3)))
	assert.Equal(t, testFrames, item.NumFramesDirty)
	assert.Equal(t, mgl32.Translate3D(1, 2, 3), item.World)

	item.NumFramesDirty = 0
	require.NoError(t, f.scene.SetTexTransform(h, mgl32.Scale3D(4, 4, 1)))
	assert.Equal(t, testFrames, item.NumFramesDirty)

	item.NumFramesDirty = 0
	require.NoError(t, f.scene.SetMaterial(h, f.bricks))
	assert.Equal(t, f.bricks, item.Material)
	assert.Equal(t, testFrames, item.NumFramesDirty)

	item.NumFramesDirty = 0
	require.NoError(t, f.scene.MarkDirty(h))
	assert.Equal(t, testFrames, item.NumFramesDirty)

	assert.ErrorIs(t, f.scene.SetMaterial(h, metadata.InvalidMaterial), core.ErrInvalidHandle)
	assert.ErrorIs(t, f.scene.SetWorld(metadata.InvalidItem, mgl32.Ident4()), core.ErrInvalidHandle)
	assert.ErrorIs(t, f.scene.MarkDirty(metadata.ItemHandle(3)), core.ErrInvalidHandle)
}
