package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

func newMeshLoader(t *testing.T, assets *fakeAssets) (*MeshLoaderSystem, *GeometrySystem) {
	t.Helper()
	gs := newGeometrySystem(t, 8)
	js, err := NewJobSystem(2, 4)
	require.NoError(t, err)
	t.Cleanup(func() { js.Shutdown() })
	mls, err := NewMeshLoaderSystem(gs, js, assets)
	require.NoError(t, err)
	return mls, gs
}

func TestMeshLoaderFillsReservedMesh(t *testing.T) {
	assets := newFakeAssets()
	assets.models["skull"] = GeometrySystemGenerateSphereConfig(1, 8, 8, "ignored")
	mls, gs := newMeshLoader(t, assets)

	h, err := mls.Load("skullGeo", "skull", "skull")
	require.NoError(t, err)
	mls.Wait()

	mesh, err := gs.Get(h)
	require.NoError(t, err)
	require.False(t, mesh.Empty())
	assert.Equal(t, "skullGeo", mesh.Name)
	args, ok := mesh.DrawArgs["skull"]
	require.True(t, ok)
	assert.Equal(t, uint32(len(assets.models["skull"].Indices)), args.IndexCount)
}

func TestMeshLoaderMissingModelLeavesEmptyMesh(t *testing.T) {
	mls, gs := newMeshLoader(t, newFakeAssets())

	h, err := mls.Load("skullGeo", "skull", "skull")
	require.NoError(t, err)
	mls.Wait()

	mesh, err := gs.Get(h)
	require.NoError(t, err)
	assert.True(t, mesh.Empty())
}

func TestMeshLoaderRejectsDuplicateName(t *testing.T) {
	mls, _ := newMeshLoader(t, newFakeAssets())
	_, err := mls.Load("skullGeo", "skull", "skull")
	require.NoError(t, err)
	h, err := mls.Load("skullGeo", "skull", "skull")
	assert.Error(t, err)
	assert.Equal(t, metadata.InvalidMesh, h)
	mls.Wait()
}
