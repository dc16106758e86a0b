package frame

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/citadel/engine/core"
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

func newItem(index uint32, frames int) *metadata.RenderItem {
	return &metadata.RenderItem{
		ID:             uuid.New(),
		World:          mgl32.Ident4(),
		TexTransform:   mgl32.Ident4(),
		ObjCBIndex:     index,
		NumFramesDirty: frames,
	}
}

func newMaterial(index uint32, frames int) *metadata.Material {
	return &metadata.Material{
		Name:           "stone0",
		MatCBIndex:     index,
		DiffuseAlbedo:  mgl32.Vec4{1, 1, 1, 1},
		FresnelR0:      mgl32.Vec3{0.05, 0.05, 0.05},
		Roughness:      0.1,
		MatTransform:   mgl32.Ident4(),
		NumFramesDirty: frames,
	}
}

// frameStep advances the ring and syncs, the way the engine does once per frame.
func frameStep(t *testing.T, r *Ring, s *Synchronizer, items []*metadata.RenderItem, mats []*metadata.Material) *Slot {
	t.Helper()
	slot := r.Advance()
	_, err := s.UpdateObjects(slot, items)
	require.NoError(t, err)
	_, err = s.UpdateMaterials(slot, mats)
	require.NoError(t, err)
	return slot
}

func TestCountdownScenarioThreeSlots(t *testing.T) {
	r, err := NewRing(3, 1, 0)
	require.NoError(t, err)
	s := NewSynchronizer()
	o := newItem(0, 3)
	o.World = mgl32.Translate3D(1, 2, 3)
	items := []*metadata.RenderItem{o}

	for i, wantCountdown := range []int{2, 1, 0} {
		slot := frameStep(t, r, s, items, nil)
		assert.Equal(t, i, slot.Index)
		assert.Equal(t, wantCountdown, o.NumFramesDirty)
		assert.Equal(t, uint64(1), slot.ObjectCB.Writes(0))
		assert.Equal(t, o.World.Transpose(), slot.ObjectCB.At(0).World)
	}

	slot := frameStep(t, r, s, items, nil)
	assert.Equal(t, 0, slot.Index)
	assert.Equal(t, uint64(1), slot.ObjectCB.Writes(0), "fourth advance must not write")
	assert.Equal(t, uint64(3), s.ObjectWrites)
}

func TestStaggeredPropagationReachesEverySlot(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5} {
		r, err := NewRing(n, 4, 0)
		require.NoError(t, err)
		s := NewSynchronizer()
		items := []*metadata.RenderItem{newItem(0, n), newItem(1, n), newItem(2, n), newItem(3, n)}

		// Settle the initial upload, then mark objects at different frames.
		for i := 0; i < n; i++ {
			frameStep(t, r, s, items, nil)
		}
		marks := map[int]int{0: 0, 1: 1, 2: 1, 3: n + 2}
		for frame := 0; frame < 3*n+4; frame++ {
			for idx, at := range marks {
				if at == frame {
					items[idx].World = mgl32.Translate3D(float32(frame), float32(idx), 0)
					items[idx].MarkDirty(n)
				}
			}
			frameStep(t, r, s, items, nil)
		}

		for idx, item := range items {
			for i := 0; i < n; i++ {
				assert.Equal(t, item.World.Transpose(), r.Slot(i).ObjectCB.At(idx).World,
					"n=%d object %d slot %d", n, idx, i)
			}
			assert.Zero(t, item.NumFramesDirty)
		}
	}
}

func TestAdvancingWithoutMarksLeavesSlotsUnchanged(t *testing.T) {
	const n = 3
	r, err := NewRing(n, 2, 1)
	require.NoError(t, err)
	s := NewSynchronizer()
	items := []*metadata.RenderItem{newItem(0, n), newItem(1, n)}
	mats := []*metadata.Material{newMaterial(0, n)}

	for i := 0; i < n; i++ {
		frameStep(t, r, s, items, mats)
	}
	before := make([][]metadata.ObjectConstants, n)
	for i := 0; i < n; i++ {
		before[i] = []metadata.ObjectConstants{r.Slot(i).ObjectCB.At(0), r.Slot(i).ObjectCB.At(1)}
	}
	objectWrites, materialWrites := s.ObjectWrites, s.MaterialWrites

	for i := 0; i < n; i++ {
		frameStep(t, r, s, items, mats)
	}

	for i := 0; i < n; i++ {
		assert.Equal(t, before[i], []metadata.ObjectConstants{r.Slot(i).ObjectCB.At(0), r.Slot(i).ObjectCB.At(1)})
	}
	assert.Equal(t, objectWrites, s.ObjectWrites)
	assert.Equal(t, materialWrites, s.MaterialWrites)
}

func TestRemarkingResetsCountdownInsteadOfAdding(t *testing.T) {
	const n = 3
	r, err := NewRing(n, 1, 0)
	require.NoError(t, err)
	s := NewSynchronizer()
	o := newItem(0, 0)
	items := []*metadata.RenderItem{o}

	o.MarkDirty(n)
	frameStep(t, r, s, items, nil)
	o.MarkDirty(n)
	for i := 0; i < 2*n; i++ {
		frameStep(t, r, s, items, nil)
	}

	// One write from the first mark plus n from the reset, never n+n.
	assert.Equal(t, uint64(1+n), s.ObjectWrites)
	assert.Zero(t, o.NumFramesDirty)
}

func TestSharedMaterialWrittenOncePerSlot(t *testing.T) {
	const n = 3
	r, err := NewRing(n, 2, 1)
	require.NoError(t, err)
	s := NewSynchronizer()
	mat := newMaterial(0, 0)
	a, b := newItem(0, 0), newItem(1, 0)
	a.Material, b.Material = 0, 0
	items := []*metadata.RenderItem{a, b}
	mats := []*metadata.Material{mat}

	mat.Roughness = 0.7
	mat.MarkDirty(n)
	for i := 0; i < n+1; i++ {
		frameStep(t, r, s, items, mats)
	}

	for i := 0; i < n; i++ {
		assert.Equal(t, uint64(1), r.Slot(i).MaterialCB.Writes(0))
		assert.Equal(t, float32(0.7), r.Slot(i).MaterialCB.At(0).Roughness)
	}
	assert.Equal(t, uint64(n), s.MaterialWrites)
	assert.Zero(t, s.ObjectWrites)
}

func TestMaterialConstantsAreTransposed(t *testing.T) {
	r, err := NewRing(1, 0, 1)
	require.NoError(t, err)
	mat := newMaterial(0, 1)
	mat.MatTransform = mgl32.Translate3D(0.25, 0.5, 0)

	frameStep(t, r, NewSynchronizer(), nil, []*metadata.Material{mat})
	got := r.Slot(0).MaterialCB.At(0)
	assert.Equal(t, mat.MatTransform.Transpose(), got.MatTransform)
	assert.Equal(t, mat.FresnelR0, got.FresnelR0)
}

func TestUpdateObjectsRejectsOutOfRangeIndex(t *testing.T) {
	r, err := NewRing(1, 1, 0)
	require.NoError(t, err)
	o := newItem(4, 1)

	n, err := NewSynchronizer().UpdateObjects(r.Advance(), []*metadata.RenderItem{o})
	assert.ErrorIs(t, err, core.ErrInvalidHandle)
	assert.Zero(t, n)
	assert.Equal(t, 1, o.NumFramesDirty)
}

func TestUpdatePassAlwaysWrites(t *testing.T) {
	r, err := NewRing(2, 0, 0)
	require.NoError(t, err)
	s := NewSynchronizer()
	for i := 0; i < 4; i++ {
		slot := r.Advance()
		require.NoError(t, s.UpdatePass(slot, metadata.PassConstants{TotalTime: float32(i)}))
		assert.Equal(t, float32(i), slot.PassCB.At(0).TotalTime)
	}
	assert.Equal(t, uint64(2), r.Slot(0).PassCB.Writes(0))
	assert.Equal(t, uint64(4), s.PassWrites)
}

func TestNewRingValidates(t *testing.T) {
	_, err := NewRing(0, 1, 1)
	assert.Error(t, err)
	_, err = NewRing(3, -1, 1)
	assert.Error(t, err)

	r, err := NewRing(3, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())
	r.Slot(1).Fence = 7
	assert.Equal(t, uint64(7), r.MaxFence())
}
