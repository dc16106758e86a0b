package frame

import (
	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/citadel/engine/containers"
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

// DefaultFrameResources is the ring depth used when none is configured.
const DefaultFrameResources = 3

// Slot is one frame resource: the constant buffers the CPU fills for a frame
// and the fence value the GPU must reach before they can be written again.
type Slot struct {
	Index      int
	ObjectCB   *UploadBuffer[metadata.ObjectConstants]
	MaterialCB *UploadBuffer[metadata.MaterialConstants]
	PassCB     *UploadBuffer[metadata.PassConstants]
	// Fence is zero until the slot is submitted for the first time.
	Fence uint64
}

func newSlot(index, objectCount, materialCount int) *Slot {
	return &Slot{
		Index:      index,
		ObjectCB:   NewUploadBuffer[metadata.ObjectConstants](objectCount),
		MaterialCB: NewUploadBuffer[metadata.MaterialConstants](materialCount),
		PassCB:     NewUploadBuffer[metadata.PassConstants](1),
	}
}

// Ring cycles through a fixed number of slots.
type Ring struct {
	slots *containers.Ring[*Slot]
}

// NewRing creates count slots, each with room for objectCount object
// constants and materialCount material constants.
func NewRing(count, objectCount, materialCount int) (*Ring, error) {
	if count < 1 {
		return nil, errors.Newf("frame resource count must be at least 1, got %d", count)
	}
	if objectCount < 0 || materialCount < 0 {
		return nil, errors.Newf("negative constant buffer size (objects=%d, materials=%d)", objectCount, materialCount)
	}
	slots := make([]*Slot, count)
	for i := range slots {
		slots[i] = newSlot(i, objectCount, materialCount)
	}
	r, err := containers.NewRing(slots...)
	if err != nil {
		return nil, err
	}
	return &Ring{slots: r}, nil
}

// Advance moves to the next slot and returns it. The first call returns slot 0.
// The caller must pass the slot through Gate.Wait before writing to it.
func (r *Ring) Advance() *Slot {
	return r.slots.Advance()
}

func (r *Ring) Current() *Slot {
	return r.slots.Current()
}

func (r *Ring) Slot(i int) *Slot {
	return r.slots.At(i)
}

func (r *Ring) Len() int {
	return r.slots.Len()
}

// MaxFence returns the highest fence value recorded by any slot.
func (r *Ring) MaxFence() uint64 {
	var max uint64
	r.slots.Each(func(_ int, s *Slot) {
		if s.Fence > max {
			max = s.Fence
		}
	})
	return max
}
