package frame

import (
	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

// Synchronizer copies dirty render items, materials and the pass state into
// the active slot. Each dirty record is written once per slot and its
// countdown decremented, so a countdown of N reaches every slot of an N deep
// ring exactly once.
type Synchronizer struct {
	ObjectWrites   uint64
	MaterialWrites uint64
	PassWrites     uint64
}

func NewSynchronizer() *Synchronizer {
	return &Synchronizer{}
}

// UpdateObjects writes every item with a pending countdown and returns the
// number of writes.
func (s *Synchronizer) UpdateObjects(slot *Slot, items []*metadata.RenderItem) (int, error) {
	written := 0
	for _, item := range items {
		if item == nil || item.NumFramesDirty <= 0 {
			continue
		}
		if err := slot.ObjectCB.CopyData(int(item.ObjCBIndex), item.Constants()); err != nil {
			return written, errors.Wrapf(err, "render item %s", item.ID)
		}
		item.NumFramesDirty--
		written++
	}
	s.ObjectWrites += uint64(written)
	return written, nil
}

// UpdateMaterials writes every material with a pending countdown and returns
// the number of writes.
func (s *Synchronizer) UpdateMaterials(slot *Slot, materials []*metadata.Material) (int, error) {
	written := 0
	for _, mat := range materials {
		if mat == nil || mat.NumFramesDirty <= 0 {
			continue
		}
		if err := slot.MaterialCB.CopyData(int(mat.MatCBIndex), mat.Constants()); err != nil {
			return written, errors.Wrapf(err, "material %q", mat.Name)
		}
		mat.NumFramesDirty--
		written++
	}
	s.MaterialWrites += uint64(written)
	return written, nil
}

// UpdatePass writes the pass constants unconditionally.
func (s *Synchronizer) UpdatePass(slot *Slot, pass metadata.PassConstants) error {
	if err := slot.PassCB.CopyData(0, pass); err != nil {
		return errors.Wrap(err, "pass constants")
	}
	s.PassWrites++
	return nil
}
