package renderer

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/citadel/engine/core"
	"github.com/spaghettifunk/citadel/engine/renderer/frame"
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

// DrawSource is what the renderer draws from: render items grouped by layer
// and the materials they reference.
type DrawSource interface {
	Layer(layer metadata.RenderLayer) []*metadata.RenderItem
	Items() []*metadata.RenderItem
	Material(handle metadata.MaterialHandle) (*metadata.Material, error)
	Materials() []*metadata.Material
}

type Config struct {
	FrameResources int
	ObjectCount    int
	MaterialCount  int
	FenceTimeout   time.Duration
}

// FrameStats describes the work done for one frame.
type FrameStats struct {
	Frame          uint64
	Slot           int
	Stall          time.Duration
	ObjectWrites   int
	MaterialWrites int
	Draws          int
}

// Renderer drives the frame resource ring: it selects a slot, waits for the
// GPU to release it, fills it, records the draws and hands it back to the GPU.
type Renderer struct {
	queue CommandQueue
	ring  *frame.Ring
	gate  *frame.Gate
	sync  *frame.Synchronizer
	list  *CommandList

	frameNumber uint64
	slot        *frame.Slot
	// slot whose wait failed, acquired again by the next BeginFrame
	retry *frame.Slot
	stats FrameStats
}

func New(queue CommandQueue, config Config) (*Renderer, error) {
	if queue == nil {
		return nil, errors.New("renderer requires a command queue")
	}
	if config.FrameResources == 0 {
		config.FrameResources = frame.DefaultFrameResources
	}
	ring, err := frame.NewRing(config.FrameResources, config.ObjectCount, config.MaterialCount)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		queue: queue,
		ring:  ring,
		gate:  frame.NewGate(queue, config.FenceTimeout),
		sync:  frame.NewSynchronizer(),
		list:  NewCommandList(),
	}, nil
}

func (r *Renderer) FrameResources() int {
	return r.ring.Len()
}

func (r *Renderer) Ring() *frame.Ring {
	return r.ring
}

func (r *Renderer) Synchronizer() *frame.Synchronizer {
	return r.sync
}

// BeginFrame advances to the next slot and blocks until the GPU has finished
// reading it.
func (r *Renderer) BeginFrame(ctx context.Context) (*frame.Slot, error) {
	if r.slot != nil {
		return nil, errors.New("BeginFrame called twice without EndFrame")
	}
	slot := r.retry
	if slot == nil {
		slot = r.ring.Advance()
	}
	stall, err := r.gate.Wait(ctx, slot)
	if err != nil {
		r.retry = slot
		return nil, err
	}
	r.retry = nil
	if stall > 0 {
		core.MetricsRecordStall(stall)
	}
	r.frameNumber++
	r.slot = slot
	r.stats = FrameStats{Frame: r.frameNumber, Slot: slot.Index, Stall: stall}
	r.list.Reset(r.frameNumber, slot)
	return slot, nil
}

// UpdateConstants copies dirty items and materials and the pass state into
// the active slot.
func (r *Renderer) UpdateConstants(source DrawSource, pass metadata.PassConstants) error {
	if r.slot == nil {
		return errors.New("UpdateConstants called outside of a frame")
	}
	n, err := r.sync.UpdateObjects(r.slot, source.Items())
	r.stats.ObjectWrites = n
	if err != nil {
		return err
	}
	n, err = r.sync.UpdateMaterials(r.slot, source.Materials())
	r.stats.MaterialWrites = n
	if err != nil {
		return err
	}
	return r.sync.UpdatePass(r.slot, pass)
}

// RecordDraws records every render item, layer by layer in draw order.
func (r *Renderer) RecordDraws(source DrawSource) error {
	if r.slot == nil {
		return errors.New("RecordDraws called outside of a frame")
	}
	for _, layer := range metadata.DrawOrder {
		for _, item := range source.Layer(layer) {
			if item.IndexCount == 0 {
				continue
			}
			mat, err := source.Material(item.Material)
			if err != nil {
				return errors.Wrapf(err, "render item %s", item.ID)
			}
			if err := r.list.Draw(DrawCall{
				Layer:              layer,
				Mesh:               item.Mesh,
				Topology:           item.Topology,
				ObjCBIndex:         item.ObjCBIndex,
				MatCBIndex:         mat.MatCBIndex,
				IndexCount:         item.IndexCount,
				StartIndexLocation: item.StartIndexLocation,
				BaseVertexLocation: item.BaseVertexLocation,
			}); err != nil {
				return err
			}
		}
	}
	r.stats.Draws = len(r.list.Draws)
	return nil
}

// EndFrame submits the recorded draws and fences the slot.
func (r *Renderer) EndFrame() (FrameStats, error) {
	if r.slot == nil {
		return FrameStats{}, errors.New("EndFrame called outside of a frame")
	}
	slot := r.slot
	r.slot = nil
	r.list.Close()
	if err := r.queue.ExecuteCommandLists(r.list); err != nil {
		return r.stats, errors.Wrap(err, "execute command lists")
	}
	if err := r.gate.Signal(slot); err != nil {
		return r.stats, err
	}
	return r.stats, nil
}

// CompletedFence returns the last fence value the queue reached.
func (r *Renderer) CompletedFence() uint64 {
	return r.queue.CompletedValue()
}

// Flush waits for every frame submitted so far.
func (r *Renderer) Flush(ctx context.Context) error {
	return r.gate.Drain(ctx)
}

// OnResize drains the queue so no slot is in flight while the viewport changes.
func (r *Renderer) OnResize(ctx context.Context, width, height uint32) error {
	core.LogDebug("Renderer resized to %dx%d, draining %d frames.", width, height, r.ring.Len())
	return r.Flush(ctx)
}

// Shutdown drains in-flight frames and closes the queue.
func (r *Renderer) Shutdown(ctx context.Context) error {
	drainErr := r.Flush(ctx)
	closeErr := r.queue.Close()
	if drainErr != nil {
		return errors.Wrap(drainErr, "drain frames on shutdown")
	}
	return closeErr
}
