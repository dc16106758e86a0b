package frame

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/citadel/engine/core"
)

// Timeline is the part of a command queue the gate needs: a monotonically
// increasing completed value and a way to be told when it reaches a target.
type Timeline interface {
	Signal(value uint64) error
	CompletedValue() uint64
	SetEventOnCompletion(value uint64) <-chan struct{}
}

// Gate keeps the CPU from writing a slot the GPU is still reading.
type Gate struct {
	timeline Timeline
	timeout  time.Duration
	current  uint64
}

// NewGate creates a gate over timeline. A timeout <= 0 waits until the
// context is cancelled.
func NewGate(timeline Timeline, timeout time.Duration) *Gate {
	return &Gate{
		timeline: timeline,
		timeout:  timeout,
	}
}

// Wait blocks until the GPU has finished the previous use of slot. It returns
// how long it blocked. A *core.SyncTimeoutError is returned if the fence is not
// reached within the timeout.
func (g *Gate) Wait(ctx context.Context, slot *Slot) (time.Duration, error) {
	return g.waitFor(ctx, slot.Index, slot.Fence)
}

// Signal hands slot over to the GPU: it gets a fresh fence value and the queue
// is asked to signal it once the work submitted so far completes.
func (g *Gate) Signal(slot *Slot) error {
	next := g.current + 1
	if err := g.timeline.Signal(next); err != nil {
		return errors.Wrapf(err, "signal fence %d for frame resource %d", next, slot.Index)
	}
	g.current = next
	slot.Fence = next
	return nil
}

// Drain waits for the last fence ever issued.
func (g *Gate) Drain(ctx context.Context) error {
	_, err := g.waitFor(ctx, -1, g.current)
	return err
}

// Current returns the last fence value issued.
func (g *Gate) Current() uint64 {
	return g.current
}

func (g *Gate) waitFor(ctx context.Context, slot int, fence uint64) (time.Duration, error) {
	if fence == 0 || g.timeline.CompletedValue() >= fence {
		return 0, nil
	}

	start := time.Now()
	done := g.timeline.SetEventOnCompletion(fence)

	var expired <-chan time.Time
	if g.timeout > 0 {
		timer := time.NewTimer(g.timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-done:
		return time.Since(start), nil
	case <-expired:
		return time.Since(start), &core.SyncTimeoutError{
			Slot:      slot,
			Fence:     fence,
			Completed: g.timeline.CompletedValue(),
			Timeout:   g.timeout,
		}
	case <-ctx.Done():
		return time.Since(start), errors.Wrapf(ctx.Err(), "waiting for fence %d", fence)
	}
}
