package frame

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/citadel/engine/core"
)

func TestGateDoesNotWaitOnFreshSlot(t *testing.T) {
	g := NewGate(newFakeTimeline(), time.Second)
	stall, err := g.Wait(context.Background(), &Slot{})
	require.NoError(t, err)
	assert.Zero(t, stall)
}

func TestGateBlocksUntilFenceReached(t *testing.T) {
	tl := newFakeTimeline()
	tl.SetCompleted(3)
	g := NewGate(tl, 5*time.Second)
	slot := &Slot{Index: 1, Fence: 5}

	released := make(chan error, 1)
	go func() {
		_, err := g.Wait(context.Background(), slot)
		released <- err
	}()

	select {
	case <-released:
		t.Fatal("gate released before the fence was reached")
	case <-time.After(50 * time.Millisecond):
	}

	tl.SetCompleted(4)
	select {
	case <-released:
		t.Fatal("gate released at completed=4 for fence 5")
	case <-time.After(20 * time.Millisecond):
	}

	tl.SetCompleted(5)
	select {
	case err := <-released:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("gate did not release at completed=5")
	}
}

func TestGateTimesOut(t *testing.T) {
	tl := newFakeTimeline()
	tl.SetCompleted(3)
	g := NewGate(tl, 20*time.Millisecond)

	stall, err := g.Wait(context.Background(), &Slot{Index: 2, Fence: 5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrSyncTimeout))
	assert.GreaterOrEqual(t, stall, 20*time.Millisecond)

	var timeout *core.SyncTimeoutError
	require.True(t, errors.As(err, &timeout))
	assert.Equal(t, 2, timeout.Slot)
	assert.Equal(t, uint64(5), timeout.Fence)
	assert.Equal(t, uint64(3), timeout.Completed)
}

func TestGateHonoursContext(t *testing.T) {
	g := NewGate(newFakeTimeline(), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Wait(ctx, &Slot{Fence: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, core.ErrSyncTimeout))
}

func TestGateSignalAssignsIncreasingFences(t *testing.T) {
	tl := newFakeTimeline()
	g := NewGate(tl, time.Second)
	a, b := &Slot{Index: 0}, &Slot{Index: 1}

	require.NoError(t, g.Signal(a))
	require.NoError(t, g.Signal(b))
	assert.Equal(t, uint64(1), a.Fence)
	assert.Equal(t, uint64(2), b.Fence)
	assert.Equal(t, []uint64{1, 2}, tl.signals)
	assert.Equal(t, uint64(2), g.Current())
}

func TestGateSignalFailureKeepsFence(t *testing.T) {
	tl := newFakeTimeline()
	tl.signalErr = core.ErrQueueClosed
	g := NewGate(tl, time.Second)
	s := &Slot{Fence: 0}

	err := g.Signal(s)
	assert.ErrorIs(t, err, core.ErrQueueClosed)
	assert.Zero(t, s.Fence)
	assert.Zero(t, g.Current())
}

func TestGateDrainWaitsForLastFence(t *testing.T) {
	tl := newFakeTimeline()
	g := NewGate(tl, time.Second)
	for i := 0; i < 3; i++ {
		require.NoError(t, g.Signal(&Slot{Index: i}))
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		tl.SetCompleted(2)
		time.Sleep(10 * time.Millisecond)
		tl.SetCompleted(3)
	}()
	require.NoError(t, g.Drain(context.Background()))
	assert.Equal(t, uint64(3), tl.CompletedValue())
}
