package vulkan

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/citadel/engine/core"
	"github.com/spaghettifunk/citadel/engine/renderer"
)

const (
	defaultPollInterval = 500 * time.Microsecond
	closeFenceTimeout   = uint64(2 * time.Second)
)

type pendingSignal struct {
	value   uint64
	fence   *VulkanFence
	buffers []*VulkanCommandBuffer
}

type waiter struct {
	value uint64
	done  chan struct{}
}

// Queue implements renderer.CommandQueue on the device graphics queue. Every
// command list becomes a primary command buffer; every Signal submits an empty
// batch carrying a VkFence. The completed value is the highest signal whose
// fence, and every fence before it, has been reached.
type Queue struct {
	context *VulkanContext

	// recording state, only touched by the submitting goroutine
	inFlight []*VulkanCommandBuffer

	mu        sync.Mutex
	pending   []pendingSignal
	free      []*VulkanCommandBuffer
	fences    []*VulkanFence
	completed uint64
	waiters   []waiter
	closed    bool
	lastErr   error

	quit chan struct{}
	done chan struct{}
}

// NewQueue creates a headless Vulkan device and a queue on it.
func NewQueue(appName string, debug bool) (*Queue, error) {
	context, err := NewContext(appName, debug)
	if err != nil {
		return nil, err
	}
	q := &Queue{
		context: context,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go q.poll(defaultPollInterval)
	return q, nil
}

func (q *Queue) DeviceName() string {
	return q.context.Device.Name
}

func (q *Queue) ExecuteCommandLists(lists ...*renderer.CommandList) error {
	if err := renderer.ValidateClosed(lists...); err != nil {
		return err
	}
	if q.isClosed() {
		return core.ErrQueueClosed
	}

	handles := make([]vk.CommandBuffer, 0, len(lists))
	for range lists {
		cb, err := q.acquire()
		if err != nil {
			return err
		}
		if err := cb.Begin(true); err != nil {
			return err
		}
		// Draws need a render pass and pipeline; the headless queue only
		// carries the submission so the fence ordering matches a real frame.
		if err := cb.End(); err != nil {
			return err
		}
		handles = append(handles, cb.Handle)
		q.inFlight = append(q.inFlight, cb)
	}

	submitInfo := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: uint32(len(handles)),
		PCommandBuffers:    handles,
	}}
	err := q.context.Locks.SafeQueueCall(uint32(q.context.Device.GraphicsQueueIndex), func() error {
		if res := vk.QueueSubmit(q.context.Device.GraphicsQueue, 1, submitInfo, vk.NullFence); res != vk.Success {
			return errors.Newf("failed to submit command lists: %s", VulkanResultString(res))
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, cb := range q.inFlight[len(q.inFlight)-len(handles):] {
		cb.UpdateSubmitted()
	}
	return nil
}

func (q *Queue) Signal(value uint64) error {
	if q.isClosed() {
		return core.ErrQueueClosed
	}
	fence, err := q.acquireFence()
	if err != nil {
		return err
	}
	submitInfo := []vk.SubmitInfo{{SType: vk.StructureTypeSubmitInfo}}
	err = q.context.Locks.SafeQueueCall(uint32(q.context.Device.GraphicsQueueIndex), func() error {
		if res := vk.QueueSubmit(q.context.Device.GraphicsQueue, 1, submitInfo, fence.Handle); res != vk.Success {
			return errors.Newf("failed to submit fence %d: %s", value, VulkanResultString(res))
		}
		return nil
	})
	if err != nil {
		q.mu.Lock()
		q.fences = append(q.fences, fence)
		q.mu.Unlock()
		return err
	}

	q.mu.Lock()
	q.pending = append(q.pending, pendingSignal{value: value, fence: fence, buffers: q.inFlight})
	q.mu.Unlock()
	q.inFlight = nil
	return nil
}

func (q *Queue) CompletedValue() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.completed
}

func (q *Queue) SetEventOnCompletion(value uint64) <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	ch := make(chan struct{})
	if q.completed >= value {
		close(ch)
		return ch
	}
	q.waiters = append(q.waiters, waiter{value: value, done: ch})
	return ch
}

// Err returns the last device error seen while polling fences.
func (q *Queue) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastErr
}

func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	close(q.quit)
	<-q.done

	device := q.context.Device
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.drainPending() {
		_ = q.context.Locks.SafeQueueCall(uint32(device.GraphicsQueueIndex), func() error {
			vk.QueueWaitIdle(device.GraphicsQueue)
			return nil
		})
	}
	for _, p := range q.pending {
		p.fence.Destroy(q.context)
		q.free = append(q.free, p.buffers...)
	}
	q.pending = nil
	for _, f := range q.fences {
		f.Destroy(q.context)
	}
	q.fences = nil
	q.free = append(q.free, q.inFlight...)
	q.inFlight = nil
	for _, cb := range q.free {
		cb.Free(q.context, device.GraphicsCommandPool)
	}
	q.free = nil

	q.context.Destroy()
	core.LogInfo("Vulkan queue closed.")
	return nil
}

func (q *Queue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// drainPending waits on the last submitted fence, which covers every signal
// before it. It reports false when the device did not get there in time.
// Callers hold q.mu.
func (q *Queue) drainPending() bool {
	if len(q.pending) == 0 {
		return true
	}
	last := q.pending[len(q.pending)-1]
	reached, err := last.fence.Wait(q.context, closeFenceTimeout)
	if err != nil {
		core.LogError("fence %d: %s", last.value, err)
		return false
	}
	if reached && last.value > q.completed {
		q.completed = last.value
	}
	return reached
}

// acquireFence reuses a retired fence when one is available.
func (q *Queue) acquireFence() (*VulkanFence, error) {
	q.mu.Lock()
	if n := len(q.fences); n > 0 {
		f := q.fences[n-1]
		q.fences = q.fences[:n-1]
		q.mu.Unlock()
		if err := f.Reset(q.context); err != nil {
			f.Destroy(q.context)
			return nil, err
		}
		return f, nil
	}
	q.mu.Unlock()
	return NewFence(q.context, false)
}

func (q *Queue) acquire() (*VulkanCommandBuffer, error) {
	q.mu.Lock()
	if n := len(q.free); n > 0 {
		cb := q.free[n-1]
		q.free = q.free[:n-1]
		q.mu.Unlock()
		cb.Reset()
		return cb, nil
	}
	q.mu.Unlock()
	return NewVulkanCommandBuffer(q.context, q.context.Device.GraphicsCommandPool)
}

func (q *Queue) poll(interval time.Duration) {
	defer close(q.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-q.quit:
			return
		case <-ticker.C:
			q.retire()
		}
	}
}

// retire completes signals in submission order, stopping at the first fence
// that has not been reached.
func (q *Queue) retire() {
	q.mu.Lock()
	defer q.mu.Unlock()

	retired := 0
	for _, p := range q.pending {
		reached, err := p.fence.Poll(q.context)
		if err != nil {
			if q.lastErr == nil {
				core.LogError("fence %d: %s", p.value, err)
			}
			q.lastErr = err
			break
		}
		if !reached {
			break
		}
		q.fences = append(q.fences, p.fence)
		q.free = append(q.free, p.buffers...)
		if p.value > q.completed {
			q.completed = p.value
		}
		retired++
	}
	if retired == 0 {
		return
	}
	q.pending = q.pending[retired:]

	remaining := q.waiters[:0]
	for _, w := range q.waiters {
		if w.value <= q.completed {
			close(w.done)
			continue
		}
		remaining = append(remaining, w)
	}
	q.waiters = remaining
}
