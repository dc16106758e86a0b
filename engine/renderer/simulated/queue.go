package simulated

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/rand"

	"github.com/spaghettifunk/citadel/engine/core"
	"github.com/spaghettifunk/citadel/engine/renderer"
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

type Config struct {
	// Latency is how long each command list takes to execute.
	Latency time.Duration
	// Jitter adds a random [0, Jitter) to each execution.
	Jitter time.Duration
	// Depth is the capacity of the submission queue.
	Depth int
	Seed  uint64
	// OnExecute is called from the worker goroutine after a list executed,
	// with the constants its draws read.
	OnExecute func(list *renderer.CommandList, read Readback)
}

// Readback holds the constants a list read from its slot while executing.
// Objects and Materials are in draw order.
type Readback struct {
	Pass      metadata.PassConstants
	Objects   []metadata.ObjectConstants
	Materials []metadata.MaterialConstants
}

type op struct {
	lists  []*renderer.CommandList
	signal uint64
}

type waiter struct {
	value uint64
	done  chan struct{}
}

// Queue is a CommandQueue backed by a worker goroutine that plays the role of
// the GPU. Work is consumed in FIFO order; a signal only completes after every
// list submitted before it.
type Queue struct {
	config Config

	ops       chan op
	closeOnce sync.Once

	mu        sync.Mutex
	completed uint64
	waiters   []waiter
	resume    chan struct{}

	quit chan struct{}
	done chan struct{}

	executedLists atomic.Uint64
	executedDraws atomic.Uint64
	rng           *rand.Rand
}

func New(config Config) *Queue {
	if config.Depth <= 0 {
		config.Depth = 64
	}
	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	q := &Queue{
		config: config,
		ops:    make(chan op, config.Depth),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		rng:    rand.New(rand.NewSource(seed)),
	}
	go q.run()
	return q
}

func (q *Queue) ExecuteCommandLists(lists ...*renderer.CommandList) error {
	if err := renderer.ValidateClosed(lists...); err != nil {
		return err
	}
	snapshots := make([]*renderer.CommandList, len(lists))
	for i, l := range lists {
		snapshots[i] = l.Snapshot()
	}
	return q.enqueue(op{lists: snapshots})
}

func (q *Queue) Signal(value uint64) error {
	return q.enqueue(op{signal: value})
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

// Pause stops the worker before its next operation, emulating a hung GPU.
func (q *Queue) Pause() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.resume == nil {
		q.resume = make(chan struct{})
	}
}

func (q *Queue) Resume() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.resume != nil {
		close(q.resume)
		q.resume = nil
	}
}

// Executed returns the number of command lists and draws executed so far.
func (q *Queue) Executed() (lists, draws uint64) {
	return q.executedLists.Load(), q.executedDraws.Load()
}

// Close stops accepting work and waits for the worker to exit. Pending
// operations still queued are discarded.
func (q *Queue) Close() error {
	q.closeOnce.Do(func() { close(q.quit) })
	<-q.done
	return nil
}

func (q *Queue) enqueue(o op) error {
	select {
	case <-q.quit:
		return core.ErrQueueClosed
	default:
	}
	select {
	case q.ops <- o:
		return nil
	case <-q.quit:
		return core.ErrQueueClosed
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		select {
		case <-q.quit:
			return
		case o := <-q.ops:
			if !q.waitIfPaused() {
				return
			}
			if o.lists != nil {
				for _, l := range o.lists {
					q.execute(l)
				}
				continue
			}
			q.complete(o.signal)
		}
	}
}

func (q *Queue) waitIfPaused() bool {
	q.mu.Lock()
	resume := q.resume
	q.mu.Unlock()
	if resume == nil {
		return true
	}
	select {
	case <-resume:
		return true
	case <-q.quit:
		return false
	}
}

func (q *Queue) execute(list *renderer.CommandList) {
	d := q.config.Latency
	if q.config.Jitter > 0 {
		d += time.Duration(q.rng.Int63n(int64(q.config.Jitter)))
	}
	if d > 0 {
		select {
		case <-time.After(d):
		case <-q.quit:
			return
		}
	}

	read := readSlot(list)
	q.executedLists.Add(1)
	q.executedDraws.Add(uint64(len(list.Draws)))
	if q.config.OnExecute != nil {
		q.config.OnExecute(list, read)
	}
}

// readSlot reads the constants the draws reference, as the GPU would. These
// reads race with the CPU writing the slot unless the gate kept the slot out
// of reach, so the race detector reports a broken fence.
func readSlot(list *renderer.CommandList) Readback {
	var read Readback
	slot := list.Slot
	if slot == nil {
		return read
	}
	read.Pass = slot.PassCB.At(0)
	read.Objects = make([]metadata.ObjectConstants, len(list.Draws))
	read.Materials = make([]metadata.MaterialConstants, len(list.Draws))
	for i, dc := range list.Draws {
		read.Objects[i] = slot.ObjectCB.At(int(dc.ObjCBIndex))
		read.Materials[i] = slot.MaterialCB.At(int(dc.MatCBIndex))
	}
	return read
}

func (q *Queue) complete(value uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if value > q.completed {
		q.completed = value
	}
	pending := q.waiters[:0]
	for _, w := range q.waiters {
		if w.value <= q.completed {
			close(w.done)
			continue
		}
		pending = append(pending, w)
	}
	q.waiters = pending
}
