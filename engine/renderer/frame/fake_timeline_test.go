package frame

import "sync"

type fakeTimeline struct {
	mu        sync.Mutex
	completed uint64
	signals   []uint64
	waiters   map[uint64][]chan struct{}
	signalErr error
}

func newFakeTimeline() *fakeTimeline {
	return &fakeTimeline{waiters: map[uint64][]chan struct{}{}}
}

func (f *fakeTimeline) Signal(value uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signalErr != nil {
		return f.signalErr
	}
	f.signals = append(f.signals, value)
	return nil
}

func (f *fakeTimeline) CompletedValue() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

func (f *fakeTimeline) SetEventOnCompletion(value uint64) <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	if f.completed >= value {
		close(ch)
		return ch
	}
	f.waiters[value] = append(f.waiters[value], ch)
	return ch
}

func (f *fakeTimeline) SetCompleted(value uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = value
	for v, chs := range f.waiters {
		if v > value {
			continue
		}
		for _, ch := range chs {
			close(ch)
		}
		delete(f.waiters, v)
	}
}
