package containers

import "errors"

var ErrEmptyRing = errors.New("ring must hold at least one element")

// Ring is a fixed set of elements visited cyclically through a cursor.
// Unlike a queue nothing is ever removed: Advance hands out the next
// element and wraps around after the last one.
type Ring[T any] struct {
	data   []T
	size   int
	cursor int
	primed bool
}

// NewRing creates a ring holding the given elements in order.
func NewRing[T any](elements ...T) (*Ring[T], error) {
	if len(elements) == 0 {
		return nil, ErrEmptyRing
	}
	data := make([]T, len(elements))
	copy(data, elements)
	return &Ring[T]{
		data: data,
		size: len(data),
	}, nil
}

// Advance moves the cursor to the next element and returns it.
// The first call returns the element at index 0.
func (r *Ring[T]) Advance() T {
	if !r.primed {
		r.primed = true
		r.cursor = 0
	} else {
		r.cursor = (r.cursor + 1) % r.size
	}
	return r.data[r.cursor]
}

// Current returns the element under the cursor without moving it.
func (r *Ring[T]) Current() T {
	return r.data[r.cursor]
}

// Index returns the cursor position.
func (r *Ring[T]) Index() int {
	return r.cursor
}

// At returns the element at position i modulo the ring size.
func (r *Ring[T]) At(i int) T {
	i %= r.size
	if i < 0 {
		i += r.size
	}
	return r.data[i]
}

// Len returns the number of elements in the ring.
func (r *Ring[T]) Len() int {
	return r.size
}

// Each calls fn for every element in index order.
func (r *Ring[T]) Each(fn func(i int, v T)) {
	for i, v := range r.data {
		fn(i, v)
	}
}
