package frame

import (
	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/citadel/engine/core"
)

// UploadBuffer is a CPU visible array of constants that the GPU reads while a
// frame is in flight. Each slot owns its own buffers.
type UploadBuffer[T any] struct {
	elements []T
	writes   []uint64
}

func NewUploadBuffer[T any](count int) *UploadBuffer[T] {
	return &UploadBuffer[T]{
		elements: make([]T, count),
		writes:   make([]uint64, count),
	}
}

// CopyData overwrites the element at index.
func (b *UploadBuffer[T]) CopyData(index int, data T) error {
	if index < 0 || index >= len(b.elements) {
		return errors.Wrapf(core.ErrInvalidHandle, "upload buffer index %d out of range [0,%d)", index, len(b.elements))
	}
	b.elements[index] = data
	b.writes[index]++
	return nil
}

// At returns the element at index. Out of range indices yield the zero value.
func (b *UploadBuffer[T]) At(index int) T {
	var zero T
	if index < 0 || index >= len(b.elements) {
		return zero
	}
	return b.elements[index]
}

func (b *UploadBuffer[T]) Len() int {
	return len(b.elements)
}

// Writes returns how many times the element at index has been written.
func (b *UploadBuffer[T]) Writes(index int) uint64 {
	if index < 0 || index >= len(b.writes) {
		return 0
	}
	return b.writes[index]
}
