package core

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
)

var (
	ErrSyncTimeout   = errors.New("timed out waiting for frame resource fence")
	ErrQueueClosed   = errors.New("command queue closed")
	ErrInvalidHandle = errors.New("invalid handle")
	ErrAssetNotFound = errors.New("asset not found")
)

// SyncTimeoutError is returned when a frame resource is still owned by the GPU
// after the configured fence timeout expired.
type SyncTimeoutError struct {
	Slot      int
	Fence     uint64
	Completed uint64
	Timeout   time.Duration
}

func (e *SyncTimeoutError) Error() string {
	return fmt.Sprintf("frame resource %d: fence %d not reached after %s (completed=%d)", e.Slot, e.Fence, e.Timeout, e.Completed)
}

func (e *SyncTimeoutError) Is(target error) bool {
	return target == ErrSyncTimeout
}
