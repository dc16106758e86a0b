package renderer

import (
	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/citadel/engine/renderer/frame"
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

// CommandQueue executes closed command lists in submission order and exposes a
// monotonically increasing completed fence value.
type CommandQueue interface {
	ExecuteCommandLists(lists ...*CommandList) error
	// Signal asks the queue to set its completed value to value once all work
	// submitted before it has finished.
	Signal(value uint64) error
	CompletedValue() uint64
	// SetEventOnCompletion returns a channel closed once the completed value
	// reaches value.
	SetEventOnCompletion(value uint64) <-chan struct{}
	Close() error
}

type BackendType string

const (
	BackendSimulated BackendType = "simulated"
	BackendVulkan    BackendType = "vulkan"
)

var ErrCommandListOpen = errors.New("command list is still recording")

// DrawCall is one recorded draw of a render item.
type DrawCall struct {
	Layer              metadata.RenderLayer
	Mesh               metadata.MeshHandle
	Topology           metadata.PrimitiveTopology
	ObjCBIndex         uint32
	MatCBIndex         uint32
	IndexCount         uint32
	StartIndexLocation uint32
	BaseVertexLocation int32
}

// CommandList records the draws of a frame against the buffers of one slot.
type CommandList struct {
	Frame  uint64
	Slot   *frame.Slot
	Draws  []DrawCall
	closed bool
}

func NewCommandList() *CommandList {
	return &CommandList{closed: true}
}

// Reset reopens the list for recording a new frame into slot.
func (cl *CommandList) Reset(frameNumber uint64, slot *frame.Slot) {
	cl.Frame = frameNumber
	cl.Slot = slot
	cl.Draws = cl.Draws[:0]
	cl.closed = false
}

func (cl *CommandList) Draw(dc DrawCall) error {
	if cl.closed {
		return errors.New("draw recorded on a closed command list")
	}
	cl.Draws = append(cl.Draws, dc)
	return nil
}

func (cl *CommandList) Close() {
	cl.closed = true
}

func (cl *CommandList) Closed() bool {
	return cl.closed
}

// Snapshot returns a closed copy of the list that stays valid after the
// original is reset for the next frame.
func (cl *CommandList) Snapshot() *CommandList {
	draws := make([]DrawCall, len(cl.Draws))
	copy(draws, cl.Draws)
	return &CommandList{Frame: cl.Frame, Slot: cl.Slot, Draws: draws, closed: true}
}

// ValidateClosed returns ErrCommandListOpen if any list is still recording.
func ValidateClosed(lists ...*CommandList) error {
	for i, l := range lists {
		if l == nil || !l.Closed() {
			return errors.Wrapf(ErrCommandListOpen, "command list %d", i)
		}
	}
	return nil
}
