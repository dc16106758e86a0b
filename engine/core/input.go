package core

import "sync"

type Button uint16

const (
	BUTTON_LEFT Button = iota
	BUTTON_RIGHT
	BUTTON_MIDDLE
	BUTTON_MAX_BUTTONS
)

type KeyCode uint16

const (
	KEY_ESCAPE KeyCode = 0x1B
	KEY_SPACE  KeyCode = 0x20
	KEY_W      KeyCode = 0x57
	KEYS_MAX_KEYS
)

type MouseState struct {
	X       int32
	Y       int32
	Buttons [BUTTON_MAX_BUTTONS]bool
}

type KeyboardState struct {
	Keys [256]bool
}

// Input state structure that holds current and previous states for keyboard and mouse
type InputState struct {
	KeyboardCurrent  KeyboardState
	KeyboardPrevious KeyboardState
	MouseCurrent     MouseState
	MousePrevious    MouseState
}

var inputMu sync.Mutex
var inputState *InputState = nil

func InputInitialize() error {
	inputMu.Lock()
	inputState = &InputState{}
	inputMu.Unlock()
	LogInfo("Input subsystem initialized.")
	return nil
}

func InputShutdown() error {
	inputMu.Lock()
	inputState = nil
	inputMu.Unlock()
	return nil
}

// InputUpdate copies current states to previous states. Called once at the end of every frame.
func InputUpdate(deltaTime float64) error {
	inputMu.Lock()
	defer inputMu.Unlock()
	if inputState == nil {
		return nil
	}
	inputState.KeyboardPrevious = inputState.KeyboardCurrent
	inputState.MousePrevious = inputState.MouseCurrent
	return nil
}

func InputProcessKey(key KeyCode, pressed bool) error {
	inputMu.Lock()
	if inputState == nil || inputState.KeyboardCurrent.Keys[key] == pressed {
		inputMu.Unlock()
		return nil
	}
	inputState.KeyboardCurrent.Keys[key] = pressed
	inputMu.Unlock()

	code := EVENT_CODE_KEY_RELEASED
	if pressed {
		code = EVENT_CODE_KEY_PRESSED
	}
	EventFire(EventContext{
		Type: code,
		Data: &KeyEvent{KeyCode: key},
	})
	return nil
}

func InputProcessButton(button Button, pressed bool) error {
	inputMu.Lock()
	if inputState == nil || inputState.MouseCurrent.Buttons[button] == pressed {
		inputMu.Unlock()
		return nil
	}
	inputState.MouseCurrent.Buttons[button] = pressed
	x, y := inputState.MouseCurrent.X, inputState.MouseCurrent.Y
	inputMu.Unlock()

	code := EVENT_CODE_BUTTON_RELEASED
	if pressed {
		code = EVENT_CODE_BUTTON_PRESSED
	}
	EventFire(EventContext{
		Type: code,
		Data: &MouseEvent{Button: button, PosX: x, PosY: y},
	})
	return nil
}

// InputProcessMouseMove records the cursor position and fires a move event carrying
// the delta to the last reported position and the first held button.
func InputProcessMouseMove(x, y int32) error {
	inputMu.Lock()
	if inputState == nil || (inputState.MouseCurrent.X == x && inputState.MouseCurrent.Y == y) {
		inputMu.Unlock()
		return nil
	}
	dx := x - inputState.MouseCurrent.X
	dy := y - inputState.MouseCurrent.Y
	inputState.MouseCurrent.X = x
	inputState.MouseCurrent.Y = y
	held := BUTTON_MAX_BUTTONS
	for b := BUTTON_LEFT; b < BUTTON_MAX_BUTTONS; b++ {
		if inputState.MouseCurrent.Buttons[b] {
			held = b
			break
		}
	}
	inputMu.Unlock()

	EventFire(EventContext{
		Type: EVENT_CODE_MOUSE_MOVED,
		Data: &MouseEvent{
			Button: held,
			PosX:   x,
			PosY:   y,
			DeltaX: dx,
			DeltaY: dy,
		},
	})
	return nil
}

func InputProcessMouseWheel(zDelta int8) error {
	EventFire(EventContext{
		Type: EVENT_CODE_MOUSE_WHEEL,
		Data: &MouseEvent{Scroll: zDelta},
	})
	return nil
}
