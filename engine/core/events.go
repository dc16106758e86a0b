package core

import "sync"

// System internal event codes. Application should use codes beyond 255.
type EventCode uint16

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT EventCode = 0x01

	// Keyboard key pressed. Data: *KeyEvent
	EVENT_CODE_KEY_PRESSED EventCode = 0x02

	// Keyboard key released. Data: *KeyEvent
	EVENT_CODE_KEY_RELEASED EventCode = 0x03

	// Mouse button pressed. Data: *MouseEvent
	EVENT_CODE_BUTTON_PRESSED EventCode = 0x04

	// Mouse button released. Data: *MouseEvent
	EVENT_CODE_BUTTON_RELEASED EventCode = 0x05

	// Mouse moved. Data: *MouseEvent with the position and the delta to the previous position.
	EVENT_CODE_MOUSE_MOVED EventCode = 0x06

	// Mouse wheel. Data: *MouseEvent
	EVENT_CODE_MOUSE_WHEEL EventCode = 0x07

	// Resized/resolution changed from the OS. Data: *SystemEvent
	EVENT_CODE_RESIZED EventCode = 0x08

	// The material library on disk changed. Data: *AssetEvent
	EVENT_CODE_MATERIALS_CHANGED EventCode = 0x09

	MAX_EVENT_CODE EventCode = 0xFF
)

type KeyEvent struct {
	KeyCode KeyCode
}

type MouseEvent struct {
	Button Button
	PosX   int32
	PosY   int32
	DeltaX int32
	DeltaY int32
	Scroll int8
}

type SystemEvent struct {
	WindowWidth  uint32
	WindowHeight uint32
}

type AssetEvent struct {
	Path string
}

type EventContext struct {
	Type EventCode
	Data interface{}
}

// Should return true if handled.
type FnOnEvent func(context EventContext) bool

type registeredEvent struct {
	id       uint64
	callback FnOnEvent
}

type eventSystemState struct {
	mu         sync.RWMutex
	nextID     uint64
	registered map[EventCode][]registeredEvent
}

var eventState *eventSystemState = nil
var eventStateMu sync.Mutex

func EventSystemInitialize() bool {
	eventStateMu.Lock()
	defer eventStateMu.Unlock()
	if eventState != nil {
		return false
	}
	eventState = &eventSystemState{
		registered: make(map[EventCode][]registeredEvent),
	}
	return true
}

func EventSystemShutdown() error {
	eventStateMu.Lock()
	defer eventStateMu.Unlock()
	eventState = nil
	return nil
}

func getEventState() *eventSystemState {
	eventStateMu.Lock()
	defer eventStateMu.Unlock()
	return eventState
}

/**
 * Register to listen for when events are sent with the provided code.
 * @returns an id to be used with EventUnregister, 0 if the event system is not running.
 */
func EventRegister(code EventCode, onEvent FnOnEvent) uint64 {
	s := getEventState()
	if s == nil || onEvent == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.registered[code] = append(s.registered[code], registeredEvent{id: s.nextID, callback: onEvent})
	return s.nextID
}

// EventUnregister removes the listener with the given id. Returns false if it was not registered.
func EventUnregister(code EventCode, id uint64) bool {
	s := getEventState()
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.registered[code]
	for i := range events {
		if events[i].id == id {
			s.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * true, the event is considered handled and is not passed on to any more listeners.
 * @returns true if handled, otherwise false.
 */
func EventFire(context EventContext) bool {
	s := getEventState()
	if s == nil {
		return false
	}
	s.mu.RLock()
	events := make([]registeredEvent, len(s.registered[context.Type]))
	copy(events, s.registered[context.Type])
	s.mu.RUnlock()

	for _, e := range events {
		if e.callback(context) {
			return true
		}
	}
	return false
}
