package engine

import (
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
	"github.com/spaghettifunk/citadel/engine/systems"
)

type Game struct {
	ApplicationConfig *ApplicationConfig
	// Set by the engine before FnInitialize is called.
	SystemManager *systems.SystemManager
	State         interface{}
	FnInitialize  Initialize
	FnUpdate      Update
	FnRender      Render
	FnOnResize    OnResize
	FnShutdown    Shutdown
}

type Initialize func() error

// Update advances the game by deltaTime seconds. Called after the frame
// resource of the frame has been acquired.
type Update func(deltaTime float64) error

// Render fills the camera and lighting part of the pass constants. Timing and
// render target size are already set.
type Render func(pass *metadata.PassConstants, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
