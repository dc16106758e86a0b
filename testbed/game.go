package testbed

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/citadel/engine"
	"github.com/spaghettifunk/citadel/engine/core"
	"github.com/spaghettifunk/citadel/engine/renderer/components"
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

// Water texture scroll speed in texture units per second.
const (
	waterScrollU float32 = 0.1
	waterScrollV float32 = 0.02
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	WorldCamera *components.Camera

	width  uint32
	height uint32

	water    metadata.MaterialHandle
	castle   *castle
	eventIDs map[core.EventCode]uint64
}

func NewTestGame(config *engine.ApplicationConfig) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State: &gameState{
				WorldCamera: components.NewCamera(),
				water:       metadata.InvalidMaterial,
				eventIDs:    make(map[core.EventCode]uint64),
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize() error {
	core.LogInfo("building the castle scene...")
	state := g.state()

	c, err := buildCastle(g.SystemManager, sceneSeed)
	if err != nil {
		return err
	}
	state.castle = c

	if h, err := g.SystemManager.Materials().Lookup("water"); err == nil {
		state.water = h
	} else {
		core.LogWarn("No water material, the moat will not scroll.")
	}

	state.eventIDs[core.EVENT_CODE_MOUSE_MOVED] = core.EventRegister(core.EVENT_CODE_MOUSE_MOVED, g.onMouseMoved)
	state.eventIDs[core.EVENT_CODE_MOUSE_WHEEL] = core.EventRegister(core.EVENT_CODE_MOUSE_WHEEL, g.onMouseWheel)
	state.eventIDs[core.EVENT_CODE_KEY_PRESSED] = core.EventRegister(core.EVENT_CODE_KEY_PRESSED, g.onKey)
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.state()
	if state.water.Valid() {
		return g.SystemManager.Materials().AnimateScroll(state.water, waterScrollU, waterScrollV, float32(deltaTime))
	}
	return nil
}

func (g *TestGame) Render(pass *metadata.PassConstants, deltaTime float64) error {
	camera := g.state().WorldCamera

	view := camera.GetView()
	proj := camera.GetProjection()
	viewProj := proj.Mul4(view)

	// the shaders read row-major matrices
	pass.View = view.Transpose()
	pass.InvView = view.Inv().Transpose()
	pass.Proj = proj.Transpose()
	pass.InvProj = proj.Inv().Transpose()
	pass.ViewProj = viewProj.Transpose()
	pass.InvViewProj = viewProj.Inv().Transpose()
	pass.EyePosW = camera.GetPosition()
	pass.NearZ = camera.NearZ
	pass.FarZ = camera.FarZ

	pass.AmbientLight = mgl32.Vec4{0.45, 0.45, 0.05, 1.0}
	pass.Lights[0].Direction = mgl32.Vec3{0.57735, -0.57735, 0.57735}
	pass.Lights[0].Strength = mgl32.Vec3{0.6, 0.6, 0.6}
	pass.Lights[1].Direction = mgl32.Vec3{-0.57735, -0.57735, 0.57735}
	pass.Lights[1].Strength = mgl32.Vec3{0.3, 0.3, 0.3}
	pass.Lights[2].Direction = mgl32.Vec3{0.0, -0.707, -0.707}
	pass.Lights[2].Strength = mgl32.Vec3{0.15, 0.15, 0.15}
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.state()
	state.width = width
	state.height = height
	state.WorldCamera.SetLens(width, height)
	return nil
}

func (g *TestGame) Shutdown() error {
	state := g.state()
	for code, id := range state.eventIDs {
		core.EventUnregister(code, id)
	}
	state.eventIDs = make(map[core.EventCode]uint64)
	return nil
}

// Left drag orbits the camera, right drag zooms.
func (g *TestGame) onMouseMoved(context core.EventContext) bool {
	me, ok := context.Data.(*core.MouseEvent)
	if !ok {
		return false
	}
	camera := g.state().WorldCamera
	switch me.Button {
	case core.BUTTON_LEFT:
		camera.Rotate(float32(me.DeltaX), float32(me.DeltaY))
	case core.BUTTON_RIGHT:
		camera.Zoom(float32(me.DeltaX), float32(me.DeltaY))
	}
	return false
}

func (g *TestGame) onMouseWheel(context core.EventContext) bool {
	me, ok := context.Data.(*core.MouseEvent)
	if !ok {
		return false
	}
	// one notch zooms as far as 20 pixels of right drag
	g.state().WorldCamera.Zoom(0, float32(me.Scroll)*20)
	return false
}

func (g *TestGame) onKey(context core.EventContext) bool {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		return false
	}
	if ke.KeyCode == core.KEY_SPACE {
		core.LogInfo("Camera reset.")
		g.state().WorldCamera.Reset()
		g.state().WorldCamera.SetLens(g.state().width, g.state().height)
		return true
	}
	return false
}
