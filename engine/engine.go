package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/spaghettifunk/citadel/engine/assets"
	"github.com/spaghettifunk/citadel/engine/core"
	"github.com/spaghettifunk/citadel/engine/platform"
	"github.com/spaghettifunk/citadel/engine/renderer"
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
	"github.com/spaghettifunk/citadel/engine/renderer/simulated"
	"github.com/spaghettifunk/citadel/engine/renderer/vulkan"
	"github.com/spaghettifunk/citadel/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released every resource
	EngineStageShutdown
)

// The longest Shutdown waits for in-flight frames when no fence timeout is configured.
const defaultDrainTimeout = 5 * time.Second

type Engine struct {
	id            uuid.UUID
	currentStage  Stage
	gameInstance  *Game
	config        *ApplicationConfig
	isRunning     atomic.Bool
	isSuspended   bool
	platform      *platform.Platform
	assetManager  *assets.AssetManager
	systemManager *systems.SystemManager
	renderer      *renderer.Renderer
	width         uint32
	height        uint32
	resizePending bool
	clock         *core.Clock
	lastTime      float64
	frameCount    uint64
	eventIDs      map[core.EventCode]uint64
	stopCh        chan struct{}
	stopOnce      sync.Once
}

func New(g *Game) (*Engine, error) {
	if g == nil {
		return nil, errors.New("engine requires a game instance")
	}
	if g.ApplicationConfig == nil {
		g.ApplicationConfig = DefaultApplicationConfig()
	}
	config := g.ApplicationConfig
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid application config")
	}
	core.SetLogLevel(config.LogLevel())

	queue, err := newCommandQueue(config)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s command queue", config.Renderer.Backend)
	}
	r, err := renderer.New(queue, renderer.Config{
		FrameResources: config.Renderer.FrameResources,
		ObjectCount:    int(config.Renderer.MaxObjectCount),
		MaterialCount:  int(config.Renderer.MaxMaterialCount),
		FenceTimeout:   config.FenceTimeout(),
	})
	if err != nil {
		queue.Close()
		return nil, errors.Wrap(err, "create renderer")
	}

	var p *platform.Platform
	if !config.Application.Headless {
		p = platform.New()
	}

	e := &Engine{
		id:           uuid.New(),
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       config,
		platform:     p,
		assetManager: assets.NewAssetManager(),
		renderer:     r,
		width:        config.Application.StartWidth,
		height:       config.Application.StartHeight,
		clock:        core.NewClock(),
		eventIDs:     make(map[core.EventCode]uint64),
		stopCh:       make(chan struct{}),
	}
	core.LogInfo("Engine %s created with the %s backend and %d frame resources.", e.id, config.Renderer.Backend, r.FrameResources())
	return e, nil
}

func newCommandQueue(config *ApplicationConfig) (renderer.CommandQueue, error) {
	switch renderer.BackendType(config.Renderer.Backend) {
	case renderer.BackendVulkan:
		q, err := vulkan.NewQueue(config.Application.Name, config.Renderer.Debug)
		if err != nil {
			return nil, err
		}
		core.LogInfo("Vulkan device: %s", q.DeviceName())
		return q, nil
	case renderer.BackendSimulated:
		return simulated.New(simulated.Config{
			Latency: time.Duration(config.Renderer.GPULatencyMS) * time.Millisecond,
			Jitter:  time.Duration(config.Renderer.GPUJitterMS) * time.Millisecond,
		}), nil
	}
	return nil, errors.Newf("unknown backend %q", config.Renderer.Backend)
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	// initialize input
	if err := core.InputInitialize(); err != nil {
		return err
	}

	// initialize events
	if !core.EventSystemInitialize() {
		return errors.New("failed to initialize the event system")
	}
	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	// register some events
	e.register(core.EVENT_CODE_APPLICATION_QUIT, e.onEvent)
	e.register(core.EVENT_CODE_KEY_PRESSED, e.onKey)
	e.register(core.EVENT_CODE_RESIZED, e.onResized)

	config := e.config
	if e.platform != nil {
		if err := e.platform.Startup(config.Application.Name,
			config.Application.StartPosX,
			config.Application.StartPosY,
			config.Application.StartWidth,
			config.Application.StartHeight); err != nil {
			return err
		}
		if w, h := e.platform.FramebufferSize(); w > 0 && h > 0 {
			e.width, e.height = w, h
		}
	}

	// initialize subsystems
	if err := e.assetManager.Initialize(config.Assets.Dir, config.Assets.HotReload); err != nil {
		return err
	}

	sm, err := systems.NewSystemManager(systems.SystemManagerConfig{
		FrameResources:   e.renderer.FrameResources(),
		MaxObjectCount:   config.Renderer.MaxObjectCount,
		MaxMaterialCount: config.Renderer.MaxMaterialCount,
		MaxTextureCount:  config.Renderer.MaxTextureCount,
		MaxGeometryCount: config.Renderer.MaxGeometryCount,
		JobWorkers:       config.Renderer.JobWorkers,
		JobQueueSize:     len(config.Assets.Models) + 1,
	}, e.assetManager)
	if err != nil {
		return err
	}
	e.systemManager = sm
	e.gameInstance.SystemManager = sm

	// models load on the job system while textures and materials load here
	for _, model := range config.Assets.Models {
		if _, err := sm.MeshLoader().Load(model+"Geo", model, model); err != nil {
			return err
		}
	}
	for _, name := range config.Assets.Textures {
		sm.Textures().Acquire(name)
	}
	if config.Assets.Materials != "" {
		n, err := sm.Materials().LoadLibrary(config.Assets.Materials)
		if err != nil {
			return errors.Wrapf(err, "load material library %s", config.Assets.Materials)
		}
		core.LogInfo("Loaded material library %s (%d materials, %d updated).", config.Assets.Materials, len(sm.Materials().Materials()), n)
	}
	sm.MeshLoader().Wait()

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return err
		}
	}

	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}
	core.LogInfo("Scene ready: %d render items, %d materials, %d meshes.",
		sm.Scene().Count(), len(sm.Materials().Materials()), sm.Geometry().Count())

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) register(code core.EventCode, fn core.FnOnEvent) {
	e.eventIDs[code] = core.EventRegister(code, fn)
}

// Run drives frames until the game quits, ctx is cancelled, MaxFrames is
// reached or a frame fails. A frame resource that stays busy past the fence
// timeout stops the loop with a SyncTimeoutError.
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return errors.New("engine must be initialized before running")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-e.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()
	lastReport := e.lastTime

	for e.isRunning.Load() {
		if ctx.Err() != nil {
			break
		}
		if e.platform != nil && !e.platform.PumpMessages() {
			break
		}

		if e.isSuspended {
			if e.platform != nil {
				e.platform.WaitMessages(0.1)
			}
			continue
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStartTime := time.Now()

		if e.resizePending {
			e.resizePending = false
			if err := e.resize(ctx); err != nil {
				return e.stopWith(ctx, err)
			}
		}

		// hot reloaded material libraries are applied between frames
		e.assetManager.Update()

		if err := e.frame(ctx, delta, currentTime); err != nil {
			return e.stopWith(ctx, err)
		}

		core.MetricsUpdate(time.Since(frameStartTime).Seconds())
		if currentTime-lastReport >= 1 {
			lastReport = currentTime
			fps, ms := core.MetricsFrame()
			stalls, stallTime, longest := core.MetricsStalls()
			core.LogDebug("Frame %d (fence %d completed): %.0f fps, %.3f ms avg, %d stalls (%s total, %s longest).",
				e.frameCount, e.renderer.CompletedFence(), fps, ms, stalls, stallTime, longest)
		}

		// NOTE: Input update/state copying should always be handled
		// after any input should be recorded; I.E. before this line.
		core.InputUpdate(delta)

		e.lastTime = currentTime
		e.frameCount++
		if e.config.Application.MaxFrames > 0 && e.frameCount >= e.config.Application.MaxFrames {
			core.LogInfo("Reached %d frames, stopping.", e.frameCount)
			break
		}
	}
	e.isRunning.Store(false)
	return nil
}

// frame runs one frame: acquire a slot, update the game, copy dirty
// constants into the slot, record the draws and submit.
func (e *Engine) frame(ctx context.Context, delta, totalTime float64) error {
	if _, err := e.renderer.BeginFrame(ctx); err != nil {
		return err
	}

	if e.gameInstance.FnUpdate != nil {
		if err := e.gameInstance.FnUpdate(delta); err != nil {
			return errors.Wrap(err, "game update")
		}
	}

	pass := metadata.PassConstants{
		RenderTargetSize:    mgl32.Vec2{float32(e.width), float32(e.height)},
		InvRenderTargetSize: mgl32.Vec2{1 / float32(e.width), 1 / float32(e.height)},
		TotalTime:           float32(totalTime),
		DeltaTime:           float32(delta),
	}
	if e.gameInstance.FnRender != nil {
		if err := e.gameInstance.FnRender(&pass, delta); err != nil {
			return errors.Wrap(err, "game render")
		}
	}

	scene := e.systemManager.Scene()
	if err := e.renderer.UpdateConstants(scene, pass); err != nil {
		return err
	}
	if err := e.renderer.RecordDraws(scene); err != nil {
		return err
	}
	_, err := e.renderer.EndFrame()
	return err
}

func (e *Engine) resize(ctx context.Context) error {
	if err := e.renderer.OnResize(ctx, e.width, e.height); err != nil {
		return err
	}
	if e.gameInstance.FnOnResize != nil {
		return e.gameInstance.FnOnResize(e.width, e.height)
	}
	return nil
}

// stopWith ends the run loop. Cancellation is a clean stop; any other error
// is returned to the caller.
func (e *Engine) stopWith(ctx context.Context, err error) error {
	e.isRunning.Store(false)
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return nil
	}
	var timeout *core.SyncTimeoutError
	if errors.As(err, &timeout) {
		core.LogError("GPU did not release frame resource %d within %s (fence %d, completed %d), stopping.",
			timeout.Slot, timeout.Timeout, timeout.Fence, timeout.Completed)
	} else {
		core.LogError("Frame %d failed, stopping: %s", e.frameCount, err.Error())
	}
	return err
}

// Stop asks a running engine to leave its loop. Safe to call from any goroutine.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })
}

// Shutdown drains every in-flight frame before releasing the systems, the
// asset manager and the window.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning.Store(false)

	drain := e.config.FenceTimeout() * time.Duration(e.renderer.FrameResources())
	if drain <= 0 {
		drain = defaultDrainTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()

	var errs error
	if err := e.renderer.Shutdown(ctx); err != nil {
		errs = errors.CombineErrors(errs, err)
	}
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			errs = errors.CombineErrors(errs, err)
		}
	}
	if e.systemManager != nil {
		if err := e.systemManager.Shutdown(); err != nil {
			errs = errors.CombineErrors(errs, err)
		}
	}
	if err := e.assetManager.Shutdown(); err != nil {
		errs = errors.CombineErrors(errs, err)
	}
	for code, id := range e.eventIDs {
		core.EventUnregister(code, id)
	}
	if err := core.EventSystemShutdown(); err != nil {
		errs = errors.CombineErrors(errs, err)
	}
	if err := core.InputShutdown(); err != nil {
		errs = errors.CombineErrors(errs, err)
	}
	if e.platform != nil {
		if err := e.platform.Shutdown(); err != nil {
			errs = errors.CombineErrors(errs, err)
		}
	}
	e.currentStage = EngineStageShutdown
	core.LogInfo("Engine %s shut down after %d frames.", e.id, e.frameCount)
	return errs
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Frames() uint64 {
	return e.frameCount
}

// GetFramebufferSize returns the width and height (in this order)
// of the application Framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) Renderer() *renderer.Renderer {
	return e.renderer
}

func (e *Engine) onEvent(context core.EventContext) bool {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning.Store(false)
		return true
	}
	return false
}

func (e *Engine) onKey(context core.EventContext) bool {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}
	if ke.KeyCode == core.KEY_ESCAPE {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		core.EventFire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
		return true
	}
	return false
}

func (e *Engine) onResized(context core.EventContext) bool {
	se, ok := context.Data.(*core.SystemEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}

	width := se.WindowWidth
	height := se.WindowHeight

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return true
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if width != e.width || height != e.height {
		core.LogDebug("Window resize: %d, %d", width, height)
		e.width = width
		e.height = height
		e.resizePending = true
	}
	return true
}
