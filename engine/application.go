package engine

import (
	"bytes"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/citadel/engine/core"
	"github.com/spaghettifunk/citadel/engine/renderer"
	"github.com/spaghettifunk/citadel/engine/renderer/frame"
)

type ApplicationSection struct {
	// The application name used in windowing, if applicable.
	Name string `toml:"name"`
	// Window starting position x axis, if applicable.
	StartPosX uint32 `toml:"start_pos_x"`
	// Window starting position y axis, if applicable.
	StartPosY uint32 `toml:"start_pos_y"`
	// Window starting width, also the render target width when headless.
	StartWidth uint32 `toml:"start_width"`
	// Window starting height, also the render target height when headless.
	StartHeight uint32 `toml:"start_height"`
	// Run without a window.
	Headless bool `toml:"headless"`
	// Stop after this many frames, 0 runs until quit.
	MaxFrames uint64 `toml:"max_frames"`
	LogLevel  string `toml:"log_level"`
}

type RendererSection struct {
	// "simulated" or "vulkan".
	Backend        string `toml:"backend"`
	FrameResources int    `toml:"frame_resources"`
	// How long BeginFrame waits for a slot before failing, 0 waits forever.
	FenceTimeoutMS int  `toml:"fence_timeout_ms"`
	GPULatencyMS   int  `toml:"gpu_latency_ms"`
	GPUJitterMS    int  `toml:"gpu_jitter_ms"`
	Debug          bool `toml:"debug"`

	MaxObjectCount   uint32 `toml:"max_object_count"`
	MaxMaterialCount uint32 `toml:"max_material_count"`
	MaxTextureCount  uint32 `toml:"max_texture_count"`
	MaxGeometryCount uint32 `toml:"max_geometry_count"`
	JobWorkers       int    `toml:"job_workers"`
}

type AssetsSection struct {
	Dir string `toml:"dir"`
	// Material library, relative to Dir.
	Materials string `toml:"materials"`
	HotReload bool   `toml:"hot_reload"`
	// Textures acquired before the game initializes.
	Textures []string `toml:"textures"`
	// Models loaded on the job system into meshes named "<model>Geo".
	Models []string `toml:"models"`
}

type ApplicationConfig struct {
	Application ApplicationSection `toml:"application"`
	Renderer    RendererSection    `toml:"renderer"`
	Assets      AssetsSection      `toml:"assets"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Application: ApplicationSection{
			Name:        "Citadel",
			StartPosX:   100,
			StartPosY:   100,
			StartWidth:  1280,
			StartHeight: 720,
			LogLevel:    "info",
		},
		Renderer: RendererSection{
			Backend:          string(renderer.BackendSimulated),
			FrameResources:   frame.DefaultFrameResources,
			FenceTimeoutMS:   2000,
			GPULatencyMS:     4,
			GPUJitterMS:      2,
			MaxObjectCount:   128,
			MaxMaterialCount: 32,
			MaxTextureCount:  32,
			MaxGeometryCount: 16,
			JobWorkers:       2,
		},
		Assets: AssetsSection{
			Dir:       "assets",
			Materials: "materials.toml",
			HotReload: true,
			Models:    []string{"skull"},
		},
	}
}

// LoadApplicationConfig reads a TOML config file on top of the defaults.
// Unknown keys are rejected.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	config := DefaultApplicationConfig()
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(config); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, errors.Newf("config %s: %s", path, strict.String())
		}
		return nil, errors.Wrapf(err, "decode config %s", path)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return config, nil
}

func (c *ApplicationConfig) Validate() error {
	if c.Application.Name == "" {
		return errors.New("application.name is required")
	}
	if c.Application.StartWidth == 0 || c.Application.StartHeight == 0 {
		return errors.Newf("application size %dx%d must be > 0", c.Application.StartWidth, c.Application.StartHeight)
	}
	switch renderer.BackendType(c.Renderer.Backend) {
	case renderer.BackendSimulated, renderer.BackendVulkan:
	default:
		return errors.Newf("unknown renderer.backend %q", c.Renderer.Backend)
	}
	if c.Renderer.FrameResources < 1 {
		return errors.Newf("renderer.frame_resources must be >= 1, got %d", c.Renderer.FrameResources)
	}
	if c.Renderer.FenceTimeoutMS < 0 || c.Renderer.GPULatencyMS < 0 || c.Renderer.GPUJitterMS < 0 {
		return errors.New("renderer timings must not be negative")
	}
	if c.Renderer.MaxObjectCount == 0 || c.Renderer.MaxMaterialCount == 0 ||
		c.Renderer.MaxTextureCount == 0 || c.Renderer.MaxGeometryCount == 0 {
		return errors.New("renderer capacities must be > 0")
	}
	if c.Renderer.JobWorkers < 1 {
		return errors.Newf("renderer.job_workers must be >= 1, got %d", c.Renderer.JobWorkers)
	}
	if c.Assets.Dir == "" {
		return errors.New("assets.dir is required")
	}
	return nil
}

func (c *ApplicationConfig) FenceTimeout() time.Duration {
	return time.Duration(c.Renderer.FenceTimeoutMS) * time.Millisecond
}

func (c *ApplicationConfig) LogLevel() core.LogLevel {
	return core.ParseLogLevel(c.Application.LogLevel)
}
