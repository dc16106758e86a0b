package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/citadel/engine/core"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadApplicationConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
[application]
name = "castle"
headless = true
max_frames = 42
log_level = "debug"

[renderer]
frame_resources = 2
fence_timeout_ms = 250

[assets]
dir = "data"
models = []
`)
	config, err := LoadApplicationConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "castle", config.Application.Name)
	assert.True(t, config.Application.Headless)
	assert.Equal(t, uint64(42), config.Application.MaxFrames)
	assert.Equal(t, core.DebugLevel, config.LogLevel())
	assert.Equal(t, uint32(1280), config.Application.StartWidth)

	assert.Equal(t, "simulated", config.Renderer.Backend)
	assert.Equal(t, 2, config.Renderer.FrameResources)
	assert.Equal(t, 250*time.Millisecond, config.FenceTimeout())
	assert.Equal(t, uint32(128), config.Renderer.MaxObjectCount)

	assert.Equal(t, "data", config.Assets.Dir)
	assert.Equal(t, "materials.toml", config.Assets.Materials)
	assert.Empty(t, config.Assets.Models)
}

func TestLoadApplicationConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "[renderer]\nswapchain = true\n"},
		{"syntax", "[application\nname = 1"},
		{"unknown backend", "[renderer]\nbackend = \"metal\"\n"},
		{"no frame resources", "[renderer]\nframe_resources = 0\n"},
		{"negative timeout", "[renderer]\nfence_timeout_ms = -1\n"},
		{"empty name", "[application]\nname = \"\"\n"},
		{"zero size", "[application]\nstart_width = 0\n"},
		{"no workers", "[renderer]\njob_workers = 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadApplicationConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := LoadApplicationConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefaultApplicationConfigIsValid(t *testing.T) {
	config := DefaultApplicationConfig()
	require.NoError(t, config.Validate())
	assert.Equal(t, 3, config.Renderer.FrameResources)
	assert.Equal(t, core.InfoLevel, config.LogLevel())
}
