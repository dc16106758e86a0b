package systems

import (
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/citadel/engine/core"
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

// AssetLoader is the part of the asset manager the systems depend on.
type AssetLoader interface {
	LoadAsset(name string, assetType metadata.AssetType) (*metadata.Asset, error)
	UnloadAsset(asset *metadata.Asset) error
}

type TextureSystemConfig struct {
	/** @brief The maximum number of textures that can be loaded at once. */
	MaxTextureCount uint32
}

// DefaultTextureHandle is the checkerboard used in place of textures that
// failed to load.
const DefaultTextureHandle metadata.TextureHandle = 0

const defaultTextureDimension = 256

type TextureSystem struct {
	Config *TextureSystemConfig

	mu sync.RWMutex
	// Array of registered textures. Index 0 is the default texture.
	registeredTextures []*metadata.Texture
	// Hashtable for texture lookups.
	registeredTextureTable map[string]metadata.TextureHandle

	assets AssetLoader
}

func NewTextureSystem(config *TextureSystemConfig, assets AssetLoader) (*TextureSystem, error) {
	if config.MaxTextureCount == 0 {
		err := errors.New("func NewTextureSystem - config.MaxTextureCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}

	ts := &TextureSystem{
		Config:                 config,
		registeredTextures:     make([]*metadata.Texture, 0, config.MaxTextureCount),
		registeredTextureTable: make(map[string]metadata.TextureHandle),
		assets:                 assets,
	}
	// Create default textures for use in the system.
	ts.registeredTextures = append(ts.registeredTextures, createDefaultTexture())
	ts.registeredTextureTable[metadata.DEFAULT_TEXTURE_NAME] = DefaultTextureHandle
	return ts, nil
}

// createDefaultTexture builds a 256x256 blue/white checkerboard in code so it
// never depends on an asset.
func createDefaultTexture() *metadata.Texture {
	pixels := make([]uint8, defaultTextureDimension*defaultTextureDimension*4)
	for row := 0; row < defaultTextureDimension; row++ {
		for col := 0; col < defaultTextureDimension; col++ {
			i := (row*defaultTextureDimension + col) * 4
			pixels[i+0], pixels[i+1], pixels[i+2], pixels[i+3] = 255, 255, 255, 255
			if row%2 == col%2 {
				pixels[i+0] = 0
				pixels[i+1] = 0
			}
		}
	}
	return &metadata.Texture{
		Handle:       DefaultTextureHandle,
		Name:         metadata.DEFAULT_TEXTURE_NAME,
		Width:        defaultTextureDimension,
		Height:       defaultTextureDimension,
		ChannelCount: 4,
		Pixels:       pixels,
	}
}

func (ts *TextureSystem) Shutdown() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.registeredTextures = ts.registeredTextures[:1]
	ts.registeredTextureTable = map[string]metadata.TextureHandle{metadata.DEFAULT_TEXTURE_NAME: DefaultTextureHandle}
	return nil
}

// Acquire returns the texture with the given name, loading it on first use.
// A texture that cannot be loaded resolves to the default texture.
func (ts *TextureSystem) Acquire(name string) metadata.TextureHandle {
	if name == metadata.DEFAULT_TEXTURE_NAME {
		core.LogWarn("func texture system Acquire called for default texture. Use DefaultTextureHandle for texture 'default'")
		return DefaultTextureHandle
	}

	ts.mu.RLock()
	h, ok := ts.registeredTextureTable[name]
	ts.mu.RUnlock()
	if ok {
		return h
	}

	h, err := ts.load(name)
	if err != nil {
		core.LogWarn("Texture '%s' could not be loaded, using default: %s", name, err.Error())
		return DefaultTextureHandle
	}
	return h
}

func (ts *TextureSystem) load(name string) (metadata.TextureHandle, error) {
	if ts.assets == nil {
		return metadata.InvalidTexture, errors.Wrapf(core.ErrAssetNotFound, "texture %q: no asset manager", name)
	}
	asset, err := ts.assets.LoadAsset(name, metadata.AssetTypeTexture)
	if err != nil {
		return metadata.InvalidTexture, err
	}
	tex, ok := asset.Data.(*metadata.Texture)
	if !ok {
		return metadata.InvalidTexture, errors.Newf("texture %q: unexpected asset data %T", name, asset.Data)
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	if h, ok := ts.registeredTextureTable[name]; ok {
		return h, nil
	}
	if uint32(len(ts.registeredTextures)) >= ts.Config.MaxTextureCount {
		return metadata.InvalidTexture, errors.Newf("texture %q: all %d slots in use", name, ts.Config.MaxTextureCount)
	}
	h := metadata.TextureHandle(len(ts.registeredTextures))
	tex.Handle = h
	tex.Name = name
	ts.registeredTextures = append(ts.registeredTextures, tex)
	ts.registeredTextureTable[name] = h
	core.LogDebug("Texture '%s' loaded (%dx%d).", name, tex.Width, tex.Height)
	return h, nil
}

func (ts *TextureSystem) Get(h metadata.TextureHandle) (*metadata.Texture, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	if !h.Valid() || int(h) >= len(ts.registeredTextures) {
		return nil, errors.Wrapf(core.ErrInvalidHandle, "texture %d", h)
	}
	return ts.registeredTextures[h], nil
}

// Count returns the number of textures, the default texture included.
func (ts *TextureSystem) Count() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return len(ts.registeredTextures)
}
