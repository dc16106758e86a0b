package systems

import (
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/citadel/engine/core"
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

type fakeAssets struct {
	mu        sync.Mutex
	textures  map[string]*metadata.Texture
	models    map[string]*metadata.GeometryConfig
	libraries map[string][]metadata.MaterialConfig
	loads     map[string]int
	unloads   int
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{
		textures:  map[string]*metadata.Texture{},
		models:    map[string]*metadata.GeometryConfig{},
		libraries: map[string][]metadata.MaterialConfig{},
		loads:     map[string]int{},
	}
}

func (f *fakeAssets) LoadAsset(name string, assetType metadata.AssetType) (*metadata.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads[name]++

	var data interface{}
	switch assetType {
	case metadata.AssetTypeTexture:
		if t, ok := f.textures[name]; ok {
			cp := *t
			data = &cp
		}
	case metadata.AssetTypeModel:
		if m, ok := f.models[name]; ok {
			cp := *m
			data = &cp
		}
	case metadata.AssetTypeMaterialLibrary:
		if l, ok := f.libraries[name]; ok {
			data = append([]metadata.MaterialConfig(nil), l...)
		}
	}
	if data == nil {
		return nil, errors.Wrapf(core.ErrAssetNotFound, "%s %q", assetType, name)
	}
	return &metadata.Asset{Name: name, Type: assetType, Data: data}, nil
}

func (f *fakeAssets) UnloadAsset(asset *metadata.Asset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unloads++
	asset.Data = nil
	return nil
}

func (f *fakeAssets) loadCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads[name]
}
