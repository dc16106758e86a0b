package assets

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/citadel/engine/assets/loaders"
	"github.com/spaghettifunk/citadel/engine/core"
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

const (
	TexturesDir = "textures"
	ModelsDir   = "models"

	pendingReloads = 16
)

type AssetInfo struct {
	Path       string
	Type       metadata.AssetType
	LastLoaded time.Time
}

// AssetManager indexes the asset directory, loads assets by name and, when
// hot reload is enabled, reports edited material libraries back to the main
// loop through Update.
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[metadata.AssetType]Loader

	mutex sync.RWMutex

	hotReload bool
	fsnotify  *fsnotify.Watcher
	pending   chan string
	done      chan struct{}
	stopped   chan struct{}
	watching  bool
	closeOnce sync.Once
}

func NewAssetManager() *AssetManager {
	am := &AssetManager{
		assets:  make(map[string]AssetInfo),
		loaders: make(map[metadata.AssetType]Loader),
		pending: make(chan string, pendingReloads),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	am.registerLoader(metadata.AssetTypeTexture, &loaders.TextureLoader{})
	am.registerLoader(metadata.AssetTypeMaterialLibrary, &loaders.MaterialLoader{})
	am.registerLoader(metadata.AssetTypeModel, &loaders.ModelLoader{})
	return am
}

// Initialize indexes every file under assetsDir. With hotReload the
// directory tree is watched for changes until Shutdown.
func (am *AssetManager) Initialize(assetsDir string, hotReload bool) error {
	root, err := filepath.Abs(assetsDir)
	if err != nil {
		return errors.Wrapf(err, "resolve assets dir %s", assetsDir)
	}
	fi, err := os.Stat(root)
	if err != nil {
		return errors.Wrapf(err, "assets dir %s", assetsDir)
	}
	if !fi.IsDir() {
		return errors.Newf("assets dir %s is not a directory", assetsDir)
	}
	am.root = root

	if hotReload {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return errors.Wrap(err, "create asset watcher")
		}
		am.fsnotify = w
		am.hotReload = true
	}
	if err := am.watchRecursive(root); err != nil {
		if am.fsnotify != nil {
			am.fsnotify.Close()
		}
		return err
	}
	if am.hotReload {
		am.watching = true
		go am.start()
	}
	core.LogInfo("Indexed %d assets under %s (hot reload: %t).", am.Count(), root, hotReload)
	return nil
}

// Shutdown stops watching the asset directory.
func (am *AssetManager) Shutdown() error {
	am.closeOnce.Do(func() { close(am.done) })
	if am.watching {
		<-am.stopped
	}
	return nil
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.AssetType, loader Loader) {
	am.loaders[assetType] = loader
}

// Root returns the absolute asset directory.
func (am *AssetManager) Root() string {
	return am.root
}

// Count returns the number of indexed asset files.
func (am *AssetManager) Count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// LoadAsset loads an asset by name. Textures are looked up under textures/
// with any supported extension, models under models/ with a .txt extension
// and material libraries by their path relative to the asset root.
func (am *AssetManager) LoadAsset(name string, assetType metadata.AssetType) (*metadata.Asset, error) {
	path, err := am.resolve(name, assetType)
	if err != nil {
		return nil, err
	}

	loader, loaderExists := am.loaders[assetType]
	if !loaderExists {
		return nil, errors.Newf("no loader registered for asset type: %s", assetType)
	}
	asset, err := loader.Load(filepath.Join(am.root, filepath.FromSlash(path)))
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	if info, ok := am.assets[path]; ok {
		info.LastLoaded = time.Now()
		am.assets[path] = info
	}
	am.mutex.Unlock()

	asset.Name = name
	return asset, nil
}

func (am *AssetManager) UnloadAsset(asset *metadata.Asset) error {
	if asset == nil {
		return errors.New("cannot unload a nil asset")
	}
	loader, ok := am.loaders[asset.Type]
	if !ok {
		return errors.Newf("no loader registered for asset type: %s", asset.Type)
	}
	return loader.Unload(asset)
}

func (am *AssetManager) resolve(name string, assetType metadata.AssetType) (string, error) {
	var candidates []string
	switch assetType {
	case metadata.AssetTypeTexture:
		for _, ext := range loaders.TextureExtensions {
			candidates = append(candidates, TexturesDir+"/"+name+ext)
		}
	case metadata.AssetTypeModel:
		candidates = append(candidates, ModelsDir+"/"+name+".txt")
	case metadata.AssetTypeMaterialLibrary:
		if filepath.Ext(name) == "" {
			name += ".toml"
		}
	default:
		return "", errors.Newf("unknown asset type %d", assetType)
	}
	candidates = append(candidates, filepath.ToSlash(name))

	am.mutex.RLock()
	defer am.mutex.RUnlock()
	for _, c := range candidates {
		if info, ok := am.assets[c]; ok && info.Type == assetType {
			return c, nil
		}
	}
	return "", errors.Wrapf(core.ErrAssetNotFound, "%s %q", assetType, name)
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	defer am.fsnotify.Close()
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleEvent(e)

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("Asset watcher: %s", err.Error())

		case <-am.done:
			return
		}
	}
}

func (am *AssetManager) handleEvent(e fsnotify.Event) {
	s, err := os.Stat(e.Name)
	if err == nil && s != nil && s.IsDir() {
		if e.Has(fsnotify.Create) {
			if err := am.watchRecursive(e.Name); err != nil {
				core.LogWarn("Failed to watch new directory %s: %s", e.Name, err.Error())
			}
		}
		return
	}
	if e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename) {
		am.removeAsset(e.Name)
		return
	}
	if !e.Has(fsnotify.Create) && !e.Has(fsnotify.Write) {
		return
	}
	rel, assetType := am.handleFileEvent(e.Name)
	if assetType != metadata.AssetTypeMaterialLibrary {
		return
	}
	select {
	case am.pending <- rel:
	default:
		core.LogWarn("Dropping reload of %s, %d reloads already pending.", rel, pendingReloads)
	}
}

// Update publishes queued material library changes. Call it from the
// thread that owns the scene; handlers run synchronously.
func (am *AssetManager) Update() int {
	seen := map[string]struct{}{}
	for {
		select {
		case path := <-am.pending:
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}
			core.LogInfo("Material library %s changed.", path)
			core.EventFire(core.EventContext{
				Type: core.EVENT_CODE_MATERIALS_CHANGED,
				Data: &core.AssetEvent{Path: path},
			})
		default:
			return len(seen)
		}
	}
}

// watchRecursive indexes every file under path and, with hot reload, adds
// each directory to the watch list.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if am.fsnotify != nil {
				return am.fsnotify.Add(walkPath)
			}
			return nil
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) (string, metadata.AssetType) {
	rel, ok := am.relative(path)
	if !ok {
		return "", metadata.AssetTypeNone
	}
	assetType := determineAssetType(rel)
	if assetType == metadata.AssetTypeNone {
		return rel, assetType
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[rel] = AssetInfo{
		Path: rel,
		Type: assetType,
	}
	return rel, assetType
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	rel, ok := am.relative(path)
	if !ok {
		return
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()
	delete(am.assets, rel)
}

func (am *AssetManager) relative(path string) (string, bool) {
	rel, err := filepath.Rel(am.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func determineAssetType(path string) metadata.AssetType {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".toml":
		return metadata.AssetTypeMaterialLibrary
	case ext == ".txt" && strings.HasPrefix(path, ModelsDir+"/"):
		return metadata.AssetTypeModel
	case strings.HasPrefix(path, TexturesDir+"/"):
		for _, e := range loaders.TextureExtensions {
			if ext == e {
				return metadata.AssetTypeTexture
			}
		}
	}
	return metadata.AssetTypeNone
}
