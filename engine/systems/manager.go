package systems

import (
	"github.com/cockroachdb/errors"
)

type SystemManagerConfig struct {
	FrameResources   int
	MaxObjectCount   uint32
	MaxMaterialCount uint32
	MaxTextureCount  uint32
	MaxGeometryCount uint32
	JobWorkers       int
	JobQueueSize     int
}

type SystemManager struct {
	jobSystem        *JobSystem
	textureSystem    *TextureSystem
	materialSystem   *MaterialSystem
	geometrySystem   *GeometrySystem
	meshLoaderSystem *MeshLoaderSystem
	sceneSystem      *SceneSystem
}

func NewSystemManager(config SystemManagerConfig, assets AssetLoader) (*SystemManager, error) {
	js, err := NewJobSystem(config.JobWorkers, config.JobQueueSize)
	if err != nil {
		return nil, err
	}
	ts, err := NewTextureSystem(&TextureSystemConfig{
		MaxTextureCount: config.MaxTextureCount,
	}, assets)
	if err != nil {
		return nil, err
	}
	ms, err := NewMaterialSystem(&MaterialSystemConfig{
		MaxMaterialCount: config.MaxMaterialCount,
		FrameResources:   config.FrameResources,
	}, ts, assets)
	if err != nil {
		return nil, err
	}
	if err := ms.Initialize(); err != nil {
		return nil, err
	}
	gs, err := NewGeometrySystem(&GeometrySystemConfig{
		MaxGeometryCount: config.MaxGeometryCount,
	})
	if err != nil {
		return nil, err
	}
	mls, err := NewMeshLoaderSystem(gs, js, assets)
	if err != nil {
		return nil, err
	}
	ss, err := NewSceneSystem(&SceneSystemConfig{
		MaxObjectCount: config.MaxObjectCount,
		FrameResources: config.FrameResources,
	}, gs, ms)
	if err != nil {
		return nil, err
	}
	return &SystemManager{
		jobSystem:        js,
		textureSystem:    ts,
		materialSystem:   ms,
		geometrySystem:   gs,
		meshLoaderSystem: mls,
		sceneSystem:      ss,
	}, nil
}

func (sm *SystemManager) Textures() *TextureSystem      { return sm.textureSystem }
func (sm *SystemManager) Materials() *MaterialSystem    { return sm.materialSystem }
func (sm *SystemManager) Geometry() *GeometrySystem     { return sm.geometrySystem }
func (sm *SystemManager) MeshLoader() *MeshLoaderSystem { return sm.meshLoaderSystem }
func (sm *SystemManager) Scene() *SceneSystem           { return sm.sceneSystem }

func (sm *SystemManager) Shutdown() error {
	if err := sm.sceneSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.meshLoaderSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.geometrySystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.materialSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.textureSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.jobSystem.Shutdown(); err != nil {
		return errors.Wrap(err, "job system")
	}
	return nil
}
