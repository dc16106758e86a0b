package systems

import (
	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/citadel/engine/core"
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

type meshLoadParams struct {
	ResourceName string
	Submesh      string
	OutMesh      metadata.MeshHandle
}

// MeshLoaderSystem loads model files on the job system. A mesh that fails to
// load stays empty; its render items are skipped when drawing.
type MeshLoaderSystem struct {
	geometrySystem *GeometrySystem
	jobSystem      *JobSystem
	assets         AssetLoader
}

func NewMeshLoaderSystem(gs *GeometrySystem, js *JobSystem, assets AssetLoader) (*MeshLoaderSystem, error) {
	if gs == nil || js == nil {
		return nil, errors.New("mesh loader requires the geometry and job systems")
	}
	return &MeshLoaderSystem{
		geometrySystem: gs,
		jobSystem:      js,
		assets:         assets,
	}, nil
}

func (mls *MeshLoaderSystem) Shutdown() error {
	mls.jobSystem.Wait()
	return nil
}

// Load reserves a mesh called meshName and queues the model resourceName to
// fill it, packed as a single submesh. Call Wait before reading the mesh.
func (mls *MeshLoaderSystem) Load(meshName, resourceName, submesh string) (metadata.MeshHandle, error) {
	h, err := mls.geometrySystem.Reserve(meshName)
	if err != nil {
		return metadata.InvalidMesh, err
	}
	params := &meshLoadParams{ResourceName: resourceName, Submesh: submesh, OutMesh: h}
	if err := mls.jobSystem.Submit(metadata.JobTask{
		JobType:     metadata.JOB_TYPE_RESOURCE_LOAD,
		OnStart:     mls.meshLoadJobStart,
		OnComplete:  mls.meshLoadJobSuccess,
		OnFailure:   func(err error) { mls.meshLoadJobFail(params, err) },
		InputParams: params,
	}); err != nil {
		return metadata.InvalidMesh, err
	}
	return h, nil
}

// Wait blocks until every queued mesh has loaded or failed.
func (mls *MeshLoaderSystem) Wait() {
	mls.jobSystem.Wait()
}

type meshLoadResult struct {
	params *meshLoadParams
	config *metadata.GeometryConfig
}

/**
 * @brief Called when a mesh loading job begins.
 *
 * @param params Mesh loading parameters.
 * @return The parsed geometry on success; otherwise an error.
 */
func (mls *MeshLoaderSystem) meshLoadJobStart(params interface{}) (interface{}, error) {
	loadParams, ok := params.(*meshLoadParams)
	if !ok {
		return nil, errors.Newf("mesh load job: unexpected params %T", params)
	}
	if mls.assets == nil {
		return nil, errors.Wrapf(core.ErrAssetNotFound, "model %q: no asset manager", loadParams.ResourceName)
	}
	asset, err := mls.assets.LoadAsset(loadParams.ResourceName, metadata.AssetTypeModel)
	if err != nil {
		return nil, err
	}
	cfg, ok := asset.Data.(*metadata.GeometryConfig)
	if !ok {
		return nil, errors.Newf("model %q: unexpected asset data %T", loadParams.ResourceName, asset.Data)
	}
	cfg.Name = loadParams.Submesh
	return &meshLoadResult{params: loadParams, config: cfg}, nil
}

/**
 * @brief Called when the job completes successfully.
 */
func (mls *MeshLoaderSystem) meshLoadJobSuccess(result interface{}) {
	r := result.(*meshLoadResult)
	if err := mls.geometrySystem.Fill(r.params.OutMesh, r.config); err != nil {
		mls.meshLoadJobFail(r.params, err)
		return
	}
	core.LogDebug("Successfully loaded mesh '%s' (%d vertices, %d indices).", r.params.ResourceName, len(r.config.Vertices), len(r.config.Indices))
}

/**
 * @brief Called when the job fails.
 */
func (mls *MeshLoaderSystem) meshLoadJobFail(params *meshLoadParams, err error) {
	core.LogWarn("Failed to load mesh '%s', it will not be drawn: %s", params.ResourceName, err.Error())
}
