package systems

import (
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/citadel/engine/core"
	"github.com/spaghettifunk/citadel/engine/math"
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

type GeometrySystemConfig struct {
	/** @brief The maximum number of meshes that can be registered at once. */
	MaxGeometryCount uint32
}

// GeometrySystem owns every mesh. Meshes are immutable once built; loaders
// may reserve a handle first and fill it from a worker later.
type GeometrySystem struct {
	Config *GeometrySystemConfig

	mu     sync.RWMutex
	meshes []*metadata.Mesh
	table  map[string]metadata.MeshHandle
}

func NewGeometrySystem(config *GeometrySystemConfig) (*GeometrySystem, error) {
	if config.MaxGeometryCount == 0 {
		err := errors.New("func NewGeometrySystem - config.MaxGeometryCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	return &GeometrySystem{
		Config: config,
		meshes: make([]*metadata.Mesh, 0, config.MaxGeometryCount),
		table:  make(map[string]metadata.MeshHandle),
	}, nil
}

func (gs *GeometrySystem) Shutdown() error {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.meshes = nil
	gs.table = make(map[string]metadata.MeshHandle)
	return nil
}

// Reserve registers an empty mesh under name and returns its handle.
func (gs *GeometrySystem) Reserve(name string) (metadata.MeshHandle, error) {
	return gs.register(&metadata.Mesh{Name: name, DrawArgs: map[string]metadata.SubmeshGeometry{}})
}

func (gs *GeometrySystem) register(mesh *metadata.Mesh) (metadata.MeshHandle, error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if mesh.Name == "" {
		return metadata.InvalidMesh, errors.New("mesh name is required")
	}
	if _, ok := gs.table[mesh.Name]; ok {
		return metadata.InvalidMesh, errors.Newf("mesh %q already exists", mesh.Name)
	}
	if uint32(len(gs.meshes)) >= gs.Config.MaxGeometryCount {
		return metadata.InvalidMesh, errors.Newf("cannot register mesh %q: all %d slots in use", mesh.Name, gs.Config.MaxGeometryCount)
	}
	h := metadata.MeshHandle(len(gs.meshes))
	gs.meshes = append(gs.meshes, mesh)
	gs.table[mesh.Name] = h
	return h, nil
}

// Pack builds one mesh holding every config back to back. Each config
// becomes a submesh named after it.
func (gs *GeometrySystem) Pack(name string, configs ...*metadata.GeometryConfig) (metadata.MeshHandle, error) {
	mesh, err := packGeometry(name, configs...)
	if err != nil {
		return metadata.InvalidMesh, err
	}
	h, err := gs.register(mesh)
	if err != nil {
		return metadata.InvalidMesh, err
	}
	core.LogDebug("Mesh '%s' packed: %d submeshes, %d vertices, %d indices.", name, len(mesh.DrawArgs), len(mesh.Vertices), len(mesh.Indices))
	return h, nil
}

// Fill replaces a reserved mesh with the packed configs.
func (gs *GeometrySystem) Fill(h metadata.MeshHandle, configs ...*metadata.GeometryConfig) error {
	gs.mu.RLock()
	if !h.Valid() || int(h) >= len(gs.meshes) {
		gs.mu.RUnlock()
		return errors.Wrapf(core.ErrInvalidHandle, "mesh %d", h)
	}
	name := gs.meshes[h].Name
	gs.mu.RUnlock()

	mesh, err := packGeometry(name, configs...)
	if err != nil {
		return err
	}
	gs.mu.Lock()
	gs.meshes[h] = mesh
	gs.mu.Unlock()
	return nil
}

// PackSprites builds a point list mesh with a single submesh.
func (gs *GeometrySystem) PackSprites(name, submesh string, vertices []math.SpriteVertex) (metadata.MeshHandle, error) {
	if len(vertices) == 0 {
		return metadata.InvalidMesh, errors.Newf("sprite mesh %q has no vertices", name)
	}
	indices := make([]uint32, len(vertices))
	for i := range indices {
		indices[i] = uint32(i)
	}
	stride := uint32(unsafe.Sizeof(math.SpriteVertex{}))
	mesh := &metadata.Mesh{
		Name:             name,
		SpriteVertices:   vertices,
		Indices:          indices,
		VertexByteStride: stride,
		VertexBufferSize: stride * uint32(len(vertices)),
		IndexBufferSize:  uint32(unsafe.Sizeof(uint32(0))) * uint32(len(indices)),
		Topology:         metadata.PrimitiveTopologyPointList,
		DrawArgs: map[string]metadata.SubmeshGeometry{
			submesh: {IndexCount: uint32(len(indices))},
		},
	}
	return gs.register(mesh)
}

func packGeometry(name string, configs ...*metadata.GeometryConfig) (*metadata.Mesh, error) {
	mesh := &metadata.Mesh{
		Name:     name,
		Topology: metadata.PrimitiveTopologyTriangleList,
		DrawArgs: make(map[string]metadata.SubmeshGeometry, len(configs)),
	}
	for _, cfg := range configs {
		if cfg == nil {
			return nil, errors.Newf("mesh %q: nil geometry config", name)
		}
		if _, ok := mesh.DrawArgs[cfg.Name]; ok {
			return nil, errors.Newf("mesh %q: submesh %q packed twice", name, cfg.Name)
		}
		for _, idx := range cfg.Indices {
			if int(idx) >= len(cfg.Vertices) {
				return nil, errors.Newf("mesh %q: submesh %q index %d out of range", name, cfg.Name, idx)
			}
		}
		mesh.DrawArgs[cfg.Name] = metadata.SubmeshGeometry{
			IndexCount:         uint32(len(cfg.Indices)),
			StartIndexLocation: uint32(len(mesh.Indices)),
			BaseVertexLocation: int32(len(mesh.Vertices)),
			Extents:            math.GeometryExtents(cfg.Vertices),
		}
		mesh.Vertices = append(mesh.Vertices, cfg.Vertices...)
		mesh.Indices = append(mesh.Indices, cfg.Indices...)
	}
	mesh.VertexByteStride = uint32(unsafe.Sizeof(math.Vertex3D{}))
	mesh.VertexBufferSize = mesh.VertexByteStride * uint32(len(mesh.Vertices))
	mesh.IndexBufferSize = uint32(unsafe.Sizeof(uint32(0))) * uint32(len(mesh.Indices))
	return mesh, nil
}

func (gs *GeometrySystem) Get(h metadata.MeshHandle) (*metadata.Mesh, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	if !h.Valid() || int(h) >= len(gs.meshes) {
		return nil, errors.Wrapf(core.ErrInvalidHandle, "mesh %d", h)
	}
	return gs.meshes[h], nil
}

func (gs *GeometrySystem) Lookup(name string) (metadata.MeshHandle, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	h, ok := gs.table[name]
	if !ok {
		return metadata.InvalidMesh, errors.Wrapf(core.ErrAssetNotFound, "mesh %q", name)
	}
	return h, nil
}

// Count returns the number of registered meshes.
func (gs *GeometrySystem) Count() int {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return len(gs.meshes)
}
