package testbed

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/rand"

	"github.com/spaghettifunk/citadel/engine/core"
	"github.com/spaghettifunk/citadel/engine/math"
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
	"github.com/spaghettifunk/citadel/engine/systems"
)

const (
	sceneSeed uint64 = 0xC17ADE1

	treeCount       = 16
	treeMinDistance = 15.0
	treeMaxDistance = 45.0
	treeHeight      = 2.5
	treeSize        = 5.0
)

var castleMaterials = []string{"bricks0", "stone0", "tile0", "grassMat", "water", "treeSprites"}

// castle holds the handles of the castle scene.
type castle struct {
	shapes    metadata.MeshHandle
	trees     metadata.MeshHandle
	skull     metadata.MeshHandle
	materials map[string]metadata.MaterialHandle
	items     []metadata.ItemHandle
}

func buildShapes(gs *systems.GeometrySystem) (metadata.MeshHandle, error) {
	return gs.Pack("shapeGeo",
		systems.GeometrySystemGenerateBoxConfig(1, 1, 1, 3, "box"),
		systems.GeometrySystemGenerateGridConfig(30, 30, 60, 40, "grid"),
		systems.GeometrySystemGenerateSphereConfig(0.5, 20, 20, "sphere"),
		systems.GeometrySystemGenerateCylinderConfig(0.5, 0.45, 5, 20, 20, "cylinder"),
		systems.GeometrySystemGenerateConeConfig(1, 1, 20, 20, "cone"),
		systems.GeometrySystemGenerateDiamondConfig(1, 1, 1, 3, "diamond"),
		systems.GeometrySystemGenerateWedgeConfig(1, 1, 1, 3, "wedge"),
		systems.GeometrySystemGeneratePyramidConfig(1, 1, 1, 3, "pyramid"),
		systems.GeometrySystemGenerateTorusConfig(10, 1, 40, 40, "torus"),
	)
}

// scatterTrees places the sprites in the four outer quadrants, four per quadrant.
func scatterTrees(seed uint64) []math.SpriteVertex {
	rng := rand.New(rand.NewSource(seed))
	signs := [4][2]float32{{1, 1}, {-1, 1}, {-1, -1}, {1, -1}}
	span := float32(treeMaxDistance - treeMinDistance)

	trees := make([]math.SpriteVertex, treeCount)
	for i := range trees {
		s := signs[i%4]
		x := s[0] * (treeMinDistance + rng.Float32()*span)
		z := s[1] * (treeMinDistance + rng.Float32()*span)
		trees[i] = math.SpriteVertex{
			Position: mgl32.Vec3{x, treeHeight, z},
			Size:     mgl32.Vec2{treeSize, treeSize},
		}
	}
	return trees
}

// world builds scale, then rotation about X, then about Y, then translation.
func world(scale mgl32.Vec3, rotX, rotY float32, translation mgl32.Vec3) mgl32.Mat4 {
	return math.TransformFromEuler(scale, rotX, rotY, translation).GetWorld()
}

func buildCastle(sm *systems.SystemManager, seed uint64) (*castle, error) {
	c := &castle{
		skull:     metadata.InvalidMesh,
		materials: make(map[string]metadata.MaterialHandle),
	}
	for _, name := range castleMaterials {
		h, err := sm.Materials().Lookup(name)
		if err != nil {
			return nil, errors.Wrapf(err, "castle material %q", name)
		}
		c.materials[name] = h
	}

	var err error
	if c.shapes, err = buildShapes(sm.Geometry()); err != nil {
		return nil, err
	}
	if c.trees, err = sm.Geometry().PackSprites("treeSpritesGeo", "points", scatterTrees(seed)); err != nil {
		return nil, err
	}
	if h, err := sm.Geometry().Lookup("skullGeo"); err == nil {
		c.skull = h
	} else {
		core.LogWarn("No skull mesh registered, the skull is left out of the scene.")
	}

	scene := sm.Scene()
	add := func(layer metadata.RenderLayer, mesh metadata.MeshHandle, submesh, material string, w, tex mgl32.Mat4) error {
		h, err := scene.Register(systems.RenderItemConfig{
			Layer:        layer,
			Mesh:         mesh,
			Submesh:      submesh,
			Material:     c.materials[material],
			World:        w,
			TexTransform: tex,
		})
		if err != nil {
			return errors.Wrapf(err, "castle %s", submesh)
		}
		c.items = append(c.items, h)
		return nil
	}
	opaque := func(submesh, material string, w mgl32.Mat4) error {
		return add(metadata.RenderLayerOpaque, c.shapes, submesh, material, w, mgl32.Ident4())
	}
	none := mgl32.Vec3{}
	one := mgl32.Vec3{1, 1, 1}

	steps := []func() error{
		// keep
		func() error {
			return opaque("box", "bricks0", world(mgl32.Vec3{10, 4, 10}, 0, 0, mgl32.Vec3{0, 2, 0}))
		},
		// moat
		func() error {
			return add(metadata.RenderLayerAlphaTested, c.shapes, "torus", "water",
				world(mgl32.Vec3{1, 1, 0.1}, math.K_PI/2, 0, none), mgl32.Ident4())
		},
		// ground
		func() error {
			return add(metadata.RenderLayerOpaque, c.shapes, "grid", "grassMat",
				world(mgl32.Vec3{4, 1, 4}, 0, 0, none), mgl32.Scale3D(4, 1, 4))
		},
		func() error {
			return opaque("cylinder", "stone0", world(mgl32.Vec3{50, 1, 2}, 0, 0, mgl32.Vec3{0, 50, 0}))
		},
		func() error {
			for _, x := range []float32{-0.7, 0.7} {
				if err := opaque("diamond", "tile0", world(mgl32.Vec3{0.2, 0.2, 0.2}, math.DegToRad(80.5), 0, mgl32.Vec3{x, 2.5, -0.7})); err != nil {
					return err
				}
			}
			return nil
		},
		func() error {
			return opaque("cone", "tile0", world(one, 0, 0, mgl32.Vec3{0, 6, 0}))
		},
		// flag pole and flag
		func() error {
			if err := opaque("cylinder", "stone0", world(mgl32.Vec3{0.1, 1, 0.1}, 0, 0, mgl32.Vec3{0, 5, 0})); err != nil {
				return err
			}
			return opaque("box", "tile0", world(mgl32.Vec3{1, 0.4, 0.1}, 0, 0, mgl32.Vec3{-0.5, 7.25, 0}))
		},
		// door and bridge
		func() error {
			if err := opaque("cylinder", "tile0", world(mgl32.Vec3{1, 0.01, 4}, math.K_PI/2, 0, mgl32.Vec3{0, 0, -5})); err != nil {
				return err
			}
			return add(metadata.RenderLayerOpaque, c.shapes, "box", "bricks0",
				world(mgl32.Vec3{1, 0.04, 10}, 0, 0, mgl32.Vec3{0, 0.1, -6}), mgl32.Scale3D(1, 0.04, 10))
		},
		func() error {
			if !c.skull.Valid() {
				return nil
			}
			return add(metadata.RenderLayerOpaque, c.skull, "skull", "stone0",
				world(mgl32.Vec3{0.5, 0.5, 0.5}, 0, 0, mgl32.Vec3{0, 0.5, 0}), mgl32.Ident4())
		},
		c.battlements(opaque),
		c.towers(opaque),
		func() error {
			return add(metadata.RenderLayerAlphaTestedTreeSprites, c.trees, "points", "treeSprites", mgl32.Ident4(), mgl32.Ident4())
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	core.LogInfo("Castle built with %d render items.", len(c.items))
	return c, nil
}

type placeFunc func(submesh, material string, w mgl32.Mat4) error

// battlements lines the top of each wall with eight pyramids.
func (c *castle) battlements(place placeFunc) func() error {
	return func() error {
		for i := 0; i < 8; i++ {
			f := float32(i)
			for _, p := range []mgl32.Vec3{
				{-4.5, 4.5, 3.5 - f},
				{4.5, 4.5, -3.5 + f},
				{-3.5 + f, 4.5, 4.5},
				{3.5 - f, 4.5, -4.5},
			} {
				if err := place("pyramid", "stone0", world(mgl32.Vec3{1, 1, 1}, 0, 0, p)); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

// towers places a tower on each corner, crowned by four wedges and four spires
// positioned relative to the tower.
func (c *castle) towers(place placeFunc) func() error {
	one := mgl32.Vec3{1, 1, 1}
	return func() error {
		for i := 0; i < 2; i++ {
			z := -5 + 10*float32(i)
			for _, x := range []float32{-5, 5} {
				tower := math.TransformFromEuler(one, 0, 0, mgl32.Vec3{x, 2, z})
				if err := place("cylinder", "stone0", tower.GetWorld()); err != nil {
					return err
				}
				wedges := []struct {
					offset mgl32.Vec3
					rotY   float32
				}{
					{mgl32.Vec3{-0.5, 2, 0}, 0},
					{mgl32.Vec3{0, 2, 0.5}, math.K_PI / 2},
					{mgl32.Vec3{0.5, 2, 0}, math.K_PI},
					{mgl32.Vec3{0, 2, -0.5}, 3 * math.K_PI / 2},
				}
				for _, w := range wedges {
					wedge := math.TransformFromEuler(one, 0, w.rotY, w.offset)
					wedge.Parent = tower
					if err := place("wedge", "bricks0", wedge.GetWorld()); err != nil {
						return err
					}
				}
				for _, d := range [][2]float32{{-0.75, -0.75}, {-0.75, 0.75}, {0.75, -0.75}, {0.75, 0.75}} {
					spire := math.TransformFromEuler(mgl32.Vec3{0.25, 0.5, 0.25}, 0, 0, mgl32.Vec3{d[0], 2.75, d[1]})
					spire.Parent = tower
					if err := place("box", "stone0", spire.GetWorld()); err != nil {
						return err
					}
				}
			}
		}
		return nil
	}
}

// Items returns the registered render items in draw registration order.
func (c *castle) Items() []metadata.ItemHandle {
	return c.items
}
