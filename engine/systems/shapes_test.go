package systems

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/citadel/engine/math"
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

func requireValidIndices(t *testing.T, cfg *metadata.GeometryConfig) {
	t.Helper()
	require.NotEmpty(t, cfg.Vertices, cfg.Name)
	require.NotEmpty(t, cfg.Indices, cfg.Name)
	require.Zero(t, len(cfg.Indices)%3, cfg.Name)
	for _, idx := range cfg.Indices {
		require.Less(t, int(idx), len(cfg.Vertices), cfg.Name)
	}
}

// assertOutwardWinding checks that every triangle of a convex shape winds
// counter-clockwise when seen from outside.
func assertOutwardWinding(t *testing.T, cfg *metadata.GeometryConfig) {
	t.Helper()
	var inside mgl32.Vec3
	for _, v := range cfg.Vertices {
		inside = inside.Add(v.Position)
	}
	inside = inside.Mul(1 / float32(len(cfg.Vertices)))

	for i := 0; i+2 < len(cfg.Indices); i += 3 {
		p0 := cfg.Vertices[cfg.Indices[i]].Position
		p1 := cfg.Vertices[cfg.Indices[i+1]].Position
		p2 := cfg.Vertices[cfg.Indices[i+2]].Position
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		if n.Len() < 1e-6 {
			continue
		}
		centroid := p0.Add(p1).Add(p2).Mul(1.0 / 3)
		if !assert.Greater(t, n.Dot(centroid.Sub(inside)), float32(0), "%s triangle %d", cfg.Name, i/3) {
			return
		}
	}
}

func TestConvexShapesWindOutward(t *testing.T) {
	shapes := []*metadata.GeometryConfig{
		GeometrySystemGenerateBoxConfig(1, 1, 1, 0, "box"),
		GeometrySystemGenerateBoxConfig(1, 2, 3, 2, "box_subdivided"),
		GeometrySystemGeneratePyramidConfig(1, 1, 1, 0, "pyramid"),
		GeometrySystemGenerateDiamondConfig(1, 1, 1, 1, "diamond"),
		GeometrySystemGenerateWedgeConfig(1, 1, 1, 0, "wedge"),
		GeometrySystemGenerateCylinderConfig(0.5, 0.45, 5, 20, 20, "cylinder"),
		GeometrySystemGenerateConeConfig(1, 1, 20, 20, "cone"),
		GeometrySystemGenerateSphereConfig(0.5, 20, 20, "sphere"),
	}
	for _, cfg := range shapes {
		t.Run(cfg.Name, func(t *testing.T) {
			requireValidIndices(t, cfg)
			assertOutwardWinding(t, cfg)
		})
	}
}

func TestBoxCounts(t *testing.T) {
	box := GeometrySystemGenerateBoxConfig(1, 1, 1, 0, "box")
	assert.Len(t, box.Vertices, 24)
	assert.Len(t, box.Indices, 36)

	e := math.GeometryExtents(GeometrySystemGenerateBoxConfig(2, 4, 6, 0, "box").Vertices)
	assert.Equal(t, mgl32.Vec3{-1, -2, -3}, e.Min)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, e.Max)

	sub := GeometrySystemGenerateBoxConfig(1, 1, 1, 3, "box")
	assert.Len(t, sub.Indices, 36*4*4*4)

	clamped := GeometrySystemGenerateBoxConfig(1, 1, 1, 99, "box")
	assert.Len(t, clamped.Indices, 36*4096)
}

func TestGridIsFlatAndFacesUp(t *testing.T) {
	grid := GeometrySystemGenerateGridConfig(30, 30, 60, 40, "grid")
	requireValidIndices(t, grid)
	assert.Len(t, grid.Vertices, 60*40)
	assert.Len(t, grid.Indices, 59*39*6)

	for _, v := range grid.Vertices {
		require.Equal(t, float32(0), v.Position.Y())
		require.Equal(t, mgl32.Vec3{0, 1, 0}, v.Normal)
	}
	for i := 0; i+2 < len(grid.Indices); i += 3 {
		p0 := grid.Vertices[grid.Indices[i]].Position
		p1 := grid.Vertices[grid.Indices[i+1]].Position
		p2 := grid.Vertices[grid.Indices[i+2]].Position
		require.Greater(t, p1.Sub(p0).Cross(p2.Sub(p0)).Y(), float32(0))
	}
	e := math.GeometryExtents(grid.Vertices)
	assert.InDelta(t, -15, e.Min.X(), 1e-4)
	assert.InDelta(t, 15, e.Max.Z(), 1e-4)
}

func TestTorusNormalsPointAwayFromTube(t *testing.T) {
	torus := GeometrySystemGenerateTorusConfig(10, 1, 40, 40, "torus")
	requireValidIndices(t, torus)
	for _, v := range torus.Vertices {
		p := v.Position
		ring := mgl32.Vec3{p.X(), 0, p.Z()}.Normalize().Mul(10)
		assert.InDelta(t, 1, p.Sub(ring).Len(), 1e-3)
		assert.Greater(t, v.Normal.Dot(p.Sub(ring)), float32(0))
	}
}

func TestGeneratorsDefaultInvalidParameters(t *testing.T) {
	box := GeometrySystemGenerateBoxConfig(0, -1, 0, 0, "box")
	e := math.GeometryExtents(box.Vertices)
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, e.Max)

	cyl := GeometrySystemGenerateCylinderConfig(1, -1, 1, 1, 0, "cyl")
	requireValidIndices(t, cyl)

	grid := GeometrySystemGenerateGridConfig(1, 1, 0, 1, "grid")
	assert.Len(t, grid.Vertices, 4)
}

func TestFacetedShapesHaveOutwardFaceNormals(t *testing.T) {
	shapes := []*metadata.GeometryConfig{
		GeometrySystemGenerateBoxConfig(1, 2, 3, 0, "box"),
		GeometrySystemGenerateBoxConfig(1, 1, 1, 2, "box_subdivided"),
		GeometrySystemGeneratePyramidConfig(1, 1, 1, 0, "pyramid"),
		GeometrySystemGenerateDiamondConfig(1, 1, 1, 0, "diamond"),
		GeometrySystemGenerateWedgeConfig(1, 1, 1, 1, "wedge"),
	}
	for _, cfg := range shapes {
		t.Run(cfg.Name, func(t *testing.T) {
			var inside mgl32.Vec3
			for _, v := range cfg.Vertices {
				inside = inside.Add(v.Position)
			}
			inside = inside.Mul(1 / float32(len(cfg.Vertices)))

			for i := 0; i+2 < len(cfg.Indices); i += 3 {
				v0 := cfg.Vertices[cfg.Indices[i]]
				v1 := cfg.Vertices[cfg.Indices[i+1]]
				v2 := cfg.Vertices[cfg.Indices[i+2]]
				require.InDelta(t, 1, v0.Normal.Len(), 1e-4)
				require.True(t, v0.Normal.ApproxEqual(v1.Normal))
				require.True(t, v0.Normal.ApproxEqual(v2.Normal))
				centroid := v0.Position.Add(v1.Position).Add(v2.Position).Mul(1.0 / 3)
				require.Greater(t, v0.Normal.Dot(centroid.Sub(inside)), float32(0))
			}
		})
	}

	box := GeometrySystemGenerateBoxConfig(1, 1, 1, 0, "box")
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, box.Vertices[0].Normal)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, box.Vertices[16].Normal)
}
