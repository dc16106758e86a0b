package systems

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/citadel/engine/core"
	"github.com/spaghettifunk/citadel/engine/math"
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

// Shapes are centred on the origin, Y up, with counter-clockwise front faces.

const maxSubdivisions = 6

type shapeBuilder struct {
	vertices []math.Vertex3D
	indices  []uint32
}

func (b *shapeBuilder) vertex(p, n mgl32.Vec3, uv mgl32.Vec2) uint32 {
	b.vertices = append(b.vertices, math.Vertex3D{Position: p, Normal: n, Texcoord: uv})
	return uint32(len(b.vertices) - 1)
}

// triangle appends a face with its own vertices. Normals are assigned by facet.
func (b *shapeBuilder) triangle(p0, p1, p2 mgl32.Vec3) {
	var n mgl32.Vec3
	b.indices = append(b.indices,
		b.vertex(p0, n, mgl32.Vec2{0, 1}),
		b.vertex(p1, n, mgl32.Vec2{1, 1}),
		b.vertex(p2, n, mgl32.Vec2{0.5, 0}),
	)
}

// quad appends a planar face, corners in counter-clockwise order.
func (b *shapeBuilder) quad(p0, p1, p2, p3 mgl32.Vec3) {
	var n mgl32.Vec3
	i0 := b.vertex(p0, n, mgl32.Vec2{0, 1})
	i1 := b.vertex(p1, n, mgl32.Vec2{1, 1})
	i2 := b.vertex(p2, n, mgl32.Vec2{1, 0})
	i3 := b.vertex(p3, n, mgl32.Vec2{0, 0})
	b.indices = append(b.indices, i0, i1, i2, i0, i2, i3)
}

// facet flat shades the faces built so far, then subdivides them.
func (b *shapeBuilder) facet(subdivisions uint32, name string) *metadata.GeometryConfig {
	math.GeometryGenerateNormals(b.vertices, b.indices)
	b.subdivideN(subdivisions)
	return b.config(name)
}

func midpoint(a, b math.Vertex3D) math.Vertex3D {
	n := a.Normal.Add(b.Normal)
	if n.Len() > 0 {
		n = n.Normalize()
	}
	return math.Vertex3D{
		Position: a.Position.Add(b.Position).Mul(0.5),
		Normal:   n,
		Texcoord: a.Texcoord.Add(b.Texcoord).Mul(0.5),
	}
}

// subdivide splits every triangle into four.
func (b *shapeBuilder) subdivide() {
	vertices := make([]math.Vertex3D, 0, len(b.indices)*2)
	indices := make([]uint32, 0, len(b.indices)*4)
	for i := 0; i+2 < len(b.indices); i += 3 {
		v0 := b.vertices[b.indices[i]]
		v1 := b.vertices[b.indices[i+1]]
		v2 := b.vertices[b.indices[i+2]]
		base := uint32(len(vertices))
		vertices = append(vertices, v0, v1, v2, midpoint(v0, v1), midpoint(v1, v2), midpoint(v0, v2))
		indices = append(indices,
			base+0, base+3, base+5,
			base+3, base+4, base+5,
			base+5, base+4, base+2,
			base+3, base+1, base+4,
		)
	}
	b.vertices = vertices
	b.indices = indices
}

func (b *shapeBuilder) subdivideN(n uint32) {
	if n > maxSubdivisions {
		core.LogWarn("Subdivision count %d too high. Clamping to %d.", n, maxSubdivisions)
		n = maxSubdivisions
	}
	for i := uint32(0); i < n; i++ {
		b.subdivide()
	}
}

func (b *shapeBuilder) config(name string) *metadata.GeometryConfig {
	return &metadata.GeometryConfig{Name: name, Vertices: b.vertices, Indices: b.indices}
}

func nonZero(what string, v float32) float32 {
	if v <= 0 {
		core.LogWarn("%s must be positive. Defaulting to one.", what)
		return 1
	}
	return v
}

func atLeast(what string, v, min uint32) uint32 {
	if v < min {
		core.LogWarn("%s must be at least %d. Defaulting to %d.", what, min, min)
		return min
	}
	return v
}

func GeometrySystemGenerateBoxConfig(width, height, depth float32, subdivisions uint32, name string) *metadata.GeometryConfig {
	hw := nonZero("Width", width) * 0.5
	hh := nonZero("Height", height) * 0.5
	hd := nonZero("Depth", depth) * 0.5

	b := &shapeBuilder{}
	b.quad(mgl32.Vec3{-hw, -hh, hd}, mgl32.Vec3{hw, -hh, hd}, mgl32.Vec3{hw, hh, hd}, mgl32.Vec3{-hw, hh, hd})
	b.quad(mgl32.Vec3{hw, -hh, -hd}, mgl32.Vec3{-hw, -hh, -hd}, mgl32.Vec3{-hw, hh, -hd}, mgl32.Vec3{hw, hh, -hd})
	b.quad(mgl32.Vec3{hw, -hh, hd}, mgl32.Vec3{hw, -hh, -hd}, mgl32.Vec3{hw, hh, -hd}, mgl32.Vec3{hw, hh, hd})
	b.quad(mgl32.Vec3{-hw, -hh, -hd}, mgl32.Vec3{-hw, -hh, hd}, mgl32.Vec3{-hw, hh, hd}, mgl32.Vec3{-hw, hh, -hd})
	b.quad(mgl32.Vec3{-hw, hh, hd}, mgl32.Vec3{hw, hh, hd}, mgl32.Vec3{hw, hh, -hd}, mgl32.Vec3{-hw, hh, -hd})
	b.quad(mgl32.Vec3{-hw, -hh, -hd}, mgl32.Vec3{hw, -hh, -hd}, mgl32.Vec3{hw, -hh, hd}, mgl32.Vec3{-hw, -hh, hd})
	return b.facet(subdivisions, name)
}

// GeometrySystemGeneratePyramidConfig builds a square based pyramid with its apex on +Y.
func GeometrySystemGeneratePyramidConfig(width, height, depth float32, subdivisions uint32, name string) *metadata.GeometryConfig {
	hw := nonZero("Width", width) * 0.5
	hh := nonZero("Height", height) * 0.5
	hd := nonZero("Depth", depth) * 0.5

	apex := mgl32.Vec3{0, hh, 0}
	fl := mgl32.Vec3{-hw, -hh, hd}
	fr := mgl32.Vec3{hw, -hh, hd}
	br := mgl32.Vec3{hw, -hh, -hd}
	bl := mgl32.Vec3{-hw, -hh, -hd}

	b := &shapeBuilder{}
	b.triangle(fl, fr, apex)
	b.triangle(fr, br, apex)
	b.triangle(br, bl, apex)
	b.triangle(bl, fl, apex)
	b.quad(bl, br, fr, fl)
	return b.facet(subdivisions, name)
}

// GeometrySystemGenerateDiamondConfig builds two pyramids joined at their bases.
func GeometrySystemGenerateDiamondConfig(width, height, depth float32, subdivisions uint32, name string) *metadata.GeometryConfig {
	hw := nonZero("Width", width) * 0.5
	hh := nonZero("Height", height) * 0.5
	hd := nonZero("Depth", depth) * 0.5

	top := mgl32.Vec3{0, hh, 0}
	bottom := mgl32.Vec3{0, -hh, 0}
	ring := []mgl32.Vec3{{-hw, 0, hd}, {hw, 0, hd}, {hw, 0, -hd}, {-hw, 0, -hd}}

	b := &shapeBuilder{}
	for i := range ring {
		next := ring[(i+1)%len(ring)]
		b.triangle(ring[i], next, top)
		b.triangle(next, ring[i], bottom)
	}
	return b.facet(subdivisions, name)
}

// GeometrySystemGenerateWedgeConfig builds a ramp rising from the front
// bottom edge (+Z) to the top back edge (-Z).
func GeometrySystemGenerateWedgeConfig(width, height, depth float32, subdivisions uint32, name string) *metadata.GeometryConfig {
	hw := nonZero("Width", width) * 0.5
	hh := nonZero("Height", height) * 0.5
	hd := nonZero("Depth", depth) * 0.5

	fl := mgl32.Vec3{-hw, -hh, hd}
	fr := mgl32.Vec3{hw, -hh, hd}
	br := mgl32.Vec3{hw, -hh, -hd}
	bl := mgl32.Vec3{-hw, -hh, -hd}
	tr := mgl32.Vec3{hw, hh, -hd}
	tl := mgl32.Vec3{-hw, hh, -hd}

	b := &shapeBuilder{}
	b.quad(bl, br, fr, fl)
	b.quad(br, bl, tl, tr)
	b.quad(fl, fr, tr, tl)
	b.triangle(fr, br, tr)
	b.triangle(bl, fl, tl)
	return b.facet(subdivisions, name)
}

// GeometrySystemGenerateGridConfig builds an m x n vertex grid in the XZ plane.
func GeometrySystemGenerateGridConfig(width, depth float32, m, n uint32, name string) *metadata.GeometryConfig {
	width = nonZero("Width", width)
	depth = nonZero("Depth", depth)
	m = atLeast("Grid rows", m, 2)
	n = atLeast("Grid columns", n, 2)

	hw := width * 0.5
	hd := depth * 0.5
	dx := width / float32(n-1)
	dz := depth / float32(m-1)
	du := 1 / float32(n-1)
	dv := 1 / float32(m-1)

	b := &shapeBuilder{
		vertices: make([]math.Vertex3D, 0, m*n),
		indices:  make([]uint32, 0, (m-1)*(n-1)*6),
	}
	for i := uint32(0); i < m; i++ {
		z := hd - float32(i)*dz
		for j := uint32(0); j < n; j++ {
			x := -hw + float32(j)*dx
			b.vertex(mgl32.Vec3{x, 0, z}, mgl32.Vec3{0, 1, 0}, mgl32.Vec2{float32(j) * du, float32(i) * dv})
		}
	}
	for i := uint32(0); i < m-1; i++ {
		for j := uint32(0); j < n-1; j++ {
			b.indices = append(b.indices,
				i*n+j, i*n+j+1, (i+1)*n+j,
				(i+1)*n+j, i*n+j+1, (i+1)*n+j+1,
			)
		}
	}
	return b.config(name)
}

// GeometrySystemGenerateCylinderConfig builds a capped, possibly tapered
// cylinder along Y. A zero top radius produces a cone without a top cap.
func GeometrySystemGenerateCylinderConfig(bottomRadius, topRadius, height float32, slices, stacks uint32, name string) *metadata.GeometryConfig {
	bottomRadius = nonZero("Bottom radius", bottomRadius)
	if topRadius < 0 {
		core.LogWarn("Top radius must not be negative. Defaulting to zero.")
		topRadius = 0
	}
	height = nonZero("Height", height)
	slices = atLeast("Slices", slices, 3)
	stacks = atLeast("Stacks", stacks, 1)

	b := &shapeBuilder{}
	stackHeight := height / float32(stacks)
	radiusStep := (topRadius - bottomRadius) / float32(stacks)
	dTheta := 2 * math.K_PI / float32(slices)
	dr := bottomRadius - topRadius
	ringCount := slices + 1

	for i := uint32(0); i <= stacks; i++ {
		y := -0.5*height + float32(i)*stackHeight
		r := bottomRadius + float32(i)*radiusStep
		for j := uint32(0); j <= slices; j++ {
			c := math.Cos(float32(j) * dTheta)
			s := math.Sin(float32(j) * dTheta)
			n := mgl32.Vec3{height * c, dr, height * s}.Normalize()
			b.vertex(mgl32.Vec3{r * c, y, r * s}, n, mgl32.Vec2{float32(j) / float32(slices), 1 - float32(i)/float32(stacks)})
		}
	}
	for i := uint32(0); i < stacks; i++ {
		for j := uint32(0); j < slices; j++ {
			a := i*ringCount + j
			c := (i+1)*ringCount + j
			b.indices = append(b.indices, a, c, a+1, a+1, c, c+1)
		}
	}

	b.cap(bottomRadius, -0.5*height, slices, false)
	if topRadius > 0 {
		b.cap(topRadius, 0.5*height, slices, true)
	}
	return b.config(name)
}

func GeometrySystemGenerateConeConfig(radius, height float32, slices, stacks uint32, name string) *metadata.GeometryConfig {
	return GeometrySystemGenerateCylinderConfig(radius, 0, height, slices, stacks, name)
}

func (b *shapeBuilder) cap(radius, y float32, slices uint32, top bool) {
	n := mgl32.Vec3{0, -1, 0}
	if top {
		n = mgl32.Vec3{0, 1, 0}
	}
	dTheta := 2 * math.K_PI / float32(slices)
	center := b.vertex(mgl32.Vec3{0, y, 0}, n, mgl32.Vec2{0.5, 0.5})
	for j := uint32(0); j <= slices; j++ {
		c := math.Cos(float32(j) * dTheta)
		s := math.Sin(float32(j) * dTheta)
		b.vertex(mgl32.Vec3{radius * c, y, radius * s}, n, mgl32.Vec2{0.5 + 0.5*c, 0.5 - 0.5*s})
	}
	for j := uint32(0); j < slices; j++ {
		cur := center + 1 + j
		if top {
			b.indices = append(b.indices, center, cur+1, cur)
		} else {
			b.indices = append(b.indices, center, cur, cur+1)
		}
	}
}

func GeometrySystemGenerateSphereConfig(radius float32, slices, stacks uint32, name string) *metadata.GeometryConfig {
	radius = nonZero("Radius", radius)
	slices = atLeast("Slices", slices, 3)
	stacks = atLeast("Stacks", stacks, 2)

	b := &shapeBuilder{}
	dPhi := math.K_PI / float32(stacks)
	dTheta := 2 * math.K_PI / float32(slices)
	ringCount := slices + 1

	north := b.vertex(mgl32.Vec3{0, radius, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec2{0, 0})
	for i := uint32(1); i < stacks; i++ {
		phi := float32(i) * dPhi
		for j := uint32(0); j <= slices; j++ {
			theta := float32(j) * dTheta
			n := mgl32.Vec3{math.Sin(phi) * math.Cos(theta), math.Cos(phi), math.Sin(phi) * math.Sin(theta)}
			b.vertex(n.Mul(radius), n, mgl32.Vec2{theta / (2 * math.K_PI), phi / math.K_PI})
		}
	}
	south := b.vertex(mgl32.Vec3{0, -radius, 0}, mgl32.Vec3{0, -1, 0}, mgl32.Vec2{0, 1})

	for j := uint32(0); j < slices; j++ {
		b.indices = append(b.indices, north, 1+j+1, 1+j)
	}
	for i := uint32(0); i < stacks-2; i++ {
		for j := uint32(0); j < slices; j++ {
			u := 1 + i*ringCount + j
			l := 1 + (i+1)*ringCount + j
			b.indices = append(b.indices, l, u, l+1, l+1, u, u+1)
		}
	}
	last := 1 + (stacks-2)*ringCount
	for j := uint32(0); j < slices; j++ {
		b.indices = append(b.indices, south, last+j, last+j+1)
	}
	return b.config(name)
}

// GeometrySystemGenerateTorusConfig builds a ring lying in the XZ plane.
func GeometrySystemGenerateTorusConfig(radius, tube float32, rings, sides uint32, name string) *metadata.GeometryConfig {
	radius = nonZero("Radius", radius)
	tube = nonZero("Tube radius", tube)
	rings = atLeast("Rings", rings, 3)
	sides = atLeast("Sides", sides, 3)

	b := &shapeBuilder{}
	dTheta := 2 * math.K_PI / float32(rings)
	dPhi := 2 * math.K_PI / float32(sides)
	for i := uint32(0); i <= rings; i++ {
		ct := math.Cos(float32(i) * dTheta)
		st := math.Sin(float32(i) * dTheta)
		for j := uint32(0); j <= sides; j++ {
			cp := math.Cos(float32(j) * dPhi)
			sp := math.Sin(float32(j) * dPhi)
			p := mgl32.Vec3{(radius + tube*cp) * ct, tube * sp, (radius + tube*cp) * st}
			n := mgl32.Vec3{cp * ct, sp, cp * st}
			b.vertex(p, n, mgl32.Vec2{float32(i) / float32(rings), float32(j) / float32(sides)})
		}
	}
	stride := sides + 1
	for i := uint32(0); i < rings; i++ {
		for j := uint32(0); j < sides; j++ {
			a := i*stride + j
			nb := (i+1)*stride + j
			b.indices = append(b.indices, a, a+1, nb, nb, a+1, nb+1)
		}
	}
	return b.config(name)
}
