package math

// GeometryGenerateNormals assigns face normals to every triangle in the index list.
func GeometryGenerateNormals(vertices []Vertex3D, indices []uint32) {
	for i := 0; i+2 < len(indices); i += 3 {
		i0 := indices[i+0]
		i1 := indices[i+1]
		i2 := indices[i+2]

		edge1 := vertices[i1].Position.Sub(vertices[i0].Position)
		edge2 := vertices[i2].Position.Sub(vertices[i0].Position)

		c := edge1.Cross(edge2)
		if c.Len() == 0 {
			continue
		}
		normal := c.Normalize()

		// NOTE: This just generates a face normal. Smoothing out should be done in a separate pass if desired.
		vertices[i0].Normal = normal
		vertices[i1].Normal = normal
		vertices[i2].Normal = normal
	}
}

// GeometryExtents returns the bounding box of the vertices.
func GeometryExtents(vertices []Vertex3D) Extents3D {
	var e Extents3D
	for i, v := range vertices {
		if i == 0 {
			e.Min, e.Max = v.Position, v.Position
			continue
		}
		for k := 0; k < 3; k++ {
			if v.Position[k] < e.Min[k] {
				e.Min[k] = v.Position[k]
			}
			if v.Position[k] > e.Max[k] {
				e.Max[k] = v.Position[k]
			}
		}
	}
	return e
}
