package metadata

import "github.com/go-gl/mathgl/mgl32"

/**
 * @brief Material configuration typically loaded from
 * the material library file or created in code.
 */
type MaterialConfig struct {
	/** @brief The name of the material. */
	Name string `toml:"name"`
	/** @brief The name of the diffuse texture, empty for none. */
	DiffuseMapName string `toml:"diffuse_map"`
	/** @brief The diffuse albedo (RGBA). */
	DiffuseAlbedo [4]float32 `toml:"diffuse_albedo"`
	/** @brief Reflectance at normal incidence (RGB). */
	FresnelR0 [3]float32 `toml:"fresnel_r0"`
	/** @brief 0 is perfectly smooth, 1 is maximally rough. */
	Roughness float32 `toml:"roughness"`
	/** @brief Optional texture scale applied to the material transform. */
	TexScale [2]float32 `toml:"tex_scale"`
}

/**
 * @brief A material, which represents the surface properties shared by
 * any number of render items.
 */
type Material struct {
	/** @brief The material name. */
	Name string
	/** @brief Index into the per-frame material constant buffer. */
	MatCBIndex uint32
	/** @brief The diffuse texture, InvalidTexture for none. */
	DiffuseTexture TextureHandle
	DiffuseAlbedo  mgl32.Vec4
	FresnelR0      mgl32.Vec3
	Roughness      float32
	/** @brief Transform applied to texture coordinates, used for scrolling. */
	MatTransform mgl32.Mat4
	/**
	 * @brief Number of frame resources that still hold stale constants for this material.
	 * Set to the ring depth whenever the material changes.
	 */
	NumFramesDirty int
}

// MarkDirty schedules the material for a copy into the next frames frame resources.
func (m *Material) MarkDirty(frames int) {
	m.NumFramesDirty = frames
}

// Constants packs the material into its shader layout. Matrices are transposed
// because the shaders read them row-major.
func (m *Material) Constants() MaterialConstants {
	return MaterialConstants{
		DiffuseAlbedo: m.DiffuseAlbedo,
		FresnelR0:     m.FresnelR0,
		Roughness:     m.Roughness,
		MatTransform:  m.MatTransform.Transpose(),
	}
}
