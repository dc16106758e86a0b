package metadata

/** @brief The kind of file an asset was loaded from. */
type AssetType int

const (
	AssetTypeNone AssetType = iota
	AssetTypeTexture
	AssetTypeMaterialLibrary
	AssetTypeModel
)

func (t AssetType) String() string {
	switch t {
	case AssetTypeTexture:
		return "texture"
	case AssetTypeMaterialLibrary:
		return "material_library"
	case AssetTypeModel:
		return "model"
	}
	return "none"
}

/**
 * @brief A loaded asset. Data holds the loader specific payload:
 * *Texture, []MaterialConfig or *GeometryConfig.
 */
type Asset struct {
	Name     string
	FullPath string
	Type     AssetType
	/** @brief The size of the file the asset was read from, in bytes. */
	DataSize uint64
	Data     interface{}
}
