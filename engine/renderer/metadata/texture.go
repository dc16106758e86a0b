package metadata

/** @brief The default texture name, used when a texture fails to load. */
const DEFAULT_TEXTURE_NAME string = "default"

/**
 * @brief Represents a decoded texture.
 */
type Texture struct {
	/** @brief The texture handle inside the texture arena. */
	Handle TextureHandle
	/** @brief The texture Name. */
	Name string
	/** @brief The texture Width. */
	Width uint32
	/** @brief The texture Height. */
	Height uint32
	/** @brief The number of channels in the texture. */
	ChannelCount uint8
	/** @brief Whether any pixel has alpha below 255. */
	HasTransparency bool
	/** @brief The raw RGBA pixels. */
	Pixels []uint8
}
