package loaders

import (
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

// TextureExtensions lists the file extensions the texture loader can decode.
var TextureExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp"}

type TextureLoader struct{}

func (tl *TextureLoader) Load(path string) (*metadata.Asset, error) {
	// Open and decode the texture image file
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open texture %s", path)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "decode texture %s", path)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	texture := TextureFromImage(name, img)
	if texture.Width == 0 || texture.Height == 0 {
		return nil, errors.Newf("texture %s (%s) is empty", path, format)
	}
	return &metadata.Asset{
		Name:     name,
		FullPath: path,
		Type:     metadata.AssetTypeTexture,
		DataSize: uint64(info.Size()),
		Data:     texture,
	}, nil
}

// TextureFromImage converts any decoded image into tightly packed RGBA8 pixels.
func TextureFromImage(name string, img image.Image) *metadata.Texture {
	bounds := img.Bounds()
	rgba, ok := img.(*image.NRGBA)
	if !ok || rgba.Stride != 4*bounds.Dx() || bounds.Min != (image.Point{}) {
		rgba = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}

	transparent := false
	for i := 3; i < len(rgba.Pix); i += 4 {
		if rgba.Pix[i] < 255 {
			transparent = true
			break
		}
	}
	return &metadata.Texture{
		Handle:          metadata.InvalidTexture,
		Name:            name,
		Width:           uint32(bounds.Dx()),
		Height:          uint32(bounds.Dy()),
		ChannelCount:    4,
		HasTransparency: transparent,
		Pixels:          rgba.Pix,
	}
}

func (tl *TextureLoader) Unload(asset *metadata.Asset) error {
	if asset == nil {
		return errors.New("texture loader asked to unload a nil asset")
	}
	asset.Data = nil
	asset.DataSize = 0
	return nil
}
