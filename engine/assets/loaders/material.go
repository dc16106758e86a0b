package loaders

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/citadel/engine/core"
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

// MaterialLoader reads a material library: a TOML file holding any number of
// [[material]] tables.
type MaterialLoader struct{}

type materialLibrary struct {
	Materials []metadata.MaterialConfig `toml:"material"`
}

func (ml *MaterialLoader) Load(path string) (*metadata.Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read material library %s", path)
	}
	configs, err := ParseMaterialLibrary(data)
	if err != nil {
		return nil, errors.Wrapf(err, "material library %s", path)
	}
	return &metadata.Asset{
		Name:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		FullPath: path,
		Type:     metadata.AssetTypeMaterialLibrary,
		DataSize: uint64(len(data)),
		Data:     configs,
	}, nil
}

// ParseMaterialLibrary decodes and validates every material in data.
func ParseMaterialLibrary(data []byte) ([]metadata.MaterialConfig, error) {
	lib := materialLibrary{}
	dec := toml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&lib); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(lib.Materials))
	for i := range lib.Materials {
		m := &lib.Materials[i]
		applyMaterialDefaults(m)
		if err := validateMaterial(m); err != nil {
			return nil, errors.Wrapf(err, "material #%d", i)
		}
		if _, ok := seen[m.Name]; ok {
			return nil, errors.Newf("material %q defined twice", m.Name)
		}
		seen[m.Name] = struct{}{}
	}
	if len(lib.Materials) == 0 {
		core.LogWarn("Material library contains no materials.")
	}
	return lib.Materials, nil
}

func applyMaterialDefaults(m *metadata.MaterialConfig) {
	if m.DiffuseAlbedo == [4]float32{} {
		m.DiffuseAlbedo = [4]float32{1, 1, 1, 1}
	}
	if m.TexScale == [2]float32{} {
		m.TexScale = [2]float32{1, 1}
	}
}

func validateMaterial(material *metadata.MaterialConfig) error {
	if material.Name == "" {
		return errors.New("material name is required")
	}
	for _, v := range material.DiffuseAlbedo {
		if !inRange(v) {
			return errors.Newf("material %q: diffuse_albedo values must be between 0.0 and 1.0", material.Name)
		}
	}
	for _, v := range material.FresnelR0 {
		if !inRange(v) {
			return errors.Newf("material %q: fresnel_r0 values must be between 0.0 and 1.0", material.Name)
		}
	}
	if !inRange(material.Roughness) {
		return errors.Newf("material %q: roughness must be between 0.0 and 1.0", material.Name)
	}
	if material.TexScale[0] <= 0 || material.TexScale[1] <= 0 {
		return errors.Newf("material %q: tex_scale must be positive", material.Name)
	}
	return nil
}

// Check if a float32 value is within [0.0, 1.0]
func inRange(value float32) bool {
	return value >= 0.0 && value <= 1.0
}

func (ml *MaterialLoader) Unload(asset *metadata.Asset) error {
	if asset == nil {
		return errors.New("material loader asked to unload a nil asset")
	}
	asset.Data = nil
	asset.DataSize = 0
	return nil
}
