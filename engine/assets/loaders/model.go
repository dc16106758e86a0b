package loaders

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/citadel/engine/math"
	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

// ModelLoader reads the plain text model format:
//
//	VertexCount: 3
//	TriangleCount: 1
//	VertexList (pos, normal)
//	{
//		px py pz nx ny nz
//		...
//	}
//	TriangleList
//	{
//		i0 i1 i2
//		...
//	}
type ModelLoader struct{}

func (ml *ModelLoader) Load(path string) (*metadata.Asset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open model %s", path)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	config, err := ParseModel(name, file)
	if err != nil {
		return nil, errors.Wrapf(err, "parse model %s", path)
	}
	return &metadata.Asset{
		Name:     name,
		FullPath: path,
		Type:     metadata.AssetTypeModel,
		DataSize: uint64(info.Size()),
		Data:     config,
	}, nil
}

type tokenReader struct {
	scanner *bufio.Scanner
}

func (tr *tokenReader) next() (string, error) {
	if !tr.scanner.Scan() {
		if err := tr.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return tr.scanner.Text(), nil
}

func (tr *tokenReader) count(key string) (int, error) {
	tok, err := tr.next()
	if err != nil {
		return 0, err
	}
	if tok != key {
		return 0, errors.Newf("expected %q, got %q", key, tok)
	}
	tok, err = tr.next()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return 0, errors.Newf("invalid %s %q", strings.TrimSuffix(key, ":"), tok)
	}
	return n, nil
}

// skipTo consumes tokens up to and including the given one.
func (tr *tokenReader) skipTo(token string) error {
	for {
		tok, err := tr.next()
		if err != nil {
			return errors.Wrapf(err, "looking for %q", token)
		}
		if tok == token {
			return nil
		}
	}
}

func (tr *tokenReader) float() (float32, error) {
	tok, err := tr.next()
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(tok, 32)
	if err != nil {
		return 0, errors.Newf("invalid number %q", tok)
	}
	return float32(f), nil
}

func (tr *tokenReader) vec3() (v [3]float32, err error) {
	for i := range v {
		if v[i], err = tr.float(); err != nil {
			return v, err
		}
	}
	return v, nil
}

// ParseModel reads a model in the text format into a single geometry config.
func ParseModel(name string, r io.Reader) (*metadata.GeometryConfig, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	tr := &tokenReader{scanner: scanner}

	vcount, err := tr.count("VertexCount:")
	if err != nil {
		return nil, err
	}
	tcount, err := tr.count("TriangleCount:")
	if err != nil {
		return nil, err
	}

	if err := tr.skipTo("{"); err != nil {
		return nil, err
	}
	vertices := make([]math.Vertex3D, vcount)
	for i := range vertices {
		p, err := tr.vec3()
		if err != nil {
			return nil, errors.Wrapf(err, "vertex %d position", i)
		}
		n, err := tr.vec3()
		if err != nil {
			return nil, errors.Wrapf(err, "vertex %d normal", i)
		}
		vertices[i].Position = p
		vertices[i].Normal = n
	}
	if tok, err := tr.next(); err != nil || tok != "}" {
		return nil, errors.Newf("vertex list holds more than %d vertices", vcount)
	}

	if err := tr.skipTo("{"); err != nil {
		return nil, err
	}
	indices := make([]uint32, 3*tcount)
	for i := range indices {
		tok, err := tr.next()
		if err != nil {
			return nil, errors.Wrapf(err, "triangle %d", i/3)
		}
		idx, err := strconv.ParseUint(tok, 10, 32)
		if err != nil {
			return nil, errors.Newf("triangle %d: invalid index %q", i/3, tok)
		}
		if int(idx) >= vcount {
			return nil, errors.Newf("triangle %d: index %d out of range (%d vertices)", i/3, idx, vcount)
		}
		indices[i] = uint32(idx)
	}

	return &metadata.GeometryConfig{
		Name:     name,
		Vertices: vertices,
		Indices:  indices,
	}, nil
}

func (ml *ModelLoader) Unload(asset *metadata.Asset) error {
	if asset == nil {
		return errors.New("model loader asked to unload a nil asset")
	}
	asset.Data = nil
	asset.DataSize = 0
	return nil
}
