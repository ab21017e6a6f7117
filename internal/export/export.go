// Package export writes encoded meshes to disk as raw buffers plus a YAML
// manifest describing their layout.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/objbake/pkg/mesh"
	"github.com/Faultbox/objbake/pkg/vertex"
)

// File extensions.
const (
	VertexExt   = ".vbuf"
	IndexExt    = ".ibuf"
	ManifestExt = ".yaml"
)

// Manifest describes an exported mesh.
type Manifest struct {
	ID          string          `yaml:"id"`
	Schema      string          `yaml:"schema,omitempty"`
	Topology    string          `yaml:"topology"`
	ByteOrder   string          `yaml:"byte_order"`
	Stride      int             `yaml:"stride"`
	VertexCount int             `yaml:"vertex_count"`
	IndexCount  int             `yaml:"index_count"`
	VertexFile  string          `yaml:"vertex_file"`
	IndexFile   string          `yaml:"index_file,omitempty"`
	Attributes  []AttributeInfo `yaml:"attributes"`
}

// AttributeInfo is one attribute entry of a manifest.
type AttributeInfo struct {
	Type   string `yaml:"type"`
	Repr   string `yaml:"repr"`
	Count  int    `yaml:"count"`
	Offset int    `yaml:"offset"`
}

// NewManifest describes m. File names are derived from name.
func NewManifest(name string, m *mesh.Mesh, schemaName string) *Manifest {
	f := m.Format()
	man := &Manifest{
		ID:          m.ID().String(),
		Schema:      schemaName,
		Topology:    m.Topology().String(),
		ByteOrder:   "little",
		Stride:      f.Stride(),
		VertexCount: m.VertexCount(),
		IndexCount:  m.IndexCount(),
		VertexFile:  name + VertexExt,
		Attributes:  make([]AttributeInfo, f.Len()),
	}
	if m.Indexed() {
		man.IndexFile = name + IndexExt
	}
	for i := range man.Attributes {
		a := f.Attribute(i)
		man.Attributes[i] = AttributeInfo{
			Type:   a.Type.String(),
			Repr:   a.Repr.String(),
			Count:  a.Count,
			Offset: f.Offset(i),
		}
	}
	return man
}

// Format rebuilds the vertex format the manifest describes.
func (m *Manifest) Format() (*vertex.Format, error) {
	attrs := make([]vertex.Attribute, len(m.Attributes))
	for i, a := range m.Attributes {
		t, err := vertex.ParseType(a.Type)
		if err != nil {
			return nil, err
		}
		r, err := vertex.ParseRepr(a.Repr)
		if err != nil {
			return nil, err
		}
		attrs[i] = vertex.Attribute{Type: t, Repr: r, Count: a.Count}
	}
	f, err := vertex.NewFormat(attrs...)
	if err != nil {
		return nil, err
	}
	if f.Stride() != m.Stride {
		return nil, fmt.Errorf("manifest stride %d does not match attributes (%d)", m.Stride, f.Stride())
	}
	return f, nil
}

// Write stores m in dir as name.vbuf, name.ibuf (indexed meshes only) and
// name.yaml. It returns the manifest path.
func Write(dir, name string, m *mesh.Mesh, schemaName string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(err, "create output directory")
	}

	man := NewManifest(name, m, schemaName)

	if err := os.WriteFile(filepath.Join(dir, man.VertexFile), m.VertexData(), 0644); err != nil {
		return "", errors.Wrap(err, "write vertex buffer")
	}
	if man.IndexFile != "" {
		if err := os.WriteFile(filepath.Join(dir, man.IndexFile), m.IndexData(), 0644); err != nil {
			return "", errors.Wrap(err, "write index buffer")
		}
	}

	data, err := yaml.Marshal(man)
	if err != nil {
		return "", errors.Wrap(err, "encode manifest")
	}
	path := filepath.Join(dir, name+ManifestExt)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", errors.Wrap(err, "write manifest")
	}

	zap.L().Debug("mesh exported",
		zap.String("manifest", path),
		zap.Int("vertex_bytes", len(m.VertexData())),
		zap.Int("index_bytes", len(m.IndexData())))

	return path, nil
}

// ReadManifest reads a manifest written by Write.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read manifest")
	}
	var man Manifest
	if err := yaml.Unmarshal(data, &man); err != nil {
		return nil, errors.Wrapf(err, "decode manifest %s", path)
	}
	return &man, nil
}

// ReadBuffers reads the buffers a manifest at path refers to and checks
// their sizes. indices is nil for meshes without an index buffer.
func ReadBuffers(path string) (man *Manifest, vertices, indices []byte, err error) {
	man, err = ReadManifest(path)
	if err != nil {
		return nil, nil, nil, err
	}
	dir := filepath.Dir(path)

	vertices, err = os.ReadFile(filepath.Join(dir, man.VertexFile))
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "read vertex buffer")
	}
	if want := man.Stride * man.VertexCount; len(vertices) != want {
		return nil, nil, nil, fmt.Errorf("vertex buffer has %d bytes, manifest expects %d", len(vertices), want)
	}

	if man.IndexFile != "" {
		indices, err = os.ReadFile(filepath.Join(dir, man.IndexFile))
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, "read index buffer")
		}
		if want := man.IndexCount * mesh.IndexSize; len(indices) != want {
			return nil, nil, nil, fmt.Errorf("index buffer has %d bytes, manifest expects %d", len(indices), want)
		}
	}
	return man, vertices, indices, nil
}
