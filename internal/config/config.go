// Package config handles objbake configuration loading and management.
package config

import (
	"fmt"
	"sort"

	"github.com/Faultbox/objbake/pkg/mesh"
	"github.com/Faultbox/objbake/pkg/vertex"
)

// Config holds all objbake settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Buffers BuffersConfig `yaml:"buffers" toml:"buffers"`
	Loader  LoaderConfig  `yaml:"loader" toml:"loader"`
	Batch   BatchConfig   `yaml:"batch" toml:"batch"`

	// Schemas declares vertex formats by name, in addition to the presets.
	Schemas map[string][]AttributeConfig `yaml:"schemas,omitempty" toml:"schemas,omitempty"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// BuffersConfig sizes the encoding buffers of one session.
type BuffersConfig struct {
	VertexCapacity int  `yaml:"vertex_capacity" toml:"vertex_capacity"` // bytes
	IndexCapacity  int  `yaml:"index_capacity" toml:"index_capacity"`   // bytes
	QuietGrowth    bool `yaml:"quiet_growth" toml:"quiet_growth"`
}

// LoaderConfig holds model loading settings.
type LoaderConfig struct {
	Schema                  string `yaml:"schema" toml:"schema"`
	Topology                string `yaml:"topology" toml:"topology"`
	RejectNonFiniteTangents bool   `yaml:"reject_non_finite_tangents" toml:"reject_non_finite_tangents"`
	OutputDir               string `yaml:"output_dir" toml:"output_dir"`
}

// BatchConfig holds batch encoding settings.
type BatchConfig struct {
	Workers int `yaml:"workers" toml:"workers"` // 0 = one per CPU
}

// AttributeConfig declares one attribute of a user schema.
type AttributeConfig struct {
	Type  string `yaml:"type" toml:"type"`
	Repr  string `yaml:"repr" toml:"repr"`
	Count int    `yaml:"count" toml:"count"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Buffers: BuffersConfig{
			VertexCapacity: mesh.DefaultVertexCapacity,
			IndexCapacity:  mesh.DefaultIndexCapacity,
		},
		Loader: LoaderConfig{
			Schema:    "pos_tex_norm",
			Topology:  "triangles",
			OutputDir: "out",
		},
	}
}

// BufferOptions converts the buffer settings for mesh.NewBuffers.
func (c *Config) BufferOptions() mesh.BufferOptions {
	return mesh.BufferOptions{
		VertexCapacity: c.Buffers.VertexCapacity,
		IndexCapacity:  c.Buffers.IndexCapacity,
		QuietGrowth:    c.Buffers.QuietGrowth,
	}
}

// Topology returns the configured primitive topology.
func (c *Config) Topology() (mesh.Topology, error) {
	return mesh.ParseTopology(c.Loader.Topology)
}

// Format resolves a schema name. Schemas declared in the config shadow
// presets of the same name.
func (c *Config) Format(name string) (*vertex.Format, error) {
	if attrs, ok := c.Schemas[name]; ok {
		return buildFormat(attrs)
	}
	if f, ok := vertex.Lookup(name); ok {
		return f, nil
	}
	return nil, fmt.Errorf("unknown schema %q", name)
}

// SchemaNames returns the user schema names in sorted order.
func (c *Config) SchemaNames() []string {
	names := make([]string, 0, len(c.Schemas))
	for name := range c.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func buildFormat(attrs []AttributeConfig) (*vertex.Format, error) {
	out := make([]vertex.Attribute, len(attrs))
	for i, a := range attrs {
		t, err := vertex.ParseType(a.Type)
		if err != nil {
			return nil, fmt.Errorf("attribute %d: %w", i, err)
		}
		r, err := vertex.ParseRepr(a.Repr)
		if err != nil {
			return nil, fmt.Errorf("attribute %d: %w", i, err)
		}
		out[i] = vertex.Attribute{Type: t, Repr: r, Count: a.Count}
	}
	return vertex.NewFormat(out...)
}
