package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/objbake/pkg/mesh"
	"github.com/Faultbox/objbake/pkg/vertex"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test buffer defaults
	if cfg.Buffers.VertexCapacity != 1<<20 {
		t.Errorf("expected vertex capacity 1 MiB, got %d", cfg.Buffers.VertexCapacity)
	}
	if cfg.Buffers.IndexCapacity != 1<<16 {
		t.Errorf("expected index capacity 64 KiB, got %d", cfg.Buffers.IndexCapacity)
	}
	if cfg.Buffers.QuietGrowth {
		t.Error("expected growth warnings by default")
	}

	// Test loader defaults
	if cfg.Loader.Schema != "pos_tex_norm" {
		t.Errorf("expected schema pos_tex_norm, got %s", cfg.Loader.Schema)
	}
	if topo, err := cfg.Topology(); err != nil || topo != mesh.Triangles {
		t.Errorf("expected triangles, got %v (%v)", topo, err)
	}
	if cfg.Batch.Workers != 0 {
		t.Errorf("expected 0 workers, got %d", cfg.Batch.Workers)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "objbake.yaml")

	yamlContent := `
buffers:
  vertex_capacity: 4096
  index_capacity: 512
  quiet_growth: true

loader:
  schema: "lit"
  topology: "lines"
  reject_non_finite_tangents: true

batch:
  workers: 3

logging:
  level: "debug"
  log_file: "bake.log"

schemas:
  lit:
    - {type: position, repr: float, count: 3}
    - {type: normal, repr: float, count: 3}
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Load config
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify values were loaded
	if cfg.Buffers.VertexCapacity != 4096 {
		t.Errorf("expected vertex capacity 4096, got %d", cfg.Buffers.VertexCapacity)
	}
	if cfg.Buffers.IndexCapacity != 512 {
		t.Errorf("expected index capacity 512, got %d", cfg.Buffers.IndexCapacity)
	}
	if !cfg.Buffers.QuietGrowth {
		t.Error("expected quiet_growth to be true")
	}
	if topo, _ := cfg.Topology(); topo != mesh.Lines {
		t.Errorf("expected lines, got %v", topo)
	}
	if !cfg.Loader.RejectNonFiniteTangents {
		t.Error("expected reject_non_finite_tangents to be true")
	}
	if cfg.Loader.OutputDir != "out" {
		t.Errorf("expected default output dir to survive, got %s", cfg.Loader.OutputDir)
	}
	if cfg.Batch.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Batch.Workers)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}

	f, err := cfg.Format(cfg.Loader.Schema)
	if err != nil {
		t.Fatalf("failed to resolve schema: %v", err)
	}
	if f.Stride() != 24 {
		t.Errorf("expected stride 24, got %d", f.Stride())
	}
}

func TestLoadFromFileTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "objbake.toml")

	tomlContent := `
[loader]
schema = "flat"

[batch]
workers = 2

[[schemas.flat]]
type = "pos"
repr = "double"
count = 2
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Batch.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Batch.Workers)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level to survive, got %s", cfg.Logging.Level)
	}
	f, err := cfg.Format("flat")
	if err != nil {
		t.Fatalf("failed to resolve schema: %v", err)
	}
	if f.Stride() != 16 {
		t.Errorf("expected stride 16, got %d", f.Stride())
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()

	files := map[string]string{
		"invalid.yaml": "buffers:\n  vertex_capacity: not a number\n  invalid syntax here\n",
		"invalid.toml": "[buffers\nvertex_capacity = \"x\"\n",
	}

	for name, content := range files {
		configPath := filepath.Join(tmpDir, name)
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg := Default()
		if err := loadFromFile(cfg, configPath); err == nil {
			t.Errorf("%s: expected error, got nil", name)
		}
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/objbake.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	// No config file exists - should return empty
	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "objbake.toml")
	if err := os.WriteFile(configPath, []byte("[batch]\nworkers = 1\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path != "./objbake.toml" {
		t.Errorf("expected ./objbake.toml, got %q", path)
	}

	// YAML in the working directory wins
	if err := os.WriteFile(filepath.Join(tmpDir, "objbake.yaml"), []byte("batch:\n  workers: 1\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path != "./objbake.yaml" {
		t.Errorf("expected ./objbake.yaml, got %q", path)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "schema and topology flags",
			args: []string{"-schema", "pos_norm", "-topology", "lines"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Loader.Schema != "pos_norm" {
					t.Errorf("expected schema pos_norm, got %s", cfg.Loader.Schema)
				}
				if cfg.Loader.Topology != "lines" {
					t.Errorf("expected topology lines, got %s", cfg.Loader.Topology)
				}
			},
		},
		{
			name: "workers and out flags",
			args: []string{"-workers", "8", "-out", "/tmp/meshes"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Batch.Workers != 8 {
					t.Errorf("expected 8 workers, got %d", cfg.Batch.Workers)
				}
				if cfg.Loader.OutputDir != "/tmp/meshes" {
					t.Errorf("expected output dir /tmp/meshes, got %s", cfg.Loader.OutputDir)
				}
			},
		},
		{
			name: "quiet flag",
			args: []string{"-quiet"},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Buffers.QuietGrowth {
					t.Error("expected quiet growth")
				}
			},
		},
		{
			name: "no flags",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Loader.Schema != "pos_tex_norm" || cfg.Batch.Workers != 0 {
					t.Errorf("expected defaults, got %+v", cfg.Loader)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			flags := BindFlags(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("failed to parse flags: %v", err)
			}

			cfg := Default()
			flags.apply(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "objbake.yaml")

	yamlContent := `
loader:
  schema: pos_norm
  topology: lines
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags := BindFlags(fs)
	if err := fs.Parse([]string{"-config", configPath, "-schema", "pos"}); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Schema should be from flag, not file
	if cfg.Loader.Schema != "pos" {
		t.Errorf("expected schema pos from flag, got %s", cfg.Loader.Schema)
	}

	// Topology should be from file since no flag override
	if cfg.Loader.Topology != "lines" {
		t.Errorf("expected topology lines from file, got %s", cfg.Loader.Topology)
	}
}

func TestFormat(t *testing.T) {
	cfg := Default()
	cfg.Schemas = map[string][]AttributeConfig{
		"pos": {{Type: "position", Repr: "int", Count: 3}},
		"bad": {{Type: "position", Repr: "float", Count: 0}},
		"odd": {{Type: "weight", Repr: "float", Count: 1}},
	}

	f, err := cfg.Format("pos")
	if err != nil {
		t.Fatalf("failed to resolve schema: %v", err)
	}
	if f.Attribute(0) != vertex.PositionInt {
		t.Errorf("user schema should shadow preset, got %v", f.Attribute(0))
	}

	if f, err := cfg.Format("pos_tex_norm"); err != nil || f != vertex.PosTexNorm {
		t.Errorf("expected preset pos_tex_norm, got %v (%v)", f, err)
	}

	for _, name := range []string{"bad", "odd"} {
		if _, err := cfg.Format(name); !errors.Is(err, vertex.ErrSchema) {
			t.Errorf("%s: expected ErrSchema, got %v", name, err)
		}
	}

	if _, err := cfg.Format("missing"); err == nil {
		t.Error("expected error for unknown schema")
	}

	names := cfg.SchemaNames()
	if len(names) != 3 || names[0] != "bad" || names[2] != "pos" {
		t.Errorf("unexpected schema names %v", names)
	}
}

func TestSaveTo(t *testing.T) {
	tmpDir := t.TempDir()

	for _, name := range []string{"saved.yaml", "nested/saved.toml"} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Batch.Workers = 5
			cfg.Schemas = map[string][]AttributeConfig{
				"lit": {{Type: "position", Repr: "float", Count: 3}, {Type: "normal", Repr: "float", Count: 3}},
			}

			path := filepath.Join(tmpDir, name)
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("failed to save config: %v", err)
			}

			loaded := Default()
			if err := loadFromFile(loaded, path); err != nil {
				t.Fatalf("failed to reload config: %v", err)
			}
			if loaded.Batch.Workers != 5 {
				t.Errorf("expected 5 workers, got %d", loaded.Batch.Workers)
			}
			if len(loaded.Schemas["lit"]) != 2 || loaded.Schemas["lit"][1].Type != "normal" {
				t.Errorf("schemas not saved: %+v", loaded.Schemas)
			}
		})
	}
}
