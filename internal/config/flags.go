package config

import "flag"

// Flags holds the command-line overrides shared by objbake commands.
type Flags struct {
	config   *string
	debug    *bool
	schema   *string
	topology *string
	workers  *int
	out      *string
	quiet    *bool
}

// BindFlags registers the shared flags on fs. Parse fs before calling Load.
func BindFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		config:   fs.String("config", "", "Path to config file (.yaml or .toml)"),
		debug:    fs.Bool("debug", false, "Enable debug logging"),
		schema:   fs.String("schema", "", "Vertex schema name"),
		topology: fs.String("topology", "", "Primitive topology: triangles or lines"),
		workers:  fs.Int("workers", 0, "Batch worker count"),
		out:      fs.String("out", "", "Output directory"),
		quiet:    fs.Bool("quiet", false, "Do not warn when encoding buffers grow"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.config
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if *f.schema != "" {
		cfg.Loader.Schema = *f.schema
	}
	if *f.topology != "" {
		cfg.Loader.Topology = *f.topology
	}
	if *f.workers > 0 {
		cfg.Batch.Workers = *f.workers
	}
	if *f.out != "" {
		cfg.Loader.OutputDir = *f.out
	}
	if *f.quiet {
		cfg.Buffers.QuietGrowth = true
	}
}
