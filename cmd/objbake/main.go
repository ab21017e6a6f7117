// objbake is a CLI for encoding OBJ models into packed GPU vertex buffers.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Faultbox/objbake/internal/config"
	"github.com/Faultbox/objbake/internal/logger"
	"github.com/Faultbox/objbake/pkg/mesh"
	"github.com/Faultbox/objbake/pkg/obj"
	"github.com/Faultbox/objbake/pkg/vertex"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "bake":
		cmdBake(args)
	case "batch":
		cmdBatch(args)
	case "watch":
		cmdWatch(args)
	case "schemas":
		cmdSchemas(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`objbake - OBJ to packed vertex buffer encoder

Usage:
  objbake <command> [options]

Commands:
  info <file.obj>               Show model statistics
  bake <file.obj>...            Encode models and write buffers + manifest
  batch <dir|file.obj>...       Encode many models concurrently
  watch <dir|file.obj>...       Re-encode models when they change
  schemas                       List vertex schemas
  config                        Print the effective configuration

Options (all commands):
  -config <path>    Config file (.yaml or .toml)
  -schema <name>    Vertex schema (see 'objbake schemas')
  -topology <t>     triangles or lines
  -out <dir>        Output directory
  -workers <n>      Batch workers
  -quiet            Do not warn when encoding buffers grow
  -debug            Debug logging

Examples:
  objbake info crate.obj
  objbake bake -schema pos_tex_norm_tang_bitang -out build crate.obj
  objbake batch -workers 8 models/
  objbake config -save ~/.config/objbake/config.toml`)
}

// session is the setup shared by every command.
type session struct {
	fs       *flag.FlagSet
	cfg      *config.Config
	format   *vertex.Format
	topology mesh.Topology
}

// newSession parses args, loads config and sets up logging. extra registers
// command-specific flags before parsing.
func newSession(name string, args []string, extra func(fs *flag.FlagSet)) *session {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	flags := config.BindFlags(fs)
	if extra != nil {
		extra(fs)
	}
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fatal(err)
	}
	if err := logger.Setup(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fatal(err)
	}

	format, err := cfg.Format(cfg.Loader.Schema)
	if err != nil {
		fatal(err)
	}
	topology, err := cfg.Topology()
	if err != nil {
		fatal(err)
	}

	return &session{fs: fs, cfg: cfg, format: format, topology: topology}
}

// loadOptions returns loader options encoding into bufs.
func (s *session) loadOptions(bufs *mesh.Buffers) obj.LoadOptions {
	return obj.LoadOptions{
		Topology:                s.topology,
		Buffers:                 bufs,
		RejectNonFiniteTangents: s.cfg.Loader.RejectNonFiniteTangents,
	}
}

func fatal(err error) {
	logger.Sync()
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
