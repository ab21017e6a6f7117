package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/objbake/internal/batch"
	"github.com/Faultbox/objbake/internal/export"
	"github.com/Faultbox/objbake/internal/logger"
	"github.com/Faultbox/objbake/internal/upload"
	"github.com/Faultbox/objbake/internal/watch"
	"github.com/Faultbox/objbake/pkg/mesh"
	"github.com/Faultbox/objbake/pkg/obj"
	"github.com/Faultbox/objbake/pkg/vertex"
)

func cmdInfo(args []string) {
	s := newSession("info", args, nil)
	defer logger.Sync()

	if s.fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: objbake info [options] <file.obj>")
		os.Exit(1)
	}
	path := s.fs.Arg(0)

	f, err := os.Open(path)
	if err != nil {
		fatal(err)
	}
	defer f.Close()

	model, err := obj.Parse(f, s.topology)
	if err != nil {
		fatal(fmt.Errorf("%s: %w", path, err))
	}
	table, indices := obj.Dedup(model)

	fmt.Printf("Model:      %s\n", path)
	fmt.Printf("Topology:   %s\n", model.Topology)
	fmt.Printf("Positions:  %d\n", len(model.Positions))
	fmt.Printf("TexCoords:  %d\n", len(model.TexCoords))
	fmt.Printf("Normals:    %d\n", len(model.Normals))
	fmt.Printf("Primitives: %d\n", model.PrimitiveCount())
	fmt.Printf("Corners:    %d\n", len(model.Corners))
	fmt.Printf("Vertices:   %d unique\n", table.Len())
	fmt.Println()

	if err := obj.CheckFormat(s.format); err != nil {
		fmt.Printf("Schema %s: %v\n", s.cfg.Loader.Schema, err)
		return
	}
	fmt.Printf("Schema:     %s (%s)\n", s.cfg.Loader.Schema, s.format)
	fmt.Printf("Stride:     %d bytes\n", s.format.Stride())
	fmt.Printf("Vertex buf: %d bytes\n", s.format.Stride()*table.Len())
	fmt.Printf("Index buf:  %d bytes\n", mesh.IndexSize*len(indices))

	if s.format.Has(vertex.Tangent) && s.format.Has(vertex.Bitangent) {
		_, report := obj.SynthesizeTangents(model, table, indices)
		switch {
		case report.Fallback:
			fmt.Println("Tangents:   fallback (no texture coordinates)")
		case len(report.NonFinite) > 0:
			fmt.Printf("Tangents:   %d vertices non-finite\n", len(report.NonFinite))
		default:
			fmt.Println("Tangents:   ok")
		}
	}

	if layout, err := upload.WebGPULayout(s.format, 0); err == nil {
		fmt.Println()
		fmt.Println("WebGPU layout:")
		for _, a := range layout.Attributes {
			fmt.Printf("  @location(%d) %-10s offset %d\n", a.ShaderLocation, a.Format, a.Offset)
		}
	}
}

func cmdBake(args []string) {
	s := newSession("bake", args, nil)
	defer logger.Sync()

	if s.fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: objbake bake [options] <file.obj>...")
		os.Exit(1)
	}

	// One buffer pair serves every model in turn.
	bufs := mesh.NewBuffers(s.cfg.BufferOptions())
	defer bufs.Release()

	for _, path := range s.fs.Args() {
		manifest, err := s.bakeFile(path, bufs)
		if err != nil {
			fatal(err)
		}
		fmt.Println(manifest)
	}
}

// bakeFile encodes one model and exports it to the output directory.
func (s *session) bakeFile(path string, bufs *mesh.Buffers) (string, error) {
	m, err := obj.LoadFile(path, s.format, s.loadOptions(bufs))
	if err != nil {
		return "", err
	}
	defer m.Release()

	job := batch.JobFor(path)
	return export.Write(s.cfg.Loader.OutputDir, job.Name, m, s.cfg.Loader.Schema)
}

func cmdBatch(args []string) {
	s := newSession("batch", args, nil)
	defer logger.Sync()

	if s.fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: objbake batch [options] <dir|file.obj>...")
		os.Exit(1)
	}

	paths, err := collectModels(s.fs.Args())
	if err != nil {
		fatal(err)
	}
	jobs := make([]batch.Job, len(paths))
	for i, p := range paths {
		jobs[i] = batch.JobFor(p)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outDir := s.cfg.Loader.OutputDir
	stats, err := batch.Run(ctx, jobs, batch.Options{
		Workers: s.cfg.Batch.Workers,
		Format:  s.format,
		Load:    s.loadOptions(nil),
		Buffers: s.cfg.BufferOptions(),
		Sink: func(_ context.Context, job batch.Job, m *mesh.Mesh) error {
			_, err := export.Write(outDir, job.Name, m, s.cfg.Loader.Schema)
			return err
		},
	})
	if err != nil {
		fatal(err)
	}

	fmt.Printf("Encoded %d meshes: %d vertices, %d indices -> %s\n",
		stats.Meshes, stats.Vertices, stats.Indices, outDir)
}

func cmdWatch(args []string) {
	s := newSession("watch", args, nil)
	defer logger.Sync()

	if s.fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: objbake watch [options] <dir|file.obj>...")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bufs := mesh.NewBuffers(s.cfg.BufferOptions())
	defer bufs.Release()

	logger.Info("watching", zap.Strings("paths", s.fs.Args()), zap.String("out", s.cfg.Loader.OutputDir))

	err := watch.Watch(ctx, s.fs.Args(), func(path string) {
		manifest, err := s.bakeFile(path, bufs)
		if err != nil {
			// Keep watching: the next save may fix the model.
			logger.Error("bake failed", zap.String("path", path), zap.Error(err))
			bufs.Reset()
			return
		}
		logger.Info("baked", zap.String("manifest", manifest))
	})
	if err != nil {
		fatal(err)
	}
}

func cmdSchemas(args []string) {
	s := newSession("schemas", args, nil)
	defer logger.Sync()

	fmt.Println("Presets:")
	for _, name := range vertex.PresetNames() {
		f, _ := vertex.Lookup(name)
		printSchema(name, f)
	}

	if names := s.cfg.SchemaNames(); len(names) > 0 {
		fmt.Println()
		fmt.Println("Configured:")
		for _, name := range names {
			f, err := s.cfg.Format(name)
			if err != nil {
				fmt.Printf("  %-26s invalid: %v\n", name, err)
				continue
			}
			printSchema(name, f)
		}
	}
}

func printSchema(name string, f *vertex.Format) {
	loadable := "obj"
	if !vertex.OBJSuperset.LenientlyCompatible(f) {
		loadable = "-"
	}
	fmt.Printf("  %-26s stride %3d  %-4s %s\n", name, f.Stride(), loadable, f)
}

func cmdConfig(args []string) {
	var savePath string
	var asTOML bool
	s := newSession("config", args, func(fs *flag.FlagSet) {
		fs.StringVar(&savePath, "save", "", "Write the effective config to this path")
		fs.BoolVar(&asTOML, "toml", false, "Print as TOML")
	})
	defer logger.Sync()

	if savePath != "" {
		if err := s.cfg.SaveTo(savePath); err != nil {
			fatal(err)
		}
		fmt.Printf("Saved config to %s\n", savePath)
		return
	}

	data, err := s.cfg.Marshal(asTOML)
	if err != nil {
		fatal(err)
	}
	os.Stdout.Write(data)
}

// collectModels expands directories into the model files they contain.
func collectModels(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), watch.ModelExt) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(paths)
	return paths, nil
}
