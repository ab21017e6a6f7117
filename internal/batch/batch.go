// Package batch encodes many models concurrently.
//
// Each worker owns one mesh.Buffers pair for its whole life, so buffers are
// reused across the worker's jobs and never shared between workers.
package batch

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/objbake/pkg/mesh"
	"github.com/Faultbox/objbake/pkg/obj"
	"github.com/Faultbox/objbake/pkg/vertex"
)

// Job is one model to encode.
type Job struct {
	Path string
	Name string // output name, defaults to the file name without extension
}

// JobFor returns a job for path with the default name.
func JobFor(path string) Job {
	return Job{Path: path, Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}
}

// Sink receives each encoded mesh. The mesh is released after the sink
// returns, so the sink must copy anything it keeps. Sinks are called from
// several goroutines at once.
type Sink func(ctx context.Context, job Job, m *mesh.Mesh) error

// Options controls Run.
type Options struct {
	Workers int // 0 = one per CPU
	Format  *vertex.Format
	Load    obj.LoadOptions // Buffers is ignored, each worker has its own
	Buffers mesh.BufferOptions
	Sink    Sink
}

// Stats summarizes a run.
type Stats struct {
	Meshes   int64
	Vertices int64
	Indices  int64
}

// Run encodes jobs with a pool of workers. The first failure cancels the
// remaining work and is returned wrapped with the job path.
func Run(ctx context.Context, jobs []Job, opts Options) (Stats, error) {
	if err := obj.CheckFormat(opts.Format); err != nil {
		return Stats{}, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = max(min(workers, len(jobs)), 1)

	log := zap.L().Named("batch")
	log.Info("batch started", zap.Int("jobs", len(jobs)), zap.Int("workers", workers))

	var meshes, vertices, indices atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	queue := make(chan Job)

	g.Go(func() error {
		defer close(queue)
		for _, job := range jobs {
			select {
			case queue <- job:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			bufs := mesh.NewBuffers(opts.Buffers)
			defer bufs.Release()

			loadOpts := opts.Load
			loadOpts.Buffers = bufs

			for job := range queue {
				if err := ctx.Err(); err != nil {
					return err
				}

				m, err := obj.LoadFile(job.Path, opts.Format, loadOpts)
				if err != nil {
					return err
				}

				meshes.Add(1)
				vertices.Add(int64(m.VertexCount()))
				indices.Add(int64(m.IndexCount()))

				if opts.Sink != nil {
					err = opts.Sink(ctx, job, m)
				}
				m.Release()
				if err != nil {
					return errors.Wrapf(err, "job %s", job.Path)
				}

				log.Debug("job done", zap.Int("worker", w), zap.String("path", job.Path))
			}
			return nil
		})
	}

	err := g.Wait()
	stats := Stats{Meshes: meshes.Load(), Vertices: vertices.Load(), Indices: indices.Load()}
	if err != nil {
		log.Error("batch failed", zap.Error(err), zap.Int64("meshes", stats.Meshes))
		return stats, err
	}

	log.Info("batch finished",
		zap.Int64("meshes", stats.Meshes),
		zap.Int64("vertices", stats.Vertices),
		zap.Int64("indices", stats.Indices))
	return stats, nil
}
