// Package pipeline runs batches of conversions on a bounded worker pool and
// drives the standalone book build.
package pipeline

import (
	"context"
	"errors"
	"runtime"
	"time"

	"illiterate/internal/convert"
	"illiterate/internal/storage"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Job is one source file to convert.
type Job struct {
	Path   string
	Source string
}

// Result is the outcome of one job. Output is empty when Err is set.
type Result struct {
	Path     string
	Output   string
	Err      error
	Cached   bool
	Duration time.Duration
}

// Runner converts jobs concurrently. Cache is optional.
type Runner struct {
	Engine  *convert.Engine
	Cache   storage.Cache
	Workers int // 0 means one per CPU
	Logger  zerolog.Logger
}

func NewRunner(engine *convert.Engine, cache storage.Cache, workers int, logger zerolog.Logger) *Runner {
	return &Runner{Engine: engine, Cache: cache, Workers: workers, Logger: logger}
}

// Run converts every job and returns results in job order. A failing file
// does not stop the others; the returned error joins every file error.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Path: job.Path, Err: err}
				return nil
			}
			results[i] = r.convert(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return results, errors.Join(errs...)
}

func (r *Runner) convert(ctx context.Context, job Job) Result {
	started := time.Now()
	res := Result{Path: job.Path}

	// 1. Cache lookup
	var key string
	if r.Cache != nil {
		key = storage.Key(r.Engine.Fingerprint(), job.Source)
		entry, ok, err := r.Cache.Get(ctx, key)
		if err != nil {
			r.Logger.Warn().Err(err).Str("path", job.Path).Msg("cache lookup failed")
		} else if ok {
			res.Output = entry.Output
			res.Cached = true
			res.Duration = time.Since(started)
			r.Logger.Debug().Str("path", job.Path).Msg("cache hit")
			return res
		}
	}

	// 2. Convert
	out, err := r.Engine.Convert(ctx, job.Path, job.Source)
	res.Duration = time.Since(started)
	if err != nil {
		res.Err = err
		r.Logger.Error().Err(err).Str("path", job.Path).Msg("conversion failed")
		return res
	}
	res.Output = out

	// 3. Store
	if r.Cache != nil {
		if err := r.Cache.Put(ctx, storage.Entry{Key: key, Path: job.Path, Output: out}); err != nil {
			r.Logger.Warn().Err(err).Str("path", job.Path).Msg("cache store failed")
		}
	}

	r.Logger.Debug().Str("path", job.Path).Dur("took", res.Duration).Msg("converted")
	return res
}
