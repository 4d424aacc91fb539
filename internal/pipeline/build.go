package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"illiterate/internal/crawler"
	"illiterate/internal/diag"
	"illiterate/internal/git"
)

// BuildOptions describes one standalone build.
type BuildOptions struct {
	SrcDir      string // directory holding chapter sources
	OutDir      string // generated Markdown goes here, mirroring SrcDir
	Since       string // optional git ref; only changed files are built
	Paths       []string
	ReportPath  string // optional report.json location
	FailOnError bool   // write nothing when any file fails
}

// Builder converts a source tree into a tree of Markdown files.
type Builder struct {
	Runner  *Runner
	Crawler *crawler.Crawler
}

func NewBuilder(runner *Runner, c *crawler.Crawler) *Builder {
	return &Builder{Runner: runner, Crawler: c}
}

// OutputPath maps a source path relative to SrcDir to its Markdown path.
func OutputPath(rel string) string {
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, path.Ext(rel)) + ".md"
}

// Build runs discovery, conversion and writing, and returns the run report.
// The returned error joins every per-file failure.
func (b *Builder) Build(ctx context.Context, opts BuildOptions) (*Report, error) {
	report := NewReport("build", opts.SrcDir, opts.OutDir)
	if opts.Since != "" {
		report.Mode = "incremental"
	}
	logger := b.Runner.Logger

	// 1. Discover
	files, err := b.discoverStage(ctx, report, opts)
	if err != nil {
		b.saveReport(report, opts)
		return report, err
	}
	if len(files) == 0 {
		logger.Info().Str("src", opts.SrcDir).Msg("no source files to build")
		b.saveReport(report, opts)
		return report, nil
	}

	// 2. Read
	jobs, readErr := b.readStage(report, opts, files)

	// 3. Convert
	h := report.BeginStage("convert")
	results, convErr := b.Runner.Run(ctx, jobs)
	cached := 0
	for _, res := range results {
		if res.Cached {
			cached++
		}
	}
	report.EndStage(h, "", map[string]float64{
		"files":  float64(len(results)),
		"cached": float64(cached),
	}, nil, convErr)

	runErr := errors.Join(readErr, convErr)

	// 4. Write
	if runErr != nil && opts.FailOnError {
		for _, res := range results {
			report.AddResult(res, "")
			b.signalFailure(report, res)
		}
		report.AddSignal("output_skipped", "write", "critical", "conversion failed; no files written", "")
		b.saveReport(report, opts)
		return report, runErr
	}
	writeErr := b.writeStage(report, opts, results)

	b.saveReport(report, opts)
	return report, errors.Join(runErr, writeErr)
}

func (b *Builder) discoverStage(ctx context.Context, report *Report, opts BuildOptions) ([]string, error) {
	h := report.BeginStage("discover")
	var notes []string

	var files []string
	var err error
	switch {
	case len(opts.Paths) > 0:
		for _, p := range opts.Paths {
			if b.Crawler.Match(p) {
				files = append(files, filepath.ToSlash(p))
			}
		}
		notes = append(notes, "explicit paths")
	case opts.Since != "":
		var changes []git.ChangedFile
		changes, err = git.ChangedFiles(ctx, opts.SrcDir, opts.Since)
		if err == nil {
			for _, p := range git.ChangedPaths(changes) {
				if b.Crawler.Match(p) {
					files = append(files, p)
				}
			}
		}
		notes = append(notes, "changed since "+opts.Since)
	default:
		files, err = b.Crawler.Scan(opts.SrcDir)
	}

	report.EndStage(h, "", map[string]float64{"files": float64(len(files))}, notes, err)
	if err != nil {
		return nil, fmt.Errorf("failed to discover sources: %w", err)
	}
	return files, nil
}

func (b *Builder) readStage(report *Report, opts BuildOptions, files []string) ([]Job, error) {
	h := report.BeginStage("read")
	jobs := make([]Job, 0, len(files))
	var errs []error
	for _, rel := range files {
		data, err := os.ReadFile(filepath.Join(opts.SrcDir, filepath.FromSlash(rel)))
		if err != nil {
			err = diag.WithPath(err, rel)
			errs = append(errs, err)
			report.AddResult(Result{Path: rel, Err: err}, "")
			report.AddSignal("read_failed", "read", "critical", err.Error(), rel)
			continue
		}
		jobs = append(jobs, Job{Path: rel, Source: string(data)})
	}
	err := errors.Join(errs...)
	report.EndStage(h, "", map[string]float64{"files": float64(len(jobs))}, nil, err)
	return jobs, err
}

func (b *Builder) writeStage(report *Report, opts BuildOptions, results []Result) error {
	h := report.BeginStage("write")
	written := 0
	var errs []error
	for _, res := range results {
		if res.Err != nil {
			report.AddResult(res, "")
			b.signalFailure(report, res)
			continue
		}
		out := OutputPath(res.Path)
		target := filepath.Join(opts.OutDir, filepath.FromSlash(out))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			errs = append(errs, fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err))
			continue
		}
		if err := os.WriteFile(target, []byte(res.Output), 0644); err != nil {
			errs = append(errs, fmt.Errorf("failed to write %s: %w", target, err))
			continue
		}
		written++
		report.AddResult(res, out)
		if res.Output == "" {
			report.AddSignal("empty_output", "write", "info", "source produced an empty document", res.Path)
		}
	}
	err := errors.Join(errs...)
	report.EndStage(h, "", map[string]float64{"written": float64(written)}, nil, err)
	return err
}

func (b *Builder) signalFailure(report *Report, res Result) {
	if res.Err == nil {
		return
	}
	code := "convert_failed"
	switch {
	case errors.Is(res.Err, diag.ErrParse):
		code = "parse_error"
	case errors.Is(res.Err, diag.ErrStructural):
		code = "structural_error"
	}
	report.AddSignal(code, "convert", "critical", res.Err.Error(), res.Path)
}

func (b *Builder) saveReport(report *Report, opts BuildOptions) {
	if opts.ReportPath == "" {
		report.Finalize()
		return
	}
	if err := report.Save(opts.ReportPath); err != nil {
		b.Runner.Logger.Warn().Err(err).Str("path", opts.ReportPath).Msg("failed to save report")
	}
}
