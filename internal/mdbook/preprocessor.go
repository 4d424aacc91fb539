package mdbook

import (
	"context"
	"fmt"
	"io"
	"strings"

	"illiterate/internal/config"
	"illiterate/internal/pipeline"
	"illiterate/internal/storage"

	"github.com/rs/zerolog"
	"golang.org/x/mod/semver"
)

// SupportedVersion is the mdBook major.minor release the protocol types follow.
const SupportedVersion = "v0.4"

// CheckVersion reports whether an mdBook version string matches
// SupportedVersion. Malformed versions are an error.
func CheckVersion(version string) (bool, error) {
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return false, fmt.Errorf("invalid mdbook version %q", version)
	}
	return semver.MajorMinor(v) == SupportedVersion, nil
}

// Preprocessor converts the source chapters of a book in place.
type Preprocessor struct {
	Config *config.Config
	Cache  storage.Cache // optional
	Logger zerolog.Logger
}

func NewPreprocessor(cfg *config.Config, cache storage.Cache, logger zerolog.Logger) *Preprocessor {
	return &Preprocessor{Config: cfg, Cache: cache, Logger: logger}
}

// Supports reports whether the preprocessor can run for a renderer. Every
// renderer is supported.
func (p *Preprocessor) Supports(renderer string) bool {
	return true
}

// Run reads [context, book] from r, converts every source chapter and writes
// the book to w. With fail-on-error set, any failing chapter aborts the run
// and nothing is written.
func (p *Preprocessor) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	// 1. Parse input
	bookCtx, book, err := ParseInput(r)
	if err != nil {
		return err
	}

	ok, err := CheckVersion(bookCtx.MdbookVersion)
	if err != nil {
		return err
	}
	if !ok {
		p.Logger.Warn().
			Str("mdbook_version", bookCtx.MdbookVersion).
			Str("supported", SupportedVersion).
			Msg("mdbook version doesn't match preprocessor version")
	}

	// 2. Layer book.toml options over the config
	opts, err := OptionsFromContext(bookCtx)
	if err != nil {
		return err
	}
	cfg, err := opts.Apply(p.Config)
	if err != nil {
		return err
	}

	engine, err := pipeline.NewEngine(cfg)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(engine, p.Cache, cfg.Workers, p.Logger)

	// 3. Convert source chapters
	var chapters []*Chapter
	var jobs []pipeline.Job
	book.ForEachChapter(func(ch *Chapter) {
		if ch.Path == nil || !cfg.HasExtension(*ch.Path) {
			return
		}
		chapters = append(chapters, ch)
		jobs = append(jobs, pipeline.Job{Path: *ch.Path, Source: ch.Content})
	})
	p.Logger.Debug().Int("chapters", len(jobs)).Str("renderer", bookCtx.Renderer).Msg("converting chapters")

	results, runErr := runner.Run(ctx, jobs)
	if runErr != nil && cfg.FailOnError {
		return runErr
	}
	for i, res := range results {
		if res.Err != nil {
			p.Logger.Warn().Str("path", res.Path).Msg("leaving chapter unconverted")
			continue
		}
		chapters[i].Content = res.Output
	}

	// 4. Emit book
	return WriteBook(w, book)
}
