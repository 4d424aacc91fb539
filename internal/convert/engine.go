// Package convert wires the conversion pipeline for one source file:
// scan, group, strip wrappers, then render prose and code blocks.
package convert

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"illiterate/internal/diag"
	"illiterate/internal/grouper"
	"illiterate/internal/render"
	"illiterate/internal/scanner"
	"illiterate/internal/stripper"
	"illiterate/internal/wrapper"
)

// Version is bumped whenever the rendered output of the engine changes.
const Version = "1"

// Validator checks a whole source file before it is converted.
type Validator interface {
	Validate(ctx context.Context, src []byte) error
}

// Options configures an Engine.
type Options struct {
	Language  string // fence language tag, e.g. "rust"
	Qualifier string // fence qualifier, e.g. "ignore"
	Matcher   wrapper.Matcher
	Validator Validator // optional
}

// Engine converts source text to Markdown. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	opts Options
}

// New creates an engine. A nil matcher falls back to the default scaffold
// function matcher.
func New(opts Options) *Engine {
	if opts.Matcher == nil {
		opts.Matcher = wrapper.NewFuncMatcher()
	}
	return &Engine{opts: opts}
}

// Fingerprint identifies every option that affects output.
func (e *Engine) Fingerprint() string {
	h := sha256.New()
	for _, part := range []string{Version, e.opts.Language, e.opts.Qualifier, e.opts.Matcher.Fingerprint()} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	if e.opts.Validator != nil {
		h.Write([]byte("strict"))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Blocks returns the document blocks of src in source order.
func (e *Engine) Blocks(ctx context.Context, src string) ([]render.Block, error) {
	// The scanner reports open literals and comments at their opening line,
	// so it runs before the coarser syntax check.
	lines, err := scanner.Scan(src, e.opts.Matcher)
	if err != nil {
		return nil, err
	}
	if e.opts.Validator != nil {
		if err := e.opts.Validator.Validate(ctx, []byte(src)); err != nil {
			return nil, err
		}
	}
	runs, err := stripper.Strip(grouper.Group(lines))
	if err != nil {
		return nil, err
	}

	blocks := make([]render.Block, 0, len(runs))
	for _, run := range runs {
		switch run.Tag {
		case scanner.Prose:
			if b, ok := render.NormalizeProse(run); ok {
				blocks = append(blocks, b)
			}
		case scanner.Code:
			if b, ok := render.EmitCode(run, e.opts.Language, e.opts.Qualifier); ok {
				blocks = append(blocks, b)
			}
		}
	}
	return blocks, nil
}

// Convert renders src as a Markdown document. Failures carry path and line;
// no partial output is returned.
func (e *Engine) Convert(ctx context.Context, path, src string) (string, error) {
	blocks, err := e.Blocks(ctx, src)
	if err != nil {
		return "", diag.WithPath(err, path)
	}
	return render.Assemble(blocks), nil
}
