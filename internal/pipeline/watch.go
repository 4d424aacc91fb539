package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher rebuilds individual source files as they change.
type Watcher struct {
	builder *Builder
	opts    BuildOptions
	watcher *fsnotify.Watcher

	// OnBuild is called after every rebuild.
	OnBuild func(rel string, report *Report, err error)
}

// NewWatcher watches every directory under opts.SrcDir that the builder's
// crawler does not exclude.
func NewWatcher(b *Builder, opts BuildOptions) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w := &Watcher{builder: b, opts: opts, watcher: fw}
	if err := w.addTree(opts.SrcDir); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, err := filepath.Rel(w.opts.SrcDir, path); err == nil && rel != "." && w.builder.Crawler.Excluded(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// Run handles file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	logger := w.builder.Runner.Logger
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if isDir(event.Name) {
					if err := w.addTree(event.Name); err != nil {
						logger.Warn().Err(err).Str("dir", event.Name).Msg("failed to watch new directory")
					}
					continue
				}
			}
			rel, err := filepath.Rel(w.opts.SrcDir, event.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if !w.builder.Crawler.Match(rel) {
				continue
			}

			opts := w.opts
			opts.Paths = []string{rel}
			opts.Since = ""
			report, err := w.builder.Build(ctx, opts)
			if w.OnBuild != nil {
				w.OnBuild(rel, report, err)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
