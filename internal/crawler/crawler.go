package crawler

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Crawler scans a book source directory for chapter source files.
type Crawler struct {
	extensions []string
	exclude    []string
	ignored    []string
}

// NewCrawler creates a crawler selecting files with one of extensions and
// skipping paths matching any exclude glob (doublestar syntax, relative to root).
func NewCrawler(extensions, exclude []string) (*Crawler, error) {
	for _, pattern := range exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	return &Crawler{
		extensions: extensions,
		exclude:    exclude,
		ignored:    []string{".git", "target", "node_modules", "book"},
	}, nil
}

// Scan walks root and returns the slash-separated paths of matching files,
// relative to root, in lexical order.
func (c *Crawler) Scan(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		// Skip ignored directories
		if d.IsDir() {
			if rel == "." {
				return nil
			}
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			if c.Excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if c.Match(rel) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return files, nil
}

// Match reports whether a relative path is selected by the crawler.
func (c *Crawler) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	if !c.hasExtension(rel) {
		return false
	}
	return !c.Excluded(rel)
}

// Excluded reports whether rel matches one of the exclude globs.
func (c *Crawler) Excluded(rel string) bool {
	for _, pattern := range c.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (c *Crawler) hasExtension(rel string) bool {
	for _, ext := range c.extensions {
		if strings.HasSuffix(rel, ext) {
			return true
		}
	}
	return false
}
