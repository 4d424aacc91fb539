package mdbook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// BookConfig is the part of book.toml this tool reads.
type BookConfig struct {
	Book struct {
		Title string `toml:"title"`
		Src   string `toml:"src"`
	} `toml:"book"`
	Build struct {
		BuildDir string `toml:"build-dir"`
	} `toml:"build"`
	Preprocessor map[string]map[string]any `toml:"preprocessor"`
}

// LoadBook reads root/book.toml. A missing file yields mdBook's defaults.
func LoadBook(root string) (*BookConfig, error) {
	var cfg BookConfig
	data, err := os.ReadFile(filepath.Join(root, "book.toml"))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse book.toml: %w", err)
		}
	}
	if cfg.Book.Src == "" {
		cfg.Book.Src = "src"
	}
	if cfg.Build.BuildDir == "" {
		cfg.Build.BuildDir = "book"
	}
	return &cfg, nil
}

// SrcDir returns the chapter source directory under root.
func (b *BookConfig) SrcDir(root string) string {
	if filepath.IsAbs(b.Book.Src) {
		return b.Book.Src
	}
	return filepath.Join(root, b.Book.Src)
}

// Options returns the validated [preprocessor.illiterate] table.
func (b *BookConfig) Options() (Options, error) {
	table, ok := b.Preprocessor[Name]
	if !ok {
		return Options{}, nil
	}
	raw, err := json.Marshal(table)
	if err != nil {
		return Options{}, fmt.Errorf("failed to read [preprocessor.%s]: %w", Name, err)
	}
	return ParseOptions(raw)
}
