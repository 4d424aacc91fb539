package mdbook

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"illiterate/internal/config"
	"illiterate/internal/diag"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPreprocessor() *Preprocessor {
	cfg := config.Default()
	cfg.StrictSyntax = false
	return NewPreprocessor(cfg, nil, zerolog.Nop())
}

func TestPreprocessor_Run(t *testing.T) {
	var out bytes.Buffer
	err := newTestPreprocessor().Run(context.Background(), strings.NewReader(sampleInput), &out)
	require.NoError(t, err)

	_, book, err := ParseInput(strings.NewReader(`[{}, ` + out.String() + `]`))
	require.NoError(t, err)

	intro := book.Sections[0].Chapter
	assert.Equal(t, "# Intro <b>\n", intro.Content, "markdown chapters pass through")
	assert.Equal(t, "# Chapter 1\n\n```rust,ignore\nlet x = 1;\n```\n", intro.SubItems[0].Chapter.Content)
	assert.Equal(t, "", book.Sections[3].Chapter.Content)
}

func TestPreprocessor_FailOnError(t *testing.T) {
	broken := strings.Replace(sampleInput, `// # Chapter 1\n    let x = 1;\n}\n`, `/* open\n}\n`, 1)
	require.NotEqual(t, sampleInput, broken)

	t.Run("default aborts", func(t *testing.T) {
		var out bytes.Buffer
		err := newTestPreprocessor().Run(context.Background(), strings.NewReader(broken), &out)
		require.Error(t, err)
		assert.True(t, errors.Is(err, diag.ErrParse))
		assert.Contains(t, err.Error(), "chapter1.rs")
		assert.Empty(t, out.String())
	})

	t.Run("option keeps going", func(t *testing.T) {
		lenient := strings.Replace(broken, `{"command": "mdbook-illiterate"}`, `{"command": "mdbook-illiterate", "fail-on-error": false}`, 1)
		var out bytes.Buffer
		err := newTestPreprocessor().Run(context.Background(), strings.NewReader(lenient), &out)
		require.NoError(t, err)
		assert.Contains(t, out.String(), `/* open`)
	})
}

func TestPreprocessor_InvalidOptions(t *testing.T) {
	input := strings.Replace(sampleInput, `{"command": "mdbook-illiterate"}`, `{"workers": "many"}`, 1)
	var out bytes.Buffer
	err := newTestPreprocessor().Run(context.Background(), strings.NewReader(input), &out)
	require.Error(t, err)
	assert.Empty(t, out.String())
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		version string
		ok      bool
		wantErr bool
	}{
		{"0.4.40", true, false},
		{"v0.4.0", true, false},
		{"0.5.0", false, false},
		{"1.0.0-alpha", false, false},
		{"latest", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			ok, err := CheckVersion(tt.version)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions([]byte(`{"qualifier": "no_run", "wrapper-functions": ["chapter"], "workers": 2}`))
	require.NoError(t, err)
	require.NotNil(t, opts.Qualifier)
	assert.Equal(t, "no_run", *opts.Qualifier)

	cfg, err := opts.Apply(config.Default())
	require.NoError(t, err)
	assert.Equal(t, "no_run", cfg.Qualifier)
	assert.Equal(t, []string{"chapter"}, cfg.Wrapper.Functions)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "rust", cfg.Language)

	for name, raw := range map[string]string{
		"unknown key":   `{"colour": "red"}`,
		"bad function":  `{"wrapper-functions": ["not a name"]}`,
		"negative pool": `{"workers": -1}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseOptions([]byte(raw))
			assert.Error(t, err)
		})
	}

	empty, err := ParseOptions(nil)
	require.NoError(t, err)
	assert.Nil(t, empty.Language)
}

func TestLoadBook(t *testing.T) {
	root := t.TempDir()

	t.Run("defaults", func(t *testing.T) {
		b, err := LoadBook(root)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "src"), b.SrcDir(root))
		opts, err := b.Options()
		require.NoError(t, err)
		assert.Nil(t, opts.StrictSyntax)
	})

	t.Run("book.toml", func(t *testing.T) {
		content := `
[book]
title = "Demo"
src = "chapters"

[preprocessor.illiterate]
command = "mdbook-illiterate"
strict-syntax = false
workers = 3
`
		require.NoError(t, os.WriteFile(filepath.Join(root, "book.toml"), []byte(content), 0644))
		b, err := LoadBook(root)
		require.NoError(t, err)
		assert.Equal(t, "Demo", b.Book.Title)
		assert.Equal(t, filepath.Join(root, "chapters"), b.SrcDir(root))

		opts, err := b.Options()
		require.NoError(t, err)
		require.NotNil(t, opts.StrictSyntax)
		assert.False(t, *opts.StrictSyntax)
		require.NotNil(t, opts.Workers)
		assert.Equal(t, 3, *opts.Workers)
	})
}
