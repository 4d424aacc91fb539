package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "rust", cfg.Language)
	assert.Equal(t, "ignore", cfg.Qualifier)
	assert.Equal(t, []string{"body"}, cfg.Wrapper.Functions)
	assert.True(t, cfg.StrictSyntax)
	assert.True(t, cfg.FailOnError)
	assert.True(t, cfg.HasExtension("src/chapter1.rs"))
	assert.False(t, cfg.HasExtension("src/README.md"))
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "illiterate.yaml")
	content := `
qualifier: no_run
wrapper:
  functions: [chapter]
workers: 3
cache:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("ILLITERATE_LOG_LEVEL", "debug")
	t.Setenv("ILLITERATE_STRICT_SYNTAX", "false")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "no_run", cfg.Qualifier)
	assert.Equal(t, []string{"chapter"}, cfg.Wrapper.Functions)
	assert.Equal(t, 3, cfg.Workers)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.StrictSyntax)
	// Untouched keys keep their defaults.
	assert.Equal(t, "rust", cfg.Language)

	m, err := cfg.Matcher()
	require.NoError(t, err)
	assert.True(t, m.IsOpener("fn chapter() {"))
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad yaml":       "language: [",
		"half wrapper":   "wrapper:\n  opener: '^x$'\n",
		"bad regexp":     "wrapper:\n  opener: '('\n  closer: '^}$'\n",
		"negative pool":  "workers: -1\n",
		"unknown lang":   "language: cobol\n",
		"empty language": "language: ''\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "illiterate.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}
