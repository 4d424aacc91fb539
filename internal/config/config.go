package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"illiterate/internal/wrapper"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "illiterate.yaml"

type WrapperConfig struct {
	Functions []string `yaml:"functions"` // scaffold function names, default ["body"]
	Opener    string   `yaml:"opener"`    // custom opener regexp, overrides Functions
	Closer    string   `yaml:"closer"`    // custom closer regexp
}

type CacheConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	MemoryEntries int    `yaml:"memory_entries"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

type Config struct {
	Language     string        `yaml:"language"`
	Qualifier    string        `yaml:"qualifier"`
	Wrapper      WrapperConfig `yaml:"wrapper"`
	StrictSyntax bool          `yaml:"strict_syntax"`
	FailOnError  bool          `yaml:"fail_on_error"`
	Extensions   []string      `yaml:"extensions"`
	Exclude      []string      `yaml:"exclude"`
	Workers      int           `yaml:"workers"` // 0 means one per CPU
	Cache        CacheConfig   `yaml:"cache"`
	Log          LogConfig     `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Language:     "rust",
		Qualifier:    "ignore",
		Wrapper:      WrapperConfig{Functions: append([]string(nil), wrapper.DefaultFunctions...)},
		StrictSyntax: true,
		FailOnError:  true,
		Extensions:   []string{".rs"},
		Exclude:      []string{"target/**"},
		Cache: CacheConfig{
			Enabled:       true,
			Path:          ".illiterate/cache.db",
			MemoryEntries: 256,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// LoadConfig reads path on top of the defaults. A missing file is not an
// error. Environment variables (and a .env file) override file values.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	// 3. Override with Environment Variables if present
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ILLITERATE_LANGUAGE"); v != "" {
		c.Language = v
	}
	if v, ok := os.LookupEnv("ILLITERATE_QUALIFIER"); ok {
		c.Qualifier = v
	}
	if v := os.Getenv("ILLITERATE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("ILLITERATE_CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
	if v := os.Getenv("ILLITERATE_STRICT_SYNTAX"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.StrictSyntax = b
		}
	}
}

// Validate reports configuration values that cannot work.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Language) == "" {
		return errors.New("config: language must not be empty")
	}
	if (c.Wrapper.Opener == "") != (c.Wrapper.Closer == "") {
		return errors.New("config: wrapper opener and closer must be set together")
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must be >= 0, got %d", c.Workers)
	}
	if c.Cache.MemoryEntries < 0 {
		return fmt.Errorf("config: cache.memory_entries must be >= 0, got %d", c.Cache.MemoryEntries)
	}
	if _, err := c.Matcher(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Matcher builds the wrapper matcher described by the config.
func (c *Config) Matcher() (wrapper.Matcher, error) {
	if c.Wrapper.Opener != "" {
		return wrapper.NewPatternMatcher(c.Wrapper.Opener, c.Wrapper.Closer)
	}
	return wrapper.NewMatcher(c.Language, c.Wrapper.Functions)
}

// HasExtension reports whether path has one of the configured extensions.
func (c *Config) HasExtension(path string) bool {
	for _, ext := range c.Extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
