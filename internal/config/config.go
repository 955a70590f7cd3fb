package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	appName   = "searchindex-mcp"
	envPrefix = "SEARCHINDEX"
)

// SourceConfig is where a refresh fetches search_index.js from
type SourceConfig struct {
	// URL of a published search_index.js, e.g. https://org.github.io/Pkg.jl/dev/search_index.js
	URL string `mapstructure:"url"`
	// File is a local search_index.js, used when URL is empty
	File string `mapstructure:"file"`
}

// DocsConfig describes the published documentation site
type DocsConfig struct {
	// BaseURL is prepended to entry locations to build result links
	BaseURL string `mapstructure:"base_url"`
}

// CacheConfig controls how long a cached source counts as fresh
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// SearchConfig bounds the number of search results
type SearchConfig struct {
	DefaultResults int `mapstructure:"default_results"`
	MaxResults     int `mapstructure:"max_results"`
}

// LockConfig controls waiting for the inter-process index lock
type LockConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	RetryWait time.Duration `mapstructure:"retry_wait"`
}

// Config is the server configuration, loaded by Load
type Config struct {
	DataDir string       `mapstructure:"data_dir"`
	Source  SourceConfig `mapstructure:"source"`
	Docs    DocsConfig   `mapstructure:"docs"`
	Cache   CacheConfig  `mapstructure:"cache"`
	Search  SearchConfig `mapstructure:"search"`
	Lock    LockConfig   `mapstructure:"lock"`
}

// Default returns the configuration used when no file or environment
// overrides are present
func Default() *Config {
	return WithDataDir(DefaultDataDir())
}

// WithDataDir returns the default configuration rooted at dataDir
func WithDataDir(dataDir string) *Config {
	return &Config{
		DataDir: dataDir,
		Cache:   CacheConfig{TTL: 7 * 24 * time.Hour},
		Search: SearchConfig{
			DefaultResults: 10,
			MaxResults:     20,
		},
		Lock: LockConfig{
			Timeout:   5 * time.Second,
			RetryWait: 500 * time.Millisecond,
		},
	}
}

// DefaultDataDir picks the data directory for the documentation cache and
// search index.
//
// Strategy 1: ~/.searchindex-mcp (standalone installation)
// Strategy 2: ../data relative to the executable (plugin installation)
// Strategy 3: ./data
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err == nil {
		userDataDir := filepath.Join(homeDir, "."+appName)
		if info, err := os.Stat(userDataDir); err == nil && info.IsDir() {
			return userDataDir
		}
		if err := os.MkdirAll(userDataDir, 0755); err == nil {
			return userDataDir
		}
		log.Printf("Warning: Could not create user data directory at %s: %v", userDataDir, err)
	} else {
		log.Printf("Warning: Could not determine user home directory: %v", err)
	}

	if execPath, err := os.Executable(); err == nil {
		relativeDataDir := filepath.Join(filepath.Dir(execPath), "..", "data")
		if info, err := os.Stat(relativeDataDir); err == nil && info.IsDir() {
			abs, _ := filepath.Abs(relativeDataDir)
			return abs
		}
	}

	return filepath.Join(".", "data")
}

// newViper sets up config file lookup, defaults, and environment binding
func newViper(configFile string) *viper.Viper {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, appName))
		} else if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", appName))
		}
	}

	def := Default()
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("source.url", "")
	v.SetDefault("source.file", "")
	v.SetDefault("docs.base_url", "")
	v.SetDefault("cache.ttl", def.Cache.TTL.String())
	v.SetDefault("search.default_results", def.Search.DefaultResults)
	v.SetDefault("search.max_results", def.Search.MaxResults)
	v.SetDefault("lock.timeout", def.Lock.Timeout.String())
	v.SetDefault("lock.retry_wait", def.Lock.RetryWait.String())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads configuration from configFile (or the default search path when
// empty), overlaid with SEARCHINDEX_* environment variables. A missing
// default config file is not an error.
func Load(configFile string) (*Config, error) {
	v := newViper(configFile)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.Source.File = expandHome(cfg.Source.File)

	return &cfg, nil
}

// Validate rejects settings that would make the server misbehave
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.Search.DefaultResults <= 0 {
		return fmt.Errorf("search.default_results must be positive, got %d", c.Search.DefaultResults)
	}
	if c.Search.MaxResults < c.Search.DefaultResults {
		return fmt.Errorf("search.max_results (%d) must be >= search.default_results (%d)",
			c.Search.MaxResults, c.Search.DefaultResults)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.Lock.Timeout <= 0 || c.Lock.RetryWait <= 0 {
		return fmt.Errorf("lock.timeout and lock.retry_wait must be positive")
	}
	return nil
}

// HasSource reports whether a refresh source is configured
func (c *Config) HasSource() bool {
	return c.Source.URL != "" || c.Source.File != ""
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path[2:])
	}
	return path
}
