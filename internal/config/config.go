// Package config loads repository settings from .gitlet/config.yaml and
// GITLET_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text or json
}

// MergeConfig tunes the merge rule table.
type MergeConfig struct {
	AdoptAddedFiles bool `mapstructure:"adopt_added_files" yaml:"adopt_added_files"`
}

// RemoteConfig tunes fetch and push.
type RemoteConfig struct {
	BoundedFetch bool `mapstructure:"bounded_fetch" yaml:"bounded_fetch"`
}

// CacheConfig sizes in-memory caches.
type CacheConfig struct {
	Commits int `mapstructure:"commits" yaml:"commits"`
}

// MountConfig controls the FUSE view.
type MountConfig struct {
	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// Config holds every setting.
type Config struct {
	DefaultBranch string       `mapstructure:"default_branch" yaml:"default_branch"`
	Log           LogConfig    `mapstructure:"log" yaml:"log"`
	Merge         MergeConfig  `mapstructure:"merge" yaml:"merge"`
	Remote        RemoteConfig `mapstructure:"remote" yaml:"remote"`
	Cache         CacheConfig  `mapstructure:"cache" yaml:"cache"`
	Mount         MountConfig  `mapstructure:"mount" yaml:"mount"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		DefaultBranch: "master",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Cache: CacheConfig{Commits: 1024},
	}
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("default_branch", d.DefaultBranch)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("merge.adopt_added_files", d.Merge.AdoptAddedFiles)
	v.SetDefault("remote.bounded_fetch", d.Remote.BoundedFetch)
	v.SetDefault("cache.commits", d.Cache.Commits)
	v.SetDefault("mount.debug", d.Mount.Debug)
}

// Load reads path if it exists and applies environment overrides.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())
	v.SetEnvPrefix("GITLET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("reading config %s: %w", path, err)
			}
			slog.Debug("config loaded", slog.String("path", path))
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later.
func (c Config) Validate() error {
	if c.DefaultBranch == "" || strings.Contains(c.DefaultBranch, "/") {
		return fmt.Errorf("default_branch %q is not a valid branch name", c.DefaultBranch)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Cache.Commits < 0 {
		return fmt.Errorf("cache.commits must not be negative, got %d", c.Cache.Commits)
	}
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// YAML renders the effective configuration.
func (c Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return out, nil
}
