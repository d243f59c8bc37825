// Package config loads layoutc project configuration from TOML.
//
// A project file lists the contributing modules in dependency order and
// configures the cache backend and the preview server:
//
//	log_level = "info"
//
//	[[modules]]
//	name = "core"
//	path = "modules/core"
//
//	[[modules]]
//	name = "cms"
//	path = "modules/cms"
//
//	[cache]
//	backend = "redis"
//	addr = "127.0.0.1:6379"
//	ttl = "1h"
//	prefix = "site:storefront:"
//
//	[server]
//	addr = ":8080"
//
// Relative module paths are resolved against the directory of the file.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/infinri/layoutc/pkg/cache"
	"github.com/infinri/layoutc/pkg/errors"
)

// DefaultFile is the project file name looked up by the CLI.
const DefaultFile = "layoutc.toml"

// Defaults.
const (
	DefaultServerAddr = ":8080"
	DefaultLogLevel   = "info"
)

// Duration is a time.Duration decoded from a TOML string such as "90m".
type Duration time.Duration

// UnmarshalText parses the duration with time.ParseDuration.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config is the decoded project file.
type Config struct {
	LogLevel string   `toml:"log_level"`
	Modules  []Module `toml:"modules"`
	Cache    Cache    `toml:"cache"`
	Server   Server   `toml:"server"`

	// Dir is the directory relative module paths are resolved against.
	Dir string `toml:"-"`
}

// Module is one contributing module. Order in the file is dependency order.
type Module struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

// Cache configures the merged-document cache.
type Cache struct {
	Backend string   `toml:"backend"`
	Dir     string   `toml:"dir"`
	Addr    string   `toml:"addr"`
	TTL     Duration `toml:"ttl"`
	Prefix  string   `toml:"prefix"`
}

// Server configures the preview server.
type Server struct {
	Addr string `toml:"addr"`
}

// Default returns a configuration with no modules, a file cache and the
// default server address.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Cache: Cache{
			Backend: cache.BackendFile,
			TTL:     Duration(cache.TTLDocument),
		},
		Server: Server{Addr: DefaultServerAddr},
		Dir:    ".",
	}
}

// Load reads and validates the project file at path. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Dir = filepath.Dir(path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks module declarations and the cache backend.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Modules))
	for i, m := range c.Modules {
		if m.Name == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "module %d: name is required", i)
		}
		if m.Path == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "module %q: path is required", m.Name)
		}
		if seen[m.Name] {
			return errors.New(errors.ErrCodeInvalidConfig, "module %q declared twice", m.Name)
		}
		seen[m.Name] = true
	}

	switch c.Cache.Backend {
	case "", cache.BackendNone, cache.BackendFile:
	case cache.BackendRedis, cache.BackendValkey:
		if c.Cache.Addr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache backend %q requires addr", c.Cache.Backend)
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown log level %q", c.LogLevel)
	}
	return nil
}

// ModulePath returns the absolute-or-config-relative directory of m.
func (c *Config) ModulePath(m Module) string {
	if filepath.IsAbs(m.Path) || c.Dir == "" {
		return m.Path
	}
	return filepath.Join(c.Dir, m.Path)
}

// CacheOptions converts the cache section for [cache.Open]. fallbackDir is
// used when a file cache has no explicit directory.
func (c *Config) CacheOptions(fallbackDir string) cache.Options {
	dir := c.Cache.Dir
	if dir == "" {
		dir = fallbackDir
	}
	return cache.Options{Backend: c.Cache.Backend, Dir: dir, Addr: c.Cache.Addr}
}

// String summarizes the configuration for debug logs.
func (c *Config) String() string {
	names := make([]string, len(c.Modules))
	for i, m := range c.Modules {
		names[i] = m.Name
	}
	return fmt.Sprintf("modules=[%s] cache=%s", strings.Join(names, ","), c.Cache.Backend)
}
