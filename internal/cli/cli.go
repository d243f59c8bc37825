// Package cli implements the layoutc command-line interface.
//
// Every command except cache and completion works on a project described
// by a layoutc.toml file (see package config). The file is looked up in the
// working directory unless --config names one.
//
// # Commands
//
//   - render: compose handles and print the markup
//   - tree: export the merged, processed or block tree
//   - handles: list the handles modules declare
//   - inspect: browse the named blocks of a composition interactively
//   - serve: run the preview server
//   - cache: manage the merged layout cache
//
// # Logging
//
// Logs go to stderr. --verbose (-v) enables debug output, otherwise the
// project's log_level applies.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/infinri/layoutc/pkg/cache"
	"github.com/infinri/layoutc/pkg/config"
	"github.com/infinri/layoutc/pkg/layout/render"
	"github.com/infinri/layoutc/pkg/layout/source"
	"github.com/infinri/layoutc/pkg/pipeline"
	"github.com/infinri/layoutc/pkg/template"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "layoutc"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Project
// =============================================================================

// project is everything a command needs to compose layouts.
type project struct {
	cfg    *config.Config
	loader *source.Loader
	runner *pipeline.Runner
}

func (p *project) Close() error {
	return p.runner.Close()
}

// loadConfig reads the project file. The configured log level applies
// unless the logger was already raised to debug by --verbose.
func (c *CLI) loadConfig() (*config.Config, error) {
	path := c.configPath
	if path == "" {
		path = config.DefaultFile
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no %s in the current directory (use --config)", config.DefaultFile)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cfg.LogLevel != "" && c.Logger.GetLevel() != log.DebugLevel {
		level, err := log.ParseLevel(cfg.LogLevel)
		if err == nil {
			c.SetLogLevel(level)
		}
	}
	c.Logger.Debug("loaded config", "path", path, "config", cfg)
	return cfg, nil
}

// openProject loads the configuration and wires the pipeline runner.
func (c *CLI) openProject(ctx context.Context) (*project, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	reg, err := source.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	loader := source.NewLoader(reg, c.Logger)
	renderer := render.New(template.New(reg.Modules()))

	store, err := c.newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Cache.Prefix)
	}

	runner := pipeline.NewRunner(loader, renderer, store, keyer, c.Logger)
	runner.TTL = time.Duration(cfg.Cache.TTL)
	return &project{cfg: cfg, loader: loader, runner: runner}, nil
}

// newCache opens the configured cache backend. --no-cache and an
// unavailable cache directory both fall back to no caching.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil && cfg.Cache.Dir == "" && cfg.Cache.Backend == cache.BackendFile {
		c.Logger.Warn("cache directory unavailable, caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	store, err := cache.Open(ctx, cfg.CacheOptions(dir))
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return store, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/layoutc/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseData turns key=value pairs from --set into late-bound block data.
// A later pair overrides an earlier one with the same key.
func parseData(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	data := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --set value %q (want key=value)", p)
		}
		data[k] = v
	}
	return data, nil
}
