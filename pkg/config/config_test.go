package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/infinri/layoutc/pkg/cache"
	"github.com/infinri/layoutc/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

[[modules]]
name = "core"
path = "modules/core"

[[modules]]
name = "cms"
path = "/srv/modules/cms"

[cache]
backend = "redis"
addr = "127.0.0.1:6379"
ttl = "90m"

[server]
addr = ":9090"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Modules) != 2 || cfg.Modules[0].Name != "core" || cfg.Modules[1].Name != "cms" {
		t.Errorf("modules = %+v, want core then cms", cfg.Modules)
	}
	if got := cfg.ModulePath(cfg.Modules[0]); got != filepath.Join(filepath.Dir(path), "modules/core") {
		t.Errorf("relative module path = %s", got)
	}
	if got := cfg.ModulePath(cfg.Modules[1]); got != "/srv/modules/cms" {
		t.Errorf("absolute module path = %s", got)
	}
	if time.Duration(cfg.Cache.TTL) != 90*time.Minute {
		t.Errorf("ttl = %v, want 90m", time.Duration(cfg.Cache.TTL))
	}
	if cfg.Server.Addr != ":9090" || cfg.LogLevel != "debug" {
		t.Errorf("server/log = %q/%q", cfg.Server.Addr, cfg.LogLevel)
	}
	opts := cfg.CacheOptions("/tmp/fallback")
	if opts.Backend != cache.BackendRedis || opts.Addr != "127.0.0.1:6379" || opts.Dir != "/tmp/fallback" {
		t.Errorf("cache options = %+v", opts)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[[modules]]\nname = \"core\"\npath = \"core\"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.Backend != cache.BackendFile {
		t.Errorf("default backend = %q", cfg.Cache.Backend)
	}
	if time.Duration(cfg.Cache.TTL) != cache.TTLDocument {
		t.Errorf("default ttl = %v", time.Duration(cfg.Cache.TTL))
	}
	if cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("default server addr = %q", cfg.Server.Addr)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[[modules]\n"},
		{"unknown key", "colour = \"blue\"\n"},
		{"missing name", "[[modules]]\npath = \"x\"\n"},
		{"missing path", "[[modules]]\nname = \"x\"\n"},
		{"duplicate module", "[[modules]]\nname = \"x\"\npath = \"a\"\n[[modules]]\nname = \"x\"\npath = \"b\"\n"},
		{"unknown backend", "[cache]\nbackend = \"memcached\"\n"},
		{"redis without addr", "[cache]\nbackend = \"redis\"\n"},
		{"bad ttl", "[cache]\nttl = \"soon\"\n"},
		{"bad log level", "log_level = \"loud\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("error code = %v, want INVALID_CONFIG", errors.GetCode(err))
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("missing file should fail")
	}
}
