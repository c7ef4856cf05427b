package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sanonone/lawgraph/pkg/cache"
	"github.com/sanonone/lawgraph/pkg/core/distance"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "lawgraph.yaml", `
server_url: http://laws.example:8080
request_timeout: 5s
cache:
  backend: badger
  dir: /var/lib/lawgraph
graph:
  edge_threshold: 0.75
  metric: squared_euclidean
log_level: debug
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ServerURL != "http://laws.example:8080" {
		t.Errorf("server_url = %q", cfg.ServerURL)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("request_timeout = %v", cfg.RequestTimeout)
	}
	if cfg.Cache.Backend != cache.BackendBadger || cfg.Cache.Dir != "/var/lib/lawgraph" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	// Keys absent from the file keep their defaults.
	if !cfg.Cache.SyncWrites || cfg.HTTPAddr != "127.0.0.1:9093" || cfg.DatasetPath == "" {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if cfg.Graph.EdgeThreshold != 0.75 || cfg.Graph.Metric != distance.SquaredEuclidean {
		t.Errorf("graph = %+v", cfg.Graph)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	opts := cfg.EngineOptions()
	if opts.EdgeThreshold != 0.75 || opts.Metric != distance.SquaredEuclidean {
		t.Errorf("engine options = %+v", opts)
	}
	cc := cfg.CacheConfig(nil)
	if cc.Backend != cache.BackendBadger || !cc.SyncWrites {
		t.Errorf("cache config = %+v", cc)
	}
	if co := cfg.ClientOptions(); co.BaseURL != cfg.ServerURL || co.Timeout != 5*time.Second {
		t.Errorf("client options = %+v", co)
	}
}

func TestLoadConfigStrict(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.yaml", "server_url: http://x\nedge_treshold: 2\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected an error for an unknown key")
	}
}

func TestLoadConfigEmptyAndMissing(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil || cfg.ServerURL != DefaultConfig().ServerURL {
		t.Errorf("empty path: %+v, %v", cfg, err)
	}

	empty := writeFile(t, t.TempDir(), "empty.yaml", "")
	if _, err := LoadConfig(empty); err != nil {
		t.Errorf("empty file: %v", err)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvServerURL:     "http://env.example",
		EnvCacheBackend:  "memory",
		EnvEdgeThreshold: "2.5",
		EnvLogLevel:      "warn",
		EnvHTTPAddr:      "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	if err := ApplyEnv(&cfg, lookup); err != nil {
		t.Fatal(err)
	}
	if cfg.ServerURL != "http://env.example" || cfg.Cache.Backend != "memory" || cfg.Graph.EdgeThreshold != 2.5 || cfg.LogLevel != "warn" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.HTTPAddr != DefaultConfig().HTTPAddr {
		t.Errorf("empty variable should not override: %q", cfg.HTTPAddr)
	}

	env[EnvEdgeThreshold] = "wide"
	if err := ApplyEnv(&cfg, lookup); err == nil {
		t.Error("expected an error for a non-numeric threshold")
	}
}

func TestLoadWithEnvFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "lawgraph.yaml", "server_url: http://file.example\n")
	envPath := writeFile(t, dir, "test.env", "LAWGRAPH_CACHE_BACKEND=memory\nLAWGRAPH_SERVER_URL=http://dotenv.example\n")

	t.Setenv(EnvServerURL, "http://process.example")
	t.Setenv(EnvCacheBackend, "")
	os.Unsetenv(EnvCacheBackend)

	cfg, err := Load(cfgPath, envPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Process environment wins over the env file, which wins over YAML.
	if cfg.ServerURL != "http://process.example" {
		t.Errorf("server_url = %q", cfg.ServerURL)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("backend = %q", cfg.Cache.Backend)
	}
}

func TestResolveDefersValidation(t *testing.T) {
	t.Setenv(EnvCacheBackend, "redis")

	cfg, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Cache.Backend != "redis" {
		t.Errorf("backend = %q", cfg.Cache.Backend)
	}
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "backend") {
		t.Errorf("Load should reject the backend, got %v", err)
	}

	cfg.Cache.Backend = "memory"
	if err := cfg.Validate(); err != nil {
		t.Errorf("corrected config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty url", func(c *Config) { c.ServerURL = " " }, "server_url"},
		{"relative url", func(c *Config) { c.ServerURL = "/api" }, "server_url"},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "redis" }, "backend"},
		{"file without dir", func(c *Config) { c.Cache.Dir = "" }, "cache.dir"},
		{"zero threshold", func(c *Config) { c.Graph.EdgeThreshold = 0 }, "edge_threshold"},
		{"negative threshold", func(c *Config) { c.Graph.EdgeThreshold = -1 }, "edge_threshold"},
		{"unknown metric", func(c *Config) { c.Graph.Metric = "cosine" }, "metric"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}

	mem := DefaultConfig()
	mem.Cache.Backend, mem.Cache.Dir = cache.BackendMemory, ""
	if err := mem.Validate(); err != nil {
		t.Errorf("memory backend needs no dir: %v", err)
	}
}
