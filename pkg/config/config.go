// Package config holds the settings of the lawgraph CLI and local server.
package config

import (
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/sanonone/lawgraph/pkg/cache"
	"github.com/sanonone/lawgraph/pkg/client"
	"github.com/sanonone/lawgraph/pkg/core/distance"
	"github.com/sanonone/lawgraph/pkg/engine"
)

type Config struct {
	// Remote API
	ServerURL      string        `yaml:"server_url"`   // "http://localhost:8000"
	VersionPath    string        `yaml:"version_path"` // "/api/law-chunk-metadata"
	DatasetPath    string        `yaml:"dataset_path"`
	DetailPath     string        `yaml:"detail_path"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	Cache CacheSettings `yaml:"cache"`
	Graph GraphSettings `yaml:"graph"`

	// Local bridge
	HTTPAddr string `yaml:"http_addr"` // "127.0.0.1:9093"
	LogLevel string `yaml:"log_level"` // debug | info | warn | error
}

type CacheSettings struct {
	Backend    string `yaml:"backend"` // file | badger | memory
	Dir        string `yaml:"dir"`
	SyncWrites bool   `yaml:"sync_writes"`
}

type GraphSettings struct {
	EdgeThreshold float64         `yaml:"edge_threshold"`
	Metric        distance.Metric `yaml:"metric"`
}

// DefaultConfig returns a configuration pointing at a local server.
func DefaultConfig() Config {
	return Config{
		ServerURL:      "http://localhost:8000",
		VersionPath:    client.DefaultVersionPath,
		DatasetPath:    client.DefaultDatasetPath,
		DetailPath:     client.DefaultDetailPath,
		RequestTimeout: 30 * time.Second,

		Cache: CacheSettings{
			Backend:    cache.BackendFile,
			Dir:        "./data",
			SyncWrites: true,
		},
		Graph: GraphSettings{
			EdgeThreshold: 1.0,
			Metric:        distance.Euclidean,
		},

		HTTPAddr: "127.0.0.1:9093",
		LogLevel: "info",
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ServerURL) == "" {
		return fmt.Errorf("server_url is required")
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server_url %q is not an absolute URL", c.ServerURL)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}

	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendBadger:
		if c.Cache.Dir == "" {
			return fmt.Errorf("cache.dir is required for the %s backend", c.Cache.Backend)
		}
	case cache.BackendMemory:
	default:
		return fmt.Errorf("unknown cache backend '%s'", c.Cache.Backend)
	}

	if !(c.Graph.EdgeThreshold > 0) || math.IsInf(c.Graph.EdgeThreshold, 0) {
		return fmt.Errorf("graph.edge_threshold must be a positive number, got %v", c.Graph.EdgeThreshold)
	}
	if _, err := distance.Get(c.Graph.Metric); err != nil {
		return fmt.Errorf("graph.metric: %w", err)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return lvl, nil
}

// CacheConfig maps the cache section onto cache.Config.
func (c Config) CacheConfig(logger *slog.Logger) cache.Config {
	return cache.Config{
		Backend:    c.Cache.Backend,
		Dir:        c.Cache.Dir,
		SyncWrites: c.Cache.SyncWrites,
		Logger:     logger,
	}
}

// ClientOptions maps the remote API settings onto client.Options.
func (c Config) ClientOptions() client.Options {
	return client.Options{
		BaseURL:     c.ServerURL,
		VersionPath: c.VersionPath,
		DatasetPath: c.DatasetPath,
		DetailPath:  c.DetailPath,
		Timeout:     c.RequestTimeout,
	}
}

// EngineOptions maps the graph section onto engine.Options.
func (c Config) EngineOptions() engine.Options {
	return engine.Options{
		EdgeThreshold: c.Graph.EdgeThreshold,
		Metric:        c.Graph.Metric,
	}
}
