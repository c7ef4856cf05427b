package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding the file.
const (
	EnvServerURL     = "LAWGRAPH_SERVER_URL"
	EnvCacheDir      = "LAWGRAPH_CACHE_DIR"
	EnvCacheBackend  = "LAWGRAPH_CACHE_BACKEND"
	EnvEdgeThreshold = "LAWGRAPH_EDGE_THRESHOLD"
	EnvHTTPAddr      = "LAWGRAPH_HTTP_ADDR"
	EnvLogLevel      = "LAWGRAPH_LOG_LEVEL"
)

// Load resolves the configuration like Resolve and validates the result.
func Load(path string, envFiles ...string) (Config, error) {
	cfg, err := Resolve(path, envFiles...)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Resolve builds the effective configuration without validating it:
// defaults, then the YAML file at path (if any), then environment overrides.
// Variables from envFiles are loaded first without replacing those already
// set; with no envFiles a ".env" in the working directory is used when
// present. Callers applying further overrides validate afterwards.
func Resolve(path string, envFiles ...string) (Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

// LoadConfig reads the YAML configuration file using strict parsing.
// Unknown keys are an error. An empty path yields DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("YAML syntax error in config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides cfg with the LAWGRAPH_* variables found by lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str(EnvServerURL, &cfg.ServerURL)
	str(EnvCacheDir, &cfg.Cache.Dir)
	str(EnvCacheBackend, &cfg.Cache.Backend)
	str(EnvHTTPAddr, &cfg.HTTPAddr)
	str(EnvLogLevel, &cfg.LogLevel)

	if v, ok := lookup(EnvEdgeThreshold); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvEdgeThreshold, v, err)
		}
		cfg.Graph.EdgeThreshold = f
	}
	return nil
}
