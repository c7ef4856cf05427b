package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sanonone/lawgraph/pkg/cache"
	"github.com/sanonone/lawgraph/pkg/client"
	"github.com/sanonone/lawgraph/pkg/config"
	"github.com/sanonone/lawgraph/pkg/engine"
	"github.com/sanonone/lawgraph/pkg/loader"
)

var version = "0.3.0"

// app carries the flags shared by every command and the resulting
// configuration.
type app struct {
	configPath   string
	envFiles     []string
	serverURL    string
	cacheBackend string
	cacheDir     string
	logLevel     string

	cfg config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "lawgraph",
		Short: "lawgraph — law chunk dataset cache and neighbour graph",
		Long: brand.Sprint("lawgraph") + " — keep the law chunk dataset in sync and explore its neighbour graph\n" +
			subtle.Sprint("Downloads the dataset only when the server declares a new version"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetVersionTemplate("lawgraph {{ .Version }}\n")

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "Path to a YAML configuration file")
	pf.StringSliceVar(&a.envFiles, "env-file", nil, "Environment files to load (default: .env if present)")
	pf.StringVar(&a.serverURL, "server-url", "", "Base URL of the law chunk API")
	pf.StringVar(&a.cacheBackend, "cache-backend", "", "Cache backend: file, badger or memory")
	pf.StringVar(&a.cacheDir, "cache-dir", "", "Directory of the persistent cache")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	root.AddCommand(
		syncCmd(a),
		graphCmd(a),
		serveCmd(a),
		versionCmd(),
	)

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w\nRun '%s --help' for usage", err, cmd.CommandPath())
	})
	return root
}

// setup resolves the configuration (defaults, file, env, flags) and
// installs the default logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Resolve(a.configPath, a.envFiles...)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("server-url") {
		cfg.ServerURL = a.serverURL
	}
	if flags.Changed("cache-backend") {
		cfg.Cache.Backend = a.cacheBackend
	}
	if flags.Changed("cache-dir") {
		cfg.Cache.Dir = a.cacheDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	lvl, _ := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))

	a.cfg = cfg
	return nil
}

// openEngine wires client, cache, loader and engine from the configuration.
// The returned Store must be closed by the caller.
func (a *app) openEngine() (*engine.Engine, cache.Store, error) {
	store, err := cache.Open(a.cfg.CacheConfig(slog.Default()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}

	api := client.NewWithOptions(a.cfg.ClientOptions())
	eng, err := engine.New(loader.New(api, store), api, a.cfg.EngineOptions())
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return eng, store, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the lawgraph version",
		Args:  cobra.NoArgs,
		// Skip configuration loading.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lawgraph %s\n", version)
		},
	}
}
