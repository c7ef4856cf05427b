package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sanonone/lawgraph/internal/server"
)

func serveCmd(a *app) *cobra.Command {
	var httpAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the current graph over a local HTTP API",
		Long: `Load the dataset and expose the filtered graph to a renderer process.

  GET    /graph            current nodes and edges
  GET    /graph/nodes/{i}  node at a rendered instance index
  GET    /facets           selectable chapters and titles
  PUT    /filters          {"chapters": [...], "titles": [...]}
  DELETE /filters          show everything
  GET    /nodes/{id}       node with its full text
  POST   /reload           re-check the server version
  GET    /healthz, /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("http-addr") {
				a.cfg.HTTPAddr = httpAddr
			}

			eng, store, err := a.openEngine()
			if err != nil {
				return err
			}
			defer store.Close()

			// A failed first load is not fatal: the renderer can retry
			// with POST /reload once the server is back.
			if _, err := eng.Load(cmd.Context()); err != nil {
				slog.Warn("Initial dataset load failed, serving empty graph", "error", err)
			}

			srv := server.NewServer(eng, a.cfg.HTTPAddr)

			shutdownChan := make(chan os.Signal, 1)
			signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(shutdownChan)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Run()
			}()

			fmt.Fprintf(cmd.OutOrStdout(), "%s listening on %s\n", brand.Sprint("lawgraph"), a.cfg.HTTPAddr)

			select {
			case err := <-errCh:
				return err
			case <-shutdownChan:
				srv.Shutdown()
				return <-errCh
			}
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "Listen address (default from config: 127.0.0.1:9093)")
	return cmd
}
