package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func syncCmd(a *app) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Bring the local cache up to date with the server",
		Long: `Ask the server for its dataset version and download the full dataset
only when it differs from the cached one.

  lawgraph sync                  # check and update the cache
  lawgraph sync -v               # also list dropped records`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, store, err := a.openEngine()
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := eng.Load(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n\n", statusIcon(true), brand.Sprint("Dataset ready"))
			serverVersion := res.ServerVersion
			if serverVersion == "" {
				serverVersion = warn.Sprint("unreachable")
			}
			table(out, []string{"FIELD", "VALUE"}, [][]string{
				{"source", string(res.Source)},
				{"server version", serverVersion},
				{"cached version", orDash(res.CachedVersion)},
				{"nodes", strconv.Itoa(len(res.Dataset.Nodes))},
				{"declared edges", strconv.Itoa(len(res.Dataset.Edges))},
				{"dropped records", strconv.Itoa(len(res.Dropped))},
				{"dropped edges", strconv.Itoa(res.DroppedEdges)},
				{"duration", res.Duration.String()},
			})

			for _, w := range res.Warnings {
				fmt.Fprintf(out, "\n%s %s", warn.Sprint("⚠"), w)
			}
			if len(res.Warnings) > 0 {
				fmt.Fprintln(out)
			}

			if verbose && len(res.Dropped) > 0 {
				fmt.Fprintln(out)
				rows := make([][]string, 0, len(res.Dropped))
				for _, d := range res.Dropped {
					rows = append(rows, []string{strconv.Itoa(d.Index), orDash(d.ID), d.Reason()})
				}
				table(out, []string{"INDEX", "ID", "REASON"}, rows)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List dropped records")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
