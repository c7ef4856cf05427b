package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sanonone/lawgraph/pkg/core/distance"
	"github.com/sanonone/lawgraph/pkg/core/filter"
	"github.com/sanonone/lawgraph/pkg/model"
)

// graphOutput is the --json form of the graph command.
type graphOutput struct {
	Filter struct {
		Chapters []string `json:"chapters"`
		Titles   []string `json:"titles"`
	} `json:"filter"`
	Nodes         []model.Node `json:"nodes"`
	Edges         []model.Edge `json:"edges"`
	DeclaredEdges []model.Edge `json:"declared_edges,omitempty"`
}

func graphCmd(a *app) *cobra.Command {
	var (
		chapters []string
		titles   []string
		asJSON   bool
		declared bool
		facets   bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the nearest-neighbour edges of a filtered subset",
		Long: `Load the dataset (from the cache when current), apply the chapter and
title filters and print the nearest-neighbour edges among the nodes left.

  lawgraph graph                          # whole dataset
  lawgraph graph --chapter 5 --chapter 6  # chapters 5 or 6
  lawgraph graph --title "Title 42" --json
  lawgraph graph --facets                 # list selectable values`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, store, err := a.openEngine()
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := eng.Load(cmd.Context()); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if facets {
				fv := eng.Facets()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(fv)
				}
				rows := make([][]string, 0, len(fv.Chapters)+len(fv.Titles))
				for _, c := range fv.Chapters {
					rows = append(rows, []string{"chapter", c})
				}
				for _, t := range fv.Titles {
					rows = append(rows, []string{"title", t})
				}
				table(out, []string{"FACET", "VALUE"}, rows)
				return nil
			}

			view := eng.ApplyFilter(filter.NewState(chapters, titles))

			if asJSON {
				var g graphOutput
				g.Filter.Chapters = view.Filter.ChapterList()
				g.Filter.Titles = view.Filter.TitleList()
				g.Nodes, g.Edges = view.Nodes, view.Edges
				if declared {
					g.DeclaredEdges = eng.DeclaredEdges()
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(g)
			}

			fmt.Fprintf(out, "%s %d nodes, %d edges (built in %s)\n\n",
				brand.Sprint("graph"), len(view.Nodes), len(view.Edges), view.BuildTime)
			if len(view.Edges) == 0 {
				fmt.Fprintln(out, subtle.Sprint("  no edges"))
				return nil
			}

			pos := view.Positions()
			rows := make([][]string, 0, len(view.Edges))
			for _, e := range view.Edges {
				rows = append(rows, []string{e.From, e.To, formatDistance(pos[e.From], pos[e.To])})
			}
			table(out, []string{"FROM", "TO", "DISTANCE"}, rows)

			if declared {
				fmt.Fprintln(out)
				rows = rows[:0]
				for _, e := range eng.DeclaredEdges() {
					rows = append(rows, []string{e.From, e.To})
				}
				table(out, []string{"DECLARED FROM", "TO"}, rows)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&chapters, "chapter", nil, "Keep only these chapters (repeatable)")
	f.StringArrayVar(&titles, "title", nil, "Keep only these titles (repeatable)")
	f.BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	f.BoolVar(&declared, "declared", false, "Also print the server-declared edges")
	f.BoolVar(&facets, "facets", false, "List the selectable chapter and title values")
	return cmd
}

func formatDistance(a, b model.Position) string {
	euclidean, _ := distance.Get(distance.Euclidean)
	return strconv.FormatFloat(euclidean(a, b), 'f', 4, 64)
}
