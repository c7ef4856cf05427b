// Command lawgraph keeps a local copy of the law chunk dataset in sync with
// the server and derives the nearest-neighbour graph over a filtered subset.
package main

import (
	"os"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		bad.Fprintf(root.ErrOrStderr(), "lawgraph: %v\n", err)
		os.Exit(1)
	}
}
