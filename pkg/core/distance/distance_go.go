// Package distance provides the distance kernels used to compare node
// positions in the 3D embedding space.
//
// Kernels are looked up by metric name so the graph builder can be
// configured from YAML. Euclidean is backed by Gonum; the pure Go kernels
// are kept as reference implementations and for the squared metric, which
// the builder does not need a square root for.
package distance

import (
	"fmt"
	"math"

	"github.com/sanonone/lawgraph/pkg/model"
	"gonum.org/v1/gonum/floats"
)

// Metric names a distance function.
type Metric string

const (
	// Euclidean is the straight-line (L2) distance.
	Euclidean Metric = "euclidean"
	// SquaredEuclidean is the L2 distance without the final square root.
	SquaredEuclidean Metric = "squared_euclidean"
)

// Func computes the distance between two positions.
type Func func(a, b model.Position) float64

// euclideanGo is the pure Go reference for Euclidean.
func euclideanGo(a, b model.Position) float64 {
	return math.Sqrt(squaredEuclideanGo(a, b))
}

// squaredEuclideanGo is the pure Go squared Euclidean distance.
func squaredEuclideanGo(a, b model.Position) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return dx*dx + dy*dy + dz*dz
}

// euclideanGonum delegates to Gonum's scaled L2 distance, which does not
// overflow for large coordinates.
func euclideanGonum(a, b model.Position) float64 {
	return floats.Distance(a[:], b[:], 2)
}

var funcs = map[Metric]Func{
	Euclidean:        euclideanGonum,
	SquaredEuclidean: squaredEuclideanGo,
}

// Get returns the kernel for metric. An empty metric selects Euclidean.
func Get(metric Metric) (Func, error) {
	if metric == "" {
		metric = Euclidean
	}
	fn, ok := funcs[metric]
	if !ok {
		return nil, fmt.Errorf("metric '%s' not supported", metric)
	}
	return fn, nil
}
