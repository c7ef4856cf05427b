// Package graph derives the nearest-neighbour relationship graph drawn
// between the currently visible nodes.
//
// For every node A the builder finds the single nearest other node B and
// emits A -> B when their distance is strictly below the threshold. Edges are
// therefore directed and asymmetric: B's own nearest neighbour may be some
// other node. When A and B are each other's nearest neighbour both A -> B and
// B -> A are emitted; they are not deduplicated.
//
// The scan is O(n²) over the given subset and runs synchronously on the
// caller's goroutine. There is no spatial index and no cancellation; callers
// bound the cost by filtering first.
package graph

import (
	"fmt"
	"math"

	"github.com/sanonone/lawgraph/pkg/core/distance"
	"github.com/sanonone/lawgraph/pkg/model"
)

// DefaultThreshold is the edge cut-off used by the original viewer.
const DefaultThreshold = 1.0

// Builder computes nearest-neighbour edges.
type Builder struct {
	threshold float64
	dist      distance.Func
}

// NewBuilder returns a Builder emitting edges shorter than threshold under
// metric. For distance.SquaredEuclidean the threshold is squared as well, so
// both metrics produce the same graph.
func NewBuilder(threshold float64, metric distance.Metric) (*Builder, error) {
	if threshold <= 0 || math.IsNaN(threshold) {
		return nil, fmt.Errorf("edge threshold must be positive, got %v", threshold)
	}
	fn, err := distance.Get(metric)
	if err != nil {
		return nil, err
	}
	if metric == distance.SquaredEuclidean {
		threshold *= threshold
	}
	return &Builder{threshold: threshold, dist: fn}, nil
}

// DefaultBuilder returns a Euclidean builder with DefaultThreshold.
func DefaultBuilder() *Builder {
	b, _ := NewBuilder(DefaultThreshold, distance.Euclidean)
	return b
}

// BuildEdges returns one edge per node whose nearest neighbour lies within
// the threshold, in input order.
//
// Ties are broken by input order: the first node at the minimal distance
// wins, because later candidates must be strictly closer to replace it.
// Given the same ordered input the output is identical on every call.
func (b *Builder) BuildEdges(nodes []model.Node) []model.Edge {
	edges := make([]model.Edge, 0, len(nodes))
	for i := range nodes {
		j, d := b.nearest(nodes, i)
		if j < 0 || !(d < b.threshold) {
			continue
		}
		edges = append(edges, model.Edge{From: nodes[i].ID, To: nodes[j].ID})
	}
	return edges
}

// Nearest returns the index of the nearest neighbour of nodes[i] and its
// distance, or -1 when nodes has fewer than two elements.
func (b *Builder) Nearest(nodes []model.Node, i int) (int, float64) {
	if i < 0 || i >= len(nodes) {
		return -1, math.Inf(1)
	}
	return b.nearest(nodes, i)
}

func (b *Builder) nearest(nodes []model.Node, i int) (int, float64) {
	best := -1
	bestDist := math.Inf(1)
	origin := nodes[i].Position
	for j := range nodes {
		if j == i {
			continue
		}
		if d := b.dist(origin, nodes[j].Position); d < bestDist {
			bestDist = d
			best = j
		}
	}
	return best, bestDist
}

// Threshold returns the cut-off in the builder's metric units.
func (b *Builder) Threshold() float64 {
	return b.threshold
}
