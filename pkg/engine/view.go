package engine

import (
	"time"

	"github.com/sanonone/lawgraph/pkg/core/filter"
	"github.com/sanonone/lawgraph/pkg/loader"
	"github.com/sanonone/lawgraph/pkg/model"
)

// LoadState is the lifecycle of the dataset behind an Engine.
type LoadState int

const (
	StateIdle LoadState = iota
	StateLoading
	StateReady
	StateFailed
)

func (s LoadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name.
func (s LoadState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status summarizes the engine for health reporting.
type Status struct {
	State          LoadState
	LastError      error
	Source         loader.Source
	ServerVersion  string
	DatasetVersion string
	Nodes          int
	Dropped        int
	Generation     uint64
}

// View is one published result of the filter and graph pipeline.
// Views are immutable; a newer one replaces the previous as a whole.
type View struct {
	// Generation increases by one with every rebuild.
	Generation uint64
	Filter     filter.State
	Nodes      []model.Node
	Edges      []model.Edge
	BuildTime  time.Duration
}

// NodeAt returns the i-th visible node.
func (v *View) NodeAt(i int) (model.Node, bool) {
	if i < 0 || i >= len(v.Nodes) {
		return model.Node{}, false
	}
	return v.Nodes[i], true
}

// Positions maps every visible node id to its position, which is what an
// edge renderer needs to draw the segments.
func (v *View) Positions() map[string]model.Position {
	out := make(map[string]model.Position, len(v.Nodes))
	for _, n := range v.Nodes {
		out[n.ID] = n.Position
	}
	return out
}
