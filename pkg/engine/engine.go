// Package engine provides the controller tying the dataset loader, the facet
// filter and the graph builder together.
//
// Every filter change runs the same explicit pipeline on the caller's
// goroutine: filter.Apply over the loaded nodes, then graph.BuildEdges over
// the result. The outcome is published as an immutable View; readers never
// observe a half-built one.
//
// Basic usage:
//
//	l := loader.New(client.New("http://localhost:8000"), cache.NewMemoryStore())
//	eng, err := engine.New(l, nil, engine.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := eng.Load(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	view := eng.SetChapters("5")
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sanonone/lawgraph/pkg/core/distance"
	"github.com/sanonone/lawgraph/pkg/core/filter"
	"github.com/sanonone/lawgraph/pkg/core/graph"
	"github.com/sanonone/lawgraph/pkg/loader"
	"github.com/sanonone/lawgraph/pkg/metrics"
	"github.com/sanonone/lawgraph/pkg/model"
)

var (
	// ErrNotLoaded is returned by operations needing a dataset before the
	// first successful Load.
	ErrNotLoaded = errors.New("dataset not loaded")
	// ErrUnknownNode is returned for ids absent from the loaded dataset.
	ErrUnknownNode = errors.New("unknown node")
	// ErrNoDetailSource is returned by Detail when no fetcher was configured.
	ErrNoDetailSource = errors.New("no detail source configured")
)

// Options configures the graph derived from the visible nodes.
type Options struct {
	// EdgeThreshold is the strict upper bound on the distance between a node
	// and its nearest neighbour for an edge to be drawn.
	EdgeThreshold float64

	// Metric selects the distance kernel. Default: distance.Euclidean.
	Metric distance.Metric
}

// DefaultOptions returns the settings of the original viewer.
func DefaultOptions() Options {
	return Options{
		EdgeThreshold: graph.DefaultThreshold,
		Metric:        distance.Euclidean,
	}
}

// Loader produces datasets. *loader.Loader implements it.
type Loader interface {
	Load(ctx context.Context) (*loader.Result, error)
}

// DetailFetcher retrieves the full record of one chunk.
// *client.Client implements it.
type DetailFetcher interface {
	Chunk(ctx context.Context, id string) (*model.ChunkDetail, error)
}

// dataset is the loaded data plus the indexes derived from it. It is
// replaced as a whole on every successful load.
type dataset struct {
	ds     *model.Dataset
	byID   map[string]int
	facets filter.FacetValues
	result *loader.Result
}

// Engine is the controller. All methods are safe for concurrent use.
type Engine struct {
	loader  Loader
	details DetailFetcher
	builder *graph.Builder
	filters *filter.Engine

	// mu serializes loads and rebuilds so two pipelines never interleave.
	mu sync.Mutex

	data atomic.Pointer[dataset]
	view atomic.Pointer[View]
	gen  atomic.Uint64

	statusMu sync.RWMutex
	state    LoadState
	lastErr  error
}

// New creates an Engine. details may be nil, in which case Detail fails
// with ErrNoDetailSource.
func New(l Loader, details DetailFetcher, opts Options) (*Engine, error) {
	if l == nil {
		return nil, fmt.Errorf("engine requires a loader")
	}
	builder, err := graph.NewBuilder(opts.EdgeThreshold, opts.Metric)
	if err != nil {
		return nil, fmt.Errorf("invalid graph options: %w", err)
	}

	e := &Engine{
		loader:  l,
		details: details,
		builder: builder,
		filters: filter.NewEngine(),
		state:   StateIdle,
	}
	e.view.Store(&View{Nodes: []model.Node{}, Edges: []model.Edge{}})
	return e, nil
}

// Load runs the loader and, on success, replaces the dataset and rebuilds
// the view under the current filter selection. On failure the previous
// dataset and view are kept, the engine enters StateFailed and the error is
// returned; Load may be called again to retry.
func (e *Engine) Load(ctx context.Context) (*loader.Result, error) {
	e.setStatus(StateLoading, nil)

	res, err := e.loader.Load(ctx)
	if err != nil {
		e.setStatus(StateFailed, err)
		return nil, err
	}

	d := &dataset{
		ds:     res.Dataset,
		byID:   make(map[string]int, len(res.Dataset.Nodes)),
		facets: filter.Facets(res.Dataset.Nodes),
		result: res,
	}
	for i, n := range res.Dataset.Nodes {
		d.byID[n.ID] = i
	}

	e.mu.Lock()
	e.data.Store(d)
	e.rebuildLocked(e.filters.State())
	e.mu.Unlock()

	e.setStatus(StateReady, nil)
	return res, nil
}

// Status reports the load state.
func (e *Engine) Status() Status {
	e.statusMu.RLock()
	st := Status{State: e.state, LastError: e.lastErr}
	e.statusMu.RUnlock()

	if d := e.data.Load(); d != nil {
		st.Source = d.result.Source
		st.ServerVersion = d.result.ServerVersion
		st.DatasetVersion = d.ds.Version
		st.Nodes = len(d.ds.Nodes)
		st.Dropped = len(d.result.Dropped)
	}
	st.Generation = e.View().Generation
	return st
}

// LastError returns the error of the last failed load, or nil.
func (e *Engine) LastError() error {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.lastErr
}

func (e *Engine) setStatus(s LoadState, err error) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.state = s
	e.lastErr = err
}

// --- Filter operations ---
// Each one updates the selection and rebuilds the view synchronously.

// SetChapters replaces the chapter selection.
func (e *Engine) SetChapters(chapters ...string) *View {
	return e.applyWith(func() filter.State { return e.filters.SetChapters(chapters...) })
}

// SetTitles replaces the title selection.
func (e *Engine) SetTitles(titles ...string) *View {
	return e.applyWith(func() filter.State { return e.filters.SetTitles(titles...) })
}

// ToggleChapter flips one chapter in the selection.
func (e *Engine) ToggleChapter(chapter string) *View {
	return e.applyWith(func() filter.State { return e.filters.ToggleChapter(chapter) })
}

// ToggleTitle flips one title in the selection.
func (e *Engine) ToggleTitle(title string) *View {
	return e.applyWith(func() filter.State { return e.filters.ToggleTitle(title) })
}

// ApplyFilter installs a complete selection.
func (e *Engine) ApplyFilter(state filter.State) *View {
	return e.applyWith(func() filter.State { return e.filters.Replace(state) })
}

// ClearFilters shows every node.
func (e *Engine) ClearFilters() *View {
	return e.applyWith(e.filters.Clear)
}

// Filters returns a copy of the current selection.
func (e *Engine) Filters() filter.State {
	return e.filters.State()
}

func (e *Engine) applyWith(update func() filter.State) *View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rebuildLocked(update())
}

// rebuildLocked runs filter then buildEdges and publishes the result.
// Must be called with e.mu held.
func (e *Engine) rebuildLocked(state filter.State) *View {
	var all []model.Node
	if d := e.data.Load(); d != nil {
		all = d.ds.Nodes
	}

	start := time.Now()
	nodes := filter.Apply(all, state)
	edges := e.builder.BuildEdges(nodes)
	elapsed := time.Since(start)

	v := &View{
		Generation: e.gen.Add(1),
		Filter:     state,
		Nodes:      nodes,
		Edges:      edges,
		BuildTime:  elapsed,
	}
	e.view.Store(v)

	metrics.GraphRebuildDuration.Observe(elapsed.Seconds())
	metrics.VisibleNodes.Set(float64(len(nodes)))
	metrics.VisibleEdges.Set(float64(len(edges)))
	slog.Debug("Rebuilt graph view",
		"generation", v.Generation,
		"nodes", len(nodes),
		"edges", len(edges),
		"duration", elapsed.String(),
	)
	return v
}

// --- Read side ---

// View returns the latest published view. It is never nil; before the
// first load it is empty.
func (e *Engine) View() *View {
	return e.view.Load()
}

// NodeAt resolves a rendered instance index into the node of the current
// view.
func (e *Engine) NodeAt(i int) (model.Node, bool) {
	return e.View().NodeAt(i)
}

// Node looks a node up by id in the loaded dataset, visible or not.
func (e *Engine) Node(id string) (model.Node, bool) {
	d := e.data.Load()
	if d == nil {
		return model.Node{}, false
	}
	i, ok := d.byID[id]
	if !ok {
		return model.Node{}, false
	}
	return d.ds.Nodes[i], true
}

// Facets returns the selectable chapter and title values of the whole
// dataset.
func (e *Engine) Facets() filter.FacetValues {
	d := e.data.Load()
	if d == nil {
		return filter.FacetValues{Chapters: []string{}, Titles: []string{}}
	}
	return d.facets
}

// DeclaredEdges returns the edges the server shipped with the dataset.
// They are independent of the computed nearest-neighbour edges.
func (e *Engine) DeclaredEdges() []model.Edge {
	d := e.data.Load()
	if d == nil || len(d.ds.Edges) == 0 {
		return []model.Edge{}
	}
	out := make([]model.Edge, len(d.ds.Edges))
	copy(out, d.ds.Edges)
	return out
}

// Detail fetches the full text of a loaded node for the selection panel.
func (e *Engine) Detail(ctx context.Context, id string) (*model.ChunkDetail, error) {
	if e.details == nil {
		return nil, ErrNoDetailSource
	}
	if e.data.Load() == nil {
		return nil, ErrNotLoaded
	}
	if _, ok := e.Node(id); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, id)
	}
	detail, err := e.details.Chunk(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch detail for %q: %w", id, err)
	}
	return detail, nil
}
