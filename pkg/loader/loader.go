// Package loader keeps the local dataset current with the version the server
// declares.
//
// A load always asks the server for its current version first. The full
// payload is downloaded only when that version differs from the cached one
// or nothing usable is cached; otherwise the cached dataset is returned.
// When the server cannot be reached, any cached dataset is served regardless
// of its version.
package loader

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/sanonone/lawgraph/pkg/cache"
	"github.com/sanonone/lawgraph/pkg/metrics"
	"github.com/sanonone/lawgraph/pkg/model"
)

// API is the subset of the server API the loader needs.
// *client.Client implements it.
type API interface {
	Version(ctx context.Context) (string, error)
	Dataset(ctx context.Context) (*model.RawDataset, error)
}

// Source tells where a loaded dataset came from.
type Source string

const (
	// SourceCache: cached version matched the server's.
	SourceCache Source = "cache"
	// SourceNetwork: the full payload was downloaded.
	SourceNetwork Source = "network"
	// SourceStaleCache: the server failed and the cache was served as is.
	SourceStaleCache Source = "stale-cache"
)

// Result is the outcome of a successful Load. It may be shared between
// concurrent callers and must be treated as read-only.
type Result struct {
	LoadID        string
	Dataset       *model.Dataset
	Source        Source
	ServerVersion string // empty when the version check failed
	CachedVersion string // empty on first run
	Dropped       []Drop
	DroppedEdges  int
	// Warnings lists recovered failures, each wrapping one of the Err* kinds.
	Warnings []error
	Duration time.Duration
}

// Loader orchestrates version check, cache lookup, download and
// write-through. The Store is owned by the Loader; nothing else writes it.
type Loader struct {
	api   API
	store cache.Store
	group singleflight.Group
}

// New creates a Loader.
func New(api API, store cache.Store) *Loader {
	return &Loader{api: api, store: store}
}

// Load returns the current dataset. Concurrent calls share a single
// execution, run with the context of the first caller.
//
// The returned error is a *LoadError when no dataset at all could be
// produced: the server failed and nothing usable was cached.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	v, err, _ := l.group.Do("load", func() (any, error) {
		return l.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// loadRun carries the state of one load.
type loadRun struct {
	l      *Loader
	ctx    context.Context
	log    *slog.Logger
	res    *Result
	cached *model.Dataset
	read   bool
}

func (l *Loader) load(ctx context.Context) (*Result, error) {
	start := time.Now()
	run := &loadRun{
		l:   l,
		ctx: ctx,
		res: &Result{LoadID: uuid.NewString()},
	}
	run.log = slog.With("load_id", run.res.LoadID)

	res, err := run.execute()
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			metrics.DatasetLoadErrorsTotal.WithLabelValues(le.Kind.Error(), "true").Inc()
		}
		run.log.Error("Dataset load failed", "error", err, "duration", time.Since(start).String())
		return nil, err
	}

	res.Duration = time.Since(start)
	metrics.DatasetLoadsTotal.WithLabelValues(string(res.Source)).Inc()
	metrics.DatasetLoadDuration.WithLabelValues(string(res.Source)).Observe(res.Duration.Seconds())
	metrics.DroppedRecordsTotal.Add(float64(len(res.Dropped)))
	metrics.DatasetNodes.Set(float64(len(res.Dataset.Nodes)))

	run.log.Info("Dataset loaded",
		"source", res.Source,
		"server_version", res.ServerVersion,
		"cached_version", res.CachedVersion,
		"nodes", len(res.Dataset.Nodes),
		"dropped", len(res.Dropped),
		"warnings", len(res.Warnings),
		"duration", res.Duration.String(),
	)
	return res, nil
}

func (r *loadRun) execute() (*Result, error) {
	// 1. Ask the server which version is current.
	serverVersion, verErr := r.l.api.Version(r.ctx)
	if verErr != nil {
		if r.readCached() {
			r.warn(ErrVersionCheck, verErr)
			return r.finish(r.cached, SourceStaleCache, nil), nil
		}
		return nil, &LoadError{Kind: ErrVersionCheck, Err: verErr}
	}
	r.res.ServerVersion = serverVersion

	// 2. Compare with the cached version.
	cachedVersion, err := r.l.store.Version(r.ctx)
	switch {
	case err == nil:
		r.res.CachedVersion = cachedVersion
	case errors.Is(err, cache.ErrNotFound):
	default:
		r.cacheWarn(err)
	}

	// 3. Cache hit.
	if err == nil && cachedVersion == serverVersion && r.readCached() {
		return r.finish(r.cached, SourceCache, nil), nil
	}

	// 4. Miss or stale: download, normalize, write through.
	r.log.Info("Fetching dataset", "server_version", serverVersion, "cached_version", cachedVersion)
	raw, fetchErr := r.l.api.Dataset(r.ctx)
	if fetchErr != nil {
		if r.readCached() {
			r.warn(ErrDatasetFetch, fetchErr)
			return r.finish(r.cached, SourceStaleCache, nil), nil
		}
		return nil, &LoadError{Kind: ErrDatasetFetch, Err: fetchErr}
	}

	ds, drops, droppedEdges := Normalize(raw)
	ds.Version = serverVersion
	res := r.finish(ds, SourceNetwork, &normalized{drops: drops, droppedEdges: droppedEdges})

	if err := r.l.store.Put(r.ctx, ds, serverVersion); err != nil {
		r.warn(ErrCacheWrite, err)
	}
	return res, nil
}

type normalized struct {
	drops        []Drop
	droppedEdges int
}

// finish fills the result. Datasets coming from the cache are passed
// through Revalidate; fresh ones were normalized by the caller.
func (r *loadRun) finish(ds *model.Dataset, source Source, n *normalized) *Result {
	if n == nil {
		out, drops, droppedEdges := Revalidate(ds)
		ds, n = out, &normalized{drops: drops, droppedEdges: droppedEdges}
	}
	for _, d := range n.drops {
		r.log.Warn("Dropped dataset record", "index", d.Index, "id", d.ID, "reason", d.Reason())
	}
	r.res.Dataset = ds
	r.res.Source = source
	r.res.Dropped = n.drops
	r.res.DroppedEdges = n.droppedEdges
	return r.res
}

// readCached loads the cached dataset at most once per run and reports
// whether one is available.
func (r *loadRun) readCached() bool {
	if r.read {
		return r.cached != nil
	}
	r.read = true

	ds, err := r.l.store.Dataset(r.ctx)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			r.cacheWarn(err)
		}
		return false
	}
	r.cached = ds
	return true
}

func (r *loadRun) cacheWarn(err error) {
	if errors.Is(err, cache.ErrCorrupt) {
		r.warn(ErrCacheCorrupt, err)
		return
	}
	r.warn(ErrCacheRead, err)
}

func (r *loadRun) warn(kind, err error) {
	r.res.Warnings = append(r.res.Warnings, warn(kind, err))
	metrics.DatasetLoadErrorsTotal.WithLabelValues(kind.Error(), "false").Inc()
	r.log.Warn("Recovered dataset load failure", "kind", kind.Error(), "error", err)
}
