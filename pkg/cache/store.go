// Package cache persists the last fetched dataset together with its version
// tag.
//
// The cache has no expiry: an entry is stale only when the server declares a
// different version. Both logical entries (the dataset blob and the version
// tag) live under the fixed namespace "law_chunks" and are always written
// together; a failed Put leaves the previous pair intact, so a reader never
// sees a version tag without the dataset it belongs to.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sanonone/lawgraph/pkg/model"
)

// Well-known names of the two cache entries.
const (
	Namespace  = "law_chunks"
	DatasetKey = "law_chunks"
	VersionKey = "law_chunks_version"
)

var (
	// ErrNotFound is returned when nothing has been cached yet.
	ErrNotFound = errors.New("cache entry not found")
	// ErrCorrupt is returned when a persisted entry cannot be decoded.
	ErrCorrupt = errors.New("cache entry corrupt")
)

// Store is a versioned dataset cache.
type Store interface {
	// Version returns the cached version tag, or ErrNotFound.
	Version(ctx context.Context) (string, error)
	// Dataset returns the cached dataset, ErrNotFound, or an error wrapping
	// ErrCorrupt.
	Dataset(ctx context.Context) (*model.Dataset, error)
	// Put atomically replaces both entries.
	Put(ctx context.Context, ds *model.Dataset, version string) error
	// Close releases the underlying resources.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Config selects and configures a Store backend.
type Config struct {
	// Backend is one of "file", "badger" or "memory". Default: "file".
	Backend string
	// Dir is the directory holding the cache. Required for file and badger.
	Dir string
	// SyncWrites makes the badger backend fsync every commit.
	// The file backend always fsyncs before renaming.
	SyncWrites bool
	// Logger receives badger's internal logs. nil disables them.
	Logger *slog.Logger
}

// Open creates the Store described by cfg.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Dir)
	case BackendBadger:
		return OpenBadgerStore(cfg)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend '%s'", cfg.Backend)
	}
}

func encodeDataset(ds *model.Dataset) ([]byte, error) {
	data, err := json.Marshal(ds)
	if err != nil {
		return nil, fmt.Errorf("failed to encode dataset: %w", err)
	}
	return data, nil
}

func decodeDataset(data []byte) (*model.Dataset, error) {
	var ds model.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &ds, nil
}
