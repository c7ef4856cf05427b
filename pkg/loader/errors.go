package loader

import (
	"errors"
	"fmt"
)

// Error kinds. Load-level failures are returned as *LoadError whose Kind is
// one of these; recovered failures show up in Result.Warnings wrapping them.
var (
	// ErrVersionCheck: the version endpoint could not be queried.
	ErrVersionCheck = errors.New("version check failed")
	// ErrDatasetFetch: the full dataset could not be downloaded.
	ErrDatasetFetch = errors.New("dataset fetch failed")
	// ErrCacheRead: the cache could not be read; treated as a miss.
	ErrCacheRead = errors.New("cache read failed")
	// ErrCacheCorrupt: a cache entry could not be decoded; treated as a miss.
	ErrCacheCorrupt = errors.New("cache corrupt")
	// ErrCacheWrite: the fresh dataset could not be persisted.
	ErrCacheWrite = errors.New("cache write failed")
	// ErrNormalization: a record was dropped during normalization.
	ErrNormalization = errors.New("invalid record")
)

// LoadError is returned when Load cannot produce any dataset.
// errors.Is matches both Kind and the underlying cause.
type LoadError struct {
	Kind error
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load failed: %v: %v", e.Kind, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func warn(kind, err error) error {
	return fmt.Errorf("%w: %w", kind, err)
}
