package cache

import (
	"context"
	"sync"

	"github.com/sanonone/lawgraph/pkg/model"
)

// MemoryStore is a process-local Store. Entries are kept encoded, so the
// dataset returned by Dataset never aliases the one given to Put.
type MemoryStore struct {
	mu      sync.RWMutex
	version string
	blob    []byte
	present bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Version returns the cached version tag.
func (s *MemoryStore) Version(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.present {
		return "", ErrNotFound
	}
	return s.version, nil
}

// Dataset decodes the cached dataset.
func (s *MemoryStore) Dataset(ctx context.Context) (*model.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	blob, present := s.blob, s.present
	s.mu.RUnlock()

	if !present {
		return nil, ErrNotFound
	}
	return decodeDataset(blob)
}

// Put replaces both entries under one lock.
func (s *MemoryStore) Put(ctx context.Context, ds *model.Dataset, version string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	blob, err := encodeDataset(ds)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.version, s.blob, s.present = version, blob, true
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
