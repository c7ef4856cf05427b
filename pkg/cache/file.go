package cache

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sanonone/lawgraph/pkg/model"
	"github.com/sanonone/lawgraph/pkg/persistence"
)

// FileName is the name of the cache file inside the cache directory.
const FileName = Namespace + ".cache"

// FileStore keeps both entries in a single file of two CRC-checked frames:
// the version tag first, then the dataset. Put rewrites the whole file
// through a temp file and a rename.
//
// Layout: [Frame(OpVersion, version)][Frame(OpDataset, json dataset)]
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a FileStore rooted at dir. The directory is created
// on the first Put.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("cache dir is required for the file backend")
	}
	return &FileStore{path: filepath.Join(dir, FileName)}, nil
}

// Path returns the cache file path.
func (s *FileStore) Path() string {
	return s.path
}

// Version reads only the leading version frame.
func (s *FileStore) Version(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	version, err := readVersionFrame(bufio.NewReader(f))
	if err != nil {
		return "", err
	}
	return version, nil
}

// Dataset reads the version frame and then the dataset frame.
func (s *FileStore) Dataset(ctx context.Context) (*model.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	if _, err := readVersionFrame(r); err != nil {
		return nil, err
	}
	op, payload, err := persistence.ReadFrame(r)
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: dataset frame missing", ErrCorrupt)
		}
		return nil, frameError(err)
	}
	if op != persistence.OpDataset {
		return nil, fmt.Errorf("%w: unexpected opcode %#x for dataset frame", ErrCorrupt, byte(op))
	}
	return decodeDataset(payload)
}

// Put replaces the cache file atomically.
func (s *FileStore) Put(ctx context.Context, ds *model.Dataset, version string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	blob, err := encodeDataset(ds)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return persistence.WriteFileAtomic(s.path, func(fw *persistence.FrameWriter) error {
		if err := fw.WriteFrame(persistence.OpVersion, []byte(version)); err != nil {
			return fmt.Errorf("failed to write version frame: %w", err)
		}
		if err := fw.WriteFrame(persistence.OpDataset, blob); err != nil {
			return fmt.Errorf("failed to write dataset frame: %w", err)
		}
		return nil
	})
}

// Close is a no-op; the file is only held open during reads.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) open() (*os.File, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open cache file: %w", err)
	}
	return f, nil
}

func readVersionFrame(r io.Reader) (string, error) {
	op, payload, err := persistence.ReadFrame(r)
	if err != nil {
		if err == io.EOF {
			// An empty file is what a crash before the first write leaves.
			return "", ErrNotFound
		}
		return "", frameError(err)
	}
	if op != persistence.OpVersion {
		return "", fmt.Errorf("%w: unexpected opcode %#x for version frame", ErrCorrupt, byte(op))
	}
	return string(payload), nil
}

func frameError(err error) error {
	if persistence.IsCorruption(err) {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return fmt.Errorf("failed to read cache file: %w", err)
}
