package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/sanonone/lawgraph/pkg/model"
)

// BadgerStore keeps both entries in a BadgerDB and writes them in a single
// transaction.
type BadgerStore struct {
	db *badger.DB
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenBadgerStore opens (or creates) a BadgerDB under cfg.Dir.
// An empty Dir opens an in-memory database, which is what tests use.
func OpenBadgerStore(cfg Config) (*BadgerStore, error) {
	var opts badger.Options
	if cfg.Dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Dir, err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func badgerKey(key string) []byte {
	return []byte(Namespace + "/" + key)
}

// Version returns the cached version tag.
func (s *BadgerStore) Version(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var version string
	err := s.db.View(func(txn *badger.Txn) error {
		val, err := getValue(txn, VersionKey)
		if err != nil {
			return err
		}
		version = string(val)
		return nil
	})
	if err != nil {
		return "", err
	}
	return version, nil
}

// Dataset decodes the cached dataset.
func (s *BadgerStore) Dataset(ctx context.Context) (*model.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var blob []byte
	err := s.db.View(func(txn *badger.Txn) error {
		val, err := getValue(txn, DatasetKey)
		if err != nil {
			return err
		}
		blob = val
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decodeDataset(blob)
}

// Put writes both keys in one transaction; either both commit or neither.
func (s *BadgerStore) Put(ctx context.Context, ds *model.Dataset, version string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	blob, err := encodeDataset(ds)
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(badgerKey(DatasetKey), blob); err != nil {
			return err
		}
		return txn.Set(badgerKey(VersionKey), []byte(version))
	})
	if err != nil {
		return fmt.Errorf("badger put: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func getValue(txn *badger.Txn, key string) ([]byte, error) {
	item, err := txn.Get(badgerKey(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("badger get %s: %w", key, err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return val, nil
}
