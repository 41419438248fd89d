package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"RigorScore/internal/domain"
	"RigorScore/internal/ports"
)

// BadgerConfig configures the on-disk verdict cache.
type BadgerConfig struct {
	// Path is ignored when InMemory is set.
	Path     string
	InMemory bool
	// TTL expires entries; zero keeps them until the content hashes change.
	TTL    time.Duration
	Logger *slog.Logger
}

// BadgerVerdictCache persists conflict verdicts in BadgerDB.
type BadgerVerdictCache struct {
	db  *badger.DB
	ttl time.Duration
}

var _ ports.VerdictCache = (*BadgerVerdictCache)(nil)

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

// OpenBadger opens (or creates) the cache database.
func OpenBadger(cfg BadgerConfig) (*BadgerVerdictCache, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("path is required for persistent verdict cache")
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger verdict cache: %w", err)
	}
	return &BadgerVerdictCache{db: db, ttl: cfg.TTL}, nil
}

// Get returns the cached verdict for key.
func (c *BadgerVerdictCache) Get(ctx context.Context, key string) (domain.Verdict, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Verdict{}, false, err
	}

	var verdict domain.Verdict
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &verdict)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Verdict{}, false, nil
	}
	if err != nil {
		return domain.Verdict{}, false, fmt.Errorf("read verdict %s: %w", key, err)
	}
	return verdict, true, nil
}

// Put stores verdict under key.
func (c *BadgerVerdictCache) Put(ctx context.Context, key string, verdict domain.Verdict) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("marshal verdict: %w", err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), raw)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("write verdict %s: %w", key, err)
	}
	return nil
}

// Close flushes and closes the database.
func (c *BadgerVerdictCache) Close() error {
	return c.db.Close()
}
