package indexstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"cardvault/internal/catalog"
	"cardvault/internal/fileutil"
	"cardvault/internal/logging"
	"cardvault/internal/services"
)

const lockRetryDelay = 20 * time.Millisecond

// JSONFile keeps the catalog in a single pretty-printed JSON document.
//
// Writers serialize on an in-process mutex and an exclusive flock on
// path+".lock", so several processes may share one index. Readers take a
// shared flock through their own handle.
type JSONFile struct {
	mu   sync.RWMutex
	path string
	lock *flock.Flock
	opts Options
}

// OpenJSON returns a store for path. The file is created on first update.
func OpenJSON(path string, opts Options) (*JSONFile, error) {
	if path == "" {
		return nil, errors.New("json index: path is required")
	}
	return &JSONFile{
		path: path,
		lock: flock.New(path + ".lock"),
		opts: opts.withDefaults(),
	}, nil
}

func (s *JSONFile) Path() string { return s.path }

// Read returns the committed index. A missing file reads as an empty index.
func (s *JSONFile) Read(ctx context.Context) (*catalog.IndexFile, error) {
	if err := ensureContext(ctx).Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	shared := flock.New(s.lock.Path())
	lockCtx, cancel := context.WithTimeout(ensureContext(ctx), s.opts.LockTimeout)
	defer cancel()
	if ok, err := shared.TryRLockContext(lockCtx, lockRetryDelay); err != nil || !ok {
		return nil, services.Wrap(services.ErrTimeout, "indexstore", "read lock",
			fmt.Sprintf("index lock %s not acquired within %s", shared.Path(), s.opts.LockTimeout), err)
	}
	defer func() { _ = shared.Unlock() }()

	return s.load()
}

func (s *JSONFile) Update(ctx context.Context, fn Transform) (*catalog.IndexFile, error) {
	ctx = ensureContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			logging.WarnWithContext(s.opts.Logger, "index lock release failed", "index_unlock_failed",
				logging.String("path", s.lock.Path()),
				logging.Error(err),
				logging.String(logging.FieldImpact, "other writers may wait until this process exits"),
			)
		}
	}()

	idx, err := s.load()
	if err != nil {
		return nil, err
	}
	if err := fn(idx); err != nil {
		return nil, err
	}
	idx.LastUpdated = s.opts.Now().UTC()
	if err := s.save(idx); err != nil {
		return nil, err
	}
	return idx.Clone(), nil
}

func (s *JSONFile) Close() error { return nil }

func (s *JSONFile) acquire(ctx context.Context) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.opts.LockTimeout)
	defer cancel()
	ok, err := s.lock.TryLockContext(lockCtx, lockRetryDelay)
	if err == nil && ok {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return services.Wrap(services.ErrTimeout, "indexstore", "lock",
		fmt.Sprintf("index lock %s not acquired within %s", s.lock.Path(), s.opts.LockTimeout), err)
}

func (s *JSONFile) load() (*catalog.IndexFile, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return catalog.NewIndex(s.opts.RepositoryVersion, s.opts.Now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	if len(data) == 0 {
		return catalog.NewIndex(s.opts.RepositoryVersion, s.opts.Now()), nil
	}
	var idx catalog.IndexFile
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse index %s: %w", s.path, err)
	}
	if idx.RepositoryVersion == "" {
		idx.RepositoryVersion = s.opts.RepositoryVersion
	}
	if idx.Characters == nil {
		idx.Characters = []catalog.Character{}
	}
	return &idx, nil
}

func (s *JSONFile) save(idx *catalog.IndexFile) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}
