package indexstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cardvault/internal/catalog"
	"cardvault/internal/config"
	"cardvault/internal/logging"
)

// Transform edits the index in place. Returning an error aborts the update
// and nothing is persisted. A transform runs under the store's exclusive lock
// and must not call back into the same store.
type Transform func(*catalog.IndexFile) error

// Store persists the catalog. Update is the only write path: it takes the
// exclusive lock, loads the committed index, applies fn, stamps
// last_updated, persists, and releases the lock.
type Store interface {
	Read(ctx context.Context) (*catalog.IndexFile, error)
	Update(ctx context.Context, fn Transform) (*catalog.IndexFile, error)
	Path() string
	Close() error
}

// Options tune a store independent of its backend.
type Options struct {
	RepositoryVersion string
	LockTimeout       time.Duration
	Logger            *slog.Logger
	// Now overrides the clock used for last_updated stamps.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.RepositoryVersion == "" {
		o.RepositoryVersion = "1.0.0"
	}
	if o.LockTimeout <= 0 {
		o.LockTimeout = 10 * time.Second
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Open selects the backend named by index.backend.
func Open(cfg *config.Config, logger *slog.Logger) (Store, error) {
	opts := Options{
		RepositoryVersion: cfg.Index.RepositoryVersion,
		LockTimeout:       cfg.LockTimeout(),
		Logger:            logging.NewComponentLogger(logger, "indexstore"),
	}
	switch cfg.Index.Backend {
	case config.IndexJSON:
		return OpenJSON(cfg.Index.Path, opts)
	case config.IndexSQLite:
		return OpenSQLite(cfg.Index.Path, opts)
	default:
		return nil, fmt.Errorf("index backend %q not supported", cfg.Index.Backend)
	}
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
