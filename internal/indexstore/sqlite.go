package indexstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cardvault/internal/catalog"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	metaRepositoryVersion = "repository_version"
	metaLastUpdated       = "last_updated"
)

// SQLite keeps the catalog in a database with one row per character.
// Updates run inside a single immediate transaction, so the database's own
// write lock serializes writers across processes.
type SQLite struct {
	db   *sql.DB
	path string
	opts Options
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string, opts Options) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite index: path is required")
	}
	opts = opts.withDefaults()

	db, err := sql.Open("sqlite", path+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", opts.LockTimeout.Milliseconds()),
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLite{db: db, path: path, opts: opts}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLite) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) Read(ctx context.Context) (*catalog.IndexFile, error) {
	ctx = ensureContext(ctx)
	var idx *catalog.IndexFile
	err := retryOnBusy(ctx, func() error {
		var loadErr error
		idx, loadErr = loadIndex(ctx, s.db)
		return loadErr
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

func (s *SQLite) Update(ctx context.Context, fn Transform) (*catalog.IndexFile, error) {
	ctx = ensureContext(ctx)
	var (
		result *catalog.IndexFile
		fnErr  error
	)
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin index tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		idx, err := loadIndex(ctx, tx)
		if err != nil {
			return err
		}
		if fnErr = fn(idx); fnErr != nil {
			return fnErr
		}
		idx.LastUpdated = s.opts.Now().UTC()
		if err := storeIndex(ctx, tx, idx); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit index: %w", err)
		}
		result = idx
		return nil
	})
	if fnErr != nil {
		return nil, fnErr
	}
	if err != nil {
		return nil, err
	}
	return result.Clone(), nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadIndex(ctx context.Context, q querier) (*catalog.IndexFile, error) {
	idx := &catalog.IndexFile{Characters: []catalog.Character{}}

	metaRows, err := q.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("query meta: %w", err)
	}
	defer metaRows.Close()
	for metaRows.Next() {
		var key, value string
		if err := metaRows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan meta: %w", err)
		}
		switch key {
		case metaRepositoryVersion:
			idx.RepositoryVersion = value
		case metaLastUpdated:
			idx.LastUpdated = parseTime(value)
		}
	}
	if err := metaRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meta: %w", err)
	}

	rows, err := q.QueryContext(ctx, `SELECT id, name, author, version, description, tags, first_mes,
		avatar_url, card_url, last_updated, upload_time, download_count
		FROM characters ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query characters: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			c                       catalog.Character
			tags, updated, uploaded string
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Author, &c.Version, &c.Description, &tags, &c.FirstMes,
			&c.AvatarURL, &c.CardURL, &updated, &uploaded, &c.DownloadCount); err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
			return nil, fmt.Errorf("decode tags for %s: %w", c.ID, err)
		}
		if c.Tags == nil {
			c.Tags = []string{}
		}
		c.LastUpdated = parseTime(updated)
		c.UploadTime = parseTime(uploaded)
		idx.Characters = append(idx.Characters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate characters: %w", err)
	}
	return idx, nil
}

func storeIndex(ctx context.Context, tx *sql.Tx, idx *catalog.IndexFile) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM characters"); err != nil {
		return fmt.Errorf("clear characters: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO characters (id, position, name, author, version,
		description, tags, first_mes, avatar_url, card_url, last_updated, upload_time, download_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range idx.Characters {
		tags := c.Tags
		if tags == nil {
			tags = []string{}
		}
		encoded, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("encode tags for %s: %w", c.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, i, c.Name, c.Author, c.Version, c.Description,
			string(encoded), c.FirstMes, c.AvatarURL, c.CardURL,
			formatTime(c.LastUpdated), formatTime(c.UploadTime), c.DownloadCount); err != nil {
			return fmt.Errorf("insert character %s: %w", c.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?), (?, ?)",
		metaRepositoryVersion, idx.RepositoryVersion,
		metaLastUpdated, formatTime(idx.LastUpdated),
	); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
