package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"syscall"

	"cardvault/internal/fileutil"
	"cardvault/internal/logging"
	"cardvault/internal/services"
)

// Local stores blobs on disk under Root.
type Local struct {
	Root   string
	Prefix string
	Logger *slog.Logger
}

func NewLocal(root, publicPrefix string) (*Local, error) {
	if root == "" {
		return nil, services.Wrap(services.ErrConfiguration, "blobstore", "open", "storage.local_dir is required", nil)
	}
	if publicPrefix == "" {
		publicPrefix = "/files"
	}
	return &Local{Root: root, Prefix: publicPrefix, Logger: logging.NewNop()}, nil
}

func (l *Local) Name() string { return "local" }

func (l *Local) Save(ctx context.Context, p string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleaned, full, err := l.resolve(p)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", services.Wrap(services.ErrStorage, "blobstore", "save", "create directory", err)
	}
	if err := fileutil.WriteFileAtomic(full, data, 0o644); err != nil {
		return "", services.Wrap(services.ErrStorage, "blobstore", "save", cleaned, err)
	}
	return joinURL(l.Prefix, cleaned), nil
}

// Delete removes the blob. Missing files are not an error.
func (l *Local) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cleaned, full, err := l.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrStorage, "blobstore", "delete", cleaned, err)
	}
	if dir := filepath.Dir(full); dir != filepath.Clean(l.Root) {
		l.pruneDir(dir)
	}
	return nil
}

// pruneDir drops a per-character directory once it is empty. A directory
// that still holds files is expected; anything else is logged.
func (l *Local) pruneDir(dir string) {
	err := os.Remove(dir)
	if err == nil || errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTEMPTY) || errors.Is(err, syscall.EEXIST) {
		return
	}
	logger := l.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger.Debug("blob directory not removed",
		logging.String("path", dir),
		logging.Error(err),
		logging.String(logging.FieldEventType, "blob_dir_prune_failed"),
	)
}

func (l *Local) Open(ctx context.Context, p string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	cleaned, full, err := l.resolve(p)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", services.Wrap(services.ErrNotFound, "blobstore", "open", fmt.Sprintf("blob %s not found", cleaned), nil)
	}
	if err != nil {
		return nil, "", services.Wrap(services.ErrStorage, "blobstore", "open", cleaned, err)
	}
	return data, contentTypeFor(cleaned), nil
}

func (l *Local) resolve(p string) (string, string, error) {
	cleaned, err := CleanPath(p)
	if err != nil {
		return "", "", err
	}
	return cleaned, filepath.Join(l.Root, filepath.FromSlash(cleaned)), nil
}

func contentTypeFor(p string) string {
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
