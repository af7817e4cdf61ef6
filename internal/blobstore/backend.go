package blobstore

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"cardvault/internal/config"
	"cardvault/internal/logging"
	"cardvault/internal/services"
)

// Backend persists blobs and reports the public URL they are served from.
type Backend interface {
	Name() string
	Save(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
	Open(ctx context.Context, path string) ([]byte, string, error)
}

// Open builds the backend selected by cfg.
func Open(cfg *config.Config, logger *slog.Logger) (Backend, error) {
	logger = logging.NewComponentLogger(logger, "blobstore")
	switch cfg.Storage.Backend {
	case config.StorageLocal:
		local, err := NewLocal(cfg.Storage.LocalDir, cfg.Storage.PublicPrefix)
		if err != nil {
			return nil, err
		}
		local.Logger = logger
		return local, nil
	case config.StorageRemote:
		return NewRemote(RemoteOptions{
			BaseURL:   cfg.Storage.RemoteURL,
			PublicURL: cfg.Storage.RemotePublicURL,
			Token:     cfg.Storage.RemoteToken,
			Timeout:   cfg.RequestTimeout(),
			Logger:    logger,
		})
	default:
		return nil, services.Wrap(services.ErrConfiguration, "blobstore", "open",
			fmt.Sprintf("storage backend %q not supported", cfg.Storage.Backend), nil)
	}
}

// CleanPath normalizes a blob path and rejects anything that would escape
// the storage root.
func CleanPath(p string) (string, error) {
	trimmed := strings.TrimLeft(strings.ReplaceAll(p, "\\", "/"), "/")
	if trimmed == "" {
		return "", services.Wrap(services.ErrValidation, "blobstore", "path", "empty blob path", nil)
	}
	cleaned := path.Clean(trimmed)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", services.Wrap(services.ErrValidation, "blobstore", "path",
			fmt.Sprintf("blob path %q escapes the storage root", p), nil)
	}
	return cleaned, nil
}

func joinURL(base, p string) string {
	return strings.TrimRight(base, "/") + "/" + p
}
