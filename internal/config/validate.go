package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateIndex(); err != nil {
		return err
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case StorageLocal:
		if strings.TrimSpace(c.Storage.LocalDir) == "" {
			return errors.New("storage.local_dir must be set when storage.backend is local")
		}
	case StorageRemote:
		if c.Storage.RemoteURL == "" {
			return errors.New("storage.remote_url must be set when storage.backend is remote")
		}
		parsed, err := url.Parse(c.Storage.RemoteURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("storage.remote_url %q must be an absolute URL", c.Storage.RemoteURL)
		}
		if c.Storage.RemoteToken == "" {
			return errors.New("storage.remote_token must be set when storage.backend is remote (or set CARDVAULT_BLOB_TOKEN)")
		}
	default:
		return fmt.Errorf("storage.backend: unsupported value %q (want local or remote)", c.Storage.Backend)
	}
	return ensurePositiveMap(map[string]int{
		"storage.request_timeout": c.Storage.RequestTimeout,
	})
}

func (c *Config) validateIndex() error {
	switch c.Index.Backend {
	case IndexJSON, IndexSQLite:
	default:
		return fmt.Errorf("index.backend: unsupported value %q (want json or sqlite)", c.Index.Backend)
	}
	return ensurePositiveMap(map[string]int{
		"index.lock_timeout": c.Index.LockTimeout,
	})
}

func (c *Config) validateAuth() error {
	if c.Auth.AdminPassword != "" && strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth.jwt_secret must be set when auth.admin_password is set (or set CARDVAULT_JWT_SECRET)")
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 16 {
		return errors.New("auth.jwt_secret must be at least 16 characters")
	}
	return ensurePositiveMap(map[string]int{
		"auth.token_ttl": c.Auth.TokenTTL,
	})
}

func (c *Config) validateLibrary() error {
	if c.Library.MaxUploadBytes <= 0 {
		return errors.New("library.max_upload_bytes must be positive")
	}
	return ensurePositiveMap(map[string]int{
		"library.workers": c.Library.Workers,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
