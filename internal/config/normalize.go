package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	if err := c.normalizeIndex(); err != nil {
		return err
	}
	c.normalizeAuth()
	c.normalizeLibrary()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeStorage() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = StorageLocal
	}
	if strings.TrimSpace(c.Storage.LocalDir) == "" {
		c.Storage.LocalDir = filepath.Join(c.Paths.DataDir, defaultLocalStorageSubdir)
	}
	var err error
	if c.Storage.LocalDir, err = expandPath(c.Storage.LocalDir); err != nil {
		return fmt.Errorf("storage.local_dir: %w", err)
	}

	prefix := strings.TrimSpace(c.Storage.PublicPrefix)
	if prefix == "" {
		prefix = defaultPublicPrefix
	}
	c.Storage.PublicPrefix = "/" + strings.Trim(prefix, "/")

	c.Storage.RemoteURL = strings.TrimRight(strings.TrimSpace(c.Storage.RemoteURL), "/")
	c.Storage.RemotePublicURL = strings.TrimRight(strings.TrimSpace(c.Storage.RemotePublicURL), "/")
	if value, ok := os.LookupEnv("CARDVAULT_BLOB_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.Storage.RemoteToken = value
	}
	c.Storage.RemoteToken = strings.TrimSpace(c.Storage.RemoteToken)
	return nil
}

func (c *Config) normalizeIndex() error {
	c.Index.Backend = strings.ToLower(strings.TrimSpace(c.Index.Backend))
	if c.Index.Backend == "" {
		c.Index.Backend = IndexJSON
	}
	if strings.TrimSpace(c.Index.Path) == "" {
		name := defaultJSONIndexFileName
		if c.Index.Backend == IndexSQLite {
			name = defaultSQLiteIndexFile
		}
		c.Index.Path = filepath.Join(c.Paths.DataDir, name)
	}
	var err error
	if c.Index.Path, err = expandPath(c.Index.Path); err != nil {
		return fmt.Errorf("index.path: %w", err)
	}
	c.Index.RepositoryVersion = strings.TrimSpace(c.Index.RepositoryVersion)
	if c.Index.RepositoryVersion == "" {
		c.Index.RepositoryVersion = defaultRepositoryVersion
	}
	return nil
}

func (c *Config) normalizeAuth() {
	if value, ok := os.LookupEnv("CARDVAULT_ADMIN_USERNAME"); ok && strings.TrimSpace(value) != "" {
		c.Auth.AdminUsername = value
	}
	if value, ok := os.LookupEnv("CARDVAULT_ADMIN_PASSWORD"); ok && value != "" {
		c.Auth.AdminPassword = value
	}
	if value, ok := os.LookupEnv("CARDVAULT_JWT_SECRET"); ok && value != "" {
		c.Auth.JWTSecret = value
	}
	c.Auth.AdminUsername = strings.TrimSpace(c.Auth.AdminUsername)
	if c.Auth.AdminUsername == "" {
		c.Auth.AdminUsername = defaultAdminUsername
	}
}

func (c *Config) normalizeLibrary() {
	fallback := func(value *string, def string) {
		*value = strings.TrimSpace(*value)
		if *value == "" {
			*value = def
		}
	}
	fallback(&c.Library.DefaultName, defaultCharacterName)
	fallback(&c.Library.DefaultAuthor, defaultCharacterAuthor)
	fallback(&c.Library.DefaultDescription, defaultCharacterDesc)
	fallback(&c.Library.DefaultVersion, defaultCharacterVersion)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
