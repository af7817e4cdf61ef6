package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
}

// Storage selects and configures the blob backend holding card files.
type Storage struct {
	Backend         string `toml:"backend"`
	LocalDir        string `toml:"local_dir"`
	PublicPrefix    string `toml:"public_prefix"`
	RemoteURL       string `toml:"remote_url"`
	RemoteToken     string `toml:"remote_token"`
	RemotePublicURL string `toml:"remote_public_url"`
	RequestTimeout  int    `toml:"request_timeout"`
}

// Index selects and configures the catalog store.
type Index struct {
	Backend           string `toml:"backend"`
	Path              string `toml:"path"`
	LockTimeout       int    `toml:"lock_timeout"`
	RepositoryVersion string `toml:"repository_version"`
}

// Auth contains admin credentials and bearer token settings.
type Auth struct {
	AdminUsername string `toml:"admin_username"`
	// AdminPassword is either plain text or a bcrypt hash.
	AdminPassword string `toml:"admin_password"`
	JWTSecret     string `toml:"jwt_secret"`
	TokenTTL      int    `toml:"token_ttl"`
}

// Library contains upload limits and catalog defaults.
type Library struct {
	MaxUploadBytes     int64  `toml:"max_upload_bytes"`
	Workers            int    `toml:"workers"`
	DefaultName        string `toml:"default_name"`
	DefaultAuthor      string `toml:"default_author"`
	DefaultDescription string `toml:"default_description"`
	DefaultVersion     string `toml:"default_version"`
	// ASCIIText decodes tEXt chunks as 7-bit ASCII instead of Latin-1.
	ASCIIText bool `toml:"ascii_text"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for cardvault.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Storage: local or remote blob backend for card files
//   - Index: JSON or SQLite catalog store
//   - Auth: admin credentials and token signing
//   - Library: upload limits, batch workers, and catalog defaults
//   - Logging: log format, level, and retention
type Config struct {
	Paths   Paths   `toml:"paths"`
	Storage Storage `toml:"storage"`
	Index   Index   `toml:"index"`
	Auth    Auth    `toml:"auth"`
	Library Library `toml:"library"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cardvault.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories, plus the blob
// directory when the local storage backend is selected.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir, filepath.Dir(c.Index.Path)}
	if c.Storage.Backend == StorageLocal {
		dirs = append(dirs, c.Storage.LocalDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockTimeout returns the index lock wait as a duration.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.Index.LockTimeout) * time.Second
}

// RequestTimeout returns the remote storage request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Storage.RequestTimeout) * time.Second
}

// TokenTTL returns the bearer token lifetime as a duration.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTL) * time.Second
}

// AuthEnabled reports whether admin credentials are configured.
func (c *Config) AuthEnabled() bool {
	return strings.TrimSpace(c.Auth.AdminPassword) != "" && strings.TrimSpace(c.Auth.JWTSecret) != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
