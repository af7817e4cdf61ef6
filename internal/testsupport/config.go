package testsupport

import (
	"path/filepath"
	"testing"

	"cardvault/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// TestJWTSecret is the signing secret WithAuth installs.
const TestJWTSecret = "test-secret-0123456789"

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Storage.LocalDir = filepath.Join(base, "data", "files")
	cfgVal.Index.Path = filepath.Join(base, "data", "index.json")
	cfgVal.Index.LockTimeout = 2
	cfgVal.Library.Workers = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure test directories: %v", err)
	}
	return builder.cfg
}

// WithSQLiteIndex switches the index backend to SQLite.
func WithSQLiteIndex() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Index.Backend = config.IndexSQLite
		b.cfg.Index.Path = filepath.Join(b.baseDir, "data", "index.db")
	}
}

// WithAuth configures admin credentials and TestJWTSecret.
func WithAuth(username, password string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Auth.AdminUsername = username
		b.cfg.Auth.AdminPassword = password
		b.cfg.Auth.JWTSecret = TestJWTSecret
	}
}

// WithRemoteStorage points the blob backend at an object-storage endpoint.
func WithRemoteStorage(url, token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Storage.Backend = config.StorageRemote
		b.cfg.Storage.RemoteURL = url
		b.cfg.Storage.RemoteToken = token
	}
}

// WithMaxUploadBytes overrides the per-file upload limit.
func WithMaxUploadBytes(n int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Library.MaxUploadBytes = n
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
