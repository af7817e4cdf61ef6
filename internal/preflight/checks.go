package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"cardvault/internal/blobstore"
	"cardvault/internal/config"
	"cardvault/internal/indexstore"
	"cardvault/internal/logging"
	"cardvault/internal/services"
)

// remoteProbePath is fetched to prove the object store answers; a 404 is
// the expected reply.
const remoteProbePath = ".cardvault-preflight"

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckIndex opens the configured index store and reads it once.
func CheckIndex(ctx context.Context, cfg *config.Config) Result {
	name := fmt.Sprintf("Index (%s)", cfg.Index.Backend)

	store, err := indexstore.Open(cfg, logging.NewNop())
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: open: %v)", cfg.Index.Path, err)}
	}
	defer store.Close()

	checkCtx, cancel := context.WithTimeout(ctx, cfg.LockTimeout()+time.Second)
	defer cancel()
	idx, err := store.Read(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: read: %v)", cfg.Index.Path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d characters)", cfg.Index.Path, len(idx.Characters))}
}

// CheckRemoteStorage verifies the object store is configured and answers
// authenticated requests.
func CheckRemoteStorage(ctx context.Context, cfg *config.Config) Result {
	const name = "Remote storage"

	backend, err := blobstore.Open(cfg, logging.NewNop())
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err = backend.Open(checkCtx, remoteProbePath)
	switch {
	case err == nil, errors.Is(err, services.ErrNotFound):
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", cfg.Storage.RemoteURL)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.Storage.RemoteURL, err)}
	}
}

// CheckAuth reports whether admin routes are usable. Missing credentials are
// not a failure: the catalog stays readable and admin routes answer 503.
func CheckAuth(cfg *config.Config) Result {
	const name = "Admin auth"
	if !cfg.AuthEnabled() {
		return Result{Name: name, Passed: true, Detail: "Disabled (set auth.admin_password and auth.jwt_secret)"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Enabled for %q", cfg.Auth.AdminUsername)}
}
