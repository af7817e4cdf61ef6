package preflight

import (
	"context"

	"cardvault/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	switch cfg.Storage.Backend {
	case config.StorageLocal:
		results = append(results, CheckDirectoryAccess("Blob directory", cfg.Storage.LocalDir))
	case config.StorageRemote:
		results = append(results, CheckRemoteStorage(ctx, cfg))
	}

	results = append(results, CheckIndex(ctx, cfg), CheckAuth(cfg))
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
