package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"cardvault/internal/blobstore"
	"cardvault/internal/config"
	"cardvault/internal/indexstore"
	"cardvault/internal/library"
	"cardvault/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// cliLogger logs to the command's stderr at the configured level. One-shot
// commands do not write the daily log file; serve does.
func (c *commandContext) cliLogger(w io.Writer) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Console: w,
	})
}

// openLibrary opens the configured stores and returns a library service over
// them. Callers must invoke the returned close function when done.
func (c *commandContext) openLibrary(cmd *cobra.Command, logger *slog.Logger) (*library.Service, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	if logger == nil {
		if logger, err = c.cliLogger(cmd.ErrOrStderr()); err != nil {
			return nil, nil, err
		}
	}
	index, err := indexstore.Open(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open index: %w", err)
	}
	blobs, err := blobstore.Open(cfg, logger)
	if err != nil {
		_ = index.Close()
		return nil, nil, fmt.Errorf("open blob storage: %w", err)
	}
	closeFn := func() {
		if err := index.Close(); err != nil {
			logging.WarnWithContext(logger, "index close failed", "index_close_failed",
				logging.String("path", index.Path()),
				logging.Error(err),
			)
		}
	}
	return library.NewFromConfig(cfg, index, blobs, logger), closeFn, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
