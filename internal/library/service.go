package library

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cardvault/internal/blobstore"
	"cardvault/internal/catalog"
	"cardvault/internal/config"
	"cardvault/internal/indexstore"
	"cardvault/internal/logging"
	"cardvault/internal/pngchunk"
	"cardvault/internal/services"
)

const pngContentType = "image/png"

// Options configure a Service.
type Options struct {
	Defaults       catalog.Defaults
	MaxUploadBytes int64
	Workers        int
	// ASCIIText decodes tEXt chunks as 7-bit ASCII instead of Latin-1.
	ASCIIText bool
	Logger    *slog.Logger
	Now       func() time.Time
	NewID     func() string
}

// Service ties the codec to the index and blob stores.
type Service struct {
	index     indexstore.Store
	blobs     blobstore.Backend
	defaults  catalog.Defaults
	maxUpload int64
	workers   int
	textOpts  []pngchunk.TextOption
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// New constructs a Service.
func New(index indexstore.Store, blobs blobstore.Backend, opts Options) *Service {
	logger := logging.NewComponentLogger(opts.Logger, "library")
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	textOpts := []pngchunk.TextOption{pngchunk.WithLogger(logger)}
	if opts.ASCIIText {
		textOpts = append(textOpts, pngchunk.WithASCII())
	}
	return &Service{
		index:     index,
		blobs:     blobs,
		defaults:  opts.Defaults,
		maxUpload: opts.MaxUploadBytes,
		workers:   opts.Workers,
		textOpts:  textOpts,
		logger:    logger,
		now:       opts.Now,
		newID:     opts.NewID,
	}
}

// NewFromConfig constructs a Service using the [library] section.
func NewFromConfig(cfg *config.Config, index indexstore.Store, blobs blobstore.Backend, logger *slog.Logger) *Service {
	return New(index, blobs, Options{
		Defaults:       catalog.DefaultsFromConfig(cfg),
		MaxUploadBytes: cfg.Library.MaxUploadBytes,
		Workers:        cfg.Library.Workers,
		ASCIIText:      cfg.Library.ASCIIText,
		Logger:         logger,
	})
}

// MaxUploadBytes is the per-file size limit.
func (s *Service) MaxUploadBytes() int64 { return s.maxUpload }

// List returns the whole catalog.
func (s *Service) List(ctx context.Context) (*catalog.IndexFile, error) {
	return s.index.Read(ctx)
}

// Get returns one character.
func (s *Service) Get(ctx context.Context, id string) (catalog.Character, error) {
	idx, err := s.index.Read(ctx)
	if err != nil {
		return catalog.Character{}, err
	}
	c, ok := idx.Get(id)
	if !ok {
		return catalog.Character{}, notFound("get", id)
	}
	return *c, nil
}

// OpenFile returns a stored blob and its content type.
func (s *Service) OpenFile(ctx context.Context, path string) ([]byte, string, error) {
	return s.blobs.Open(ctx, path)
}

func notFound(operation, id string) error {
	return services.Wrap(services.ErrNotFound, "library", operation, fmt.Sprintf("character %s not found", id), nil)
}
