package library

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"cardvault/internal/catalog"
	"cardvault/internal/logging"
	"cardvault/internal/services"
)

// Batch statuses beyond catalog.StatusValid and catalog.StatusInvalid.
const (
	StatusUploaded = "uploaded"
	StatusFailed   = "failed"
)

// FileResult is the per-file outcome of a batch upload.
type FileResult struct {
	catalog.Validation
	CharacterID string `json:"characterId,omitempty"`
}

// BatchSummary counts batch outcomes.
type BatchSummary struct {
	SuccessCount int `json:"successCount"`
	FailCount    int `json:"failCount"`
	SkipCount    int `json:"skipCount"`
}

// BatchResult reports a batch upload. Skipped files failed validation;
// failed files passed validation but could not be stored.
type BatchResult struct {
	Total      int          `json:"total"`
	Successful []FileResult `json:"successful"`
	Failed     []FileResult `json:"failed"`
	Skipped    []FileResult `json:"skipped"`
	Summary    BatchSummary `json:"summary"`
}

// Message is a one-line summary of the batch.
func (r BatchResult) Message() string {
	return fmt.Sprintf("Batch upload finished: %d succeeded, %d failed, %d skipped",
		r.Summary.SuccessCount, r.Summary.FailCount, r.Summary.SkipCount)
}

// ValidateBatch validates every upload concurrently. Results keep input order.
func (s *Service) ValidateBatch(ctx context.Context, uploads []Upload) ([]catalog.Validation, error) {
	validations, _, err := s.inspectAll(ctx, uploads)
	return validations, err
}

// UploadBatch validates every upload first, then stores the valid ones.
func (s *Service) UploadBatch(ctx context.Context, uploads []Upload) (BatchResult, error) {
	validations, preps, err := s.inspectAll(ctx, uploads)
	if err != nil {
		return BatchResult{}, err
	}

	results := make([]FileResult, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range uploads {
		results[i] = FileResult{Validation: validations[i]}
		if preps[i] == nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := s.store(gctx, preps[i])
			if err != nil {
				results[i].Status = StatusFailed
				results[i].Errors = append(results[i].Errors, "Upload failed: "+err.Error())
				logging.WarnWithContext(s.logger, "batch upload item failed", "batch_upload_item_failed",
					logging.String("file", uploads[i].FileName),
					logging.Error(err),
					logging.String(logging.FieldImpact, "file skipped; remaining files continue"),
				)
				return nil
			}
			results[i].Status = StatusUploaded
			results[i].CharacterID = c.ID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}

	out := BatchResult{
		Total:      len(uploads),
		Successful: []FileResult{},
		Failed:     []FileResult{},
		Skipped:    []FileResult{},
	}
	for _, r := range results {
		switch r.Status {
		case StatusUploaded:
			out.Successful = append(out.Successful, r)
		case StatusFailed:
			out.Failed = append(out.Failed, r)
		default:
			out.Skipped = append(out.Skipped, r)
		}
	}
	out.Summary = BatchSummary{
		SuccessCount: len(out.Successful),
		FailCount:    len(out.Failed),
		SkipCount:    len(out.Skipped),
	}
	s.logger.Info("batch upload finished",
		logging.Int("total", out.Total),
		logging.Int("successful", out.Summary.SuccessCount),
		logging.Int("failed", out.Summary.FailCount),
		logging.Int("skipped", out.Summary.SkipCount),
	)
	return out, nil
}

func (s *Service) inspectAll(ctx context.Context, uploads []Upload) ([]catalog.Validation, []*prepared, error) {
	if len(uploads) == 0 {
		return nil, nil, services.Wrap(services.ErrValidation, "library", "batch", "no files provided", nil)
	}
	validations := make([]catalog.Validation, len(uploads))
	preps := make([]*prepared, len(uploads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, u := range uploads {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			validations[i], preps[i] = s.inspect(u)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return validations, preps, nil
}
