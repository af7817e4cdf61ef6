package library

import (
	"context"
	"fmt"
	"strings"

	"cardvault/internal/catalog"
	"cardvault/internal/logging"
	"cardvault/internal/services"
)

// Edit describes a character update. When File is set the card is replaced
// and every card-derived field is read from the new file; the text fields
// are ignored. Otherwise only the non-nil text fields change.
type Edit struct {
	Name        *string
	Version     *string
	Description *string
	File        *Upload
}

// Update applies edit to character id.
func (s *Service) Update(ctx context.Context, id string, edit Edit) (catalog.Character, error) {
	if edit.File != nil {
		return s.replaceFile(ctx, id, *edit.File)
	}
	if edit.Name != nil && strings.TrimSpace(*edit.Name) == "" {
		return catalog.Character{}, services.Wrap(services.ErrValidation, "library", "update", "name must not be empty", nil)
	}

	var updated catalog.Character
	_, err := s.index.Update(ctx, func(idx *catalog.IndexFile) error {
		c, ok := idx.Get(id)
		if !ok {
			return notFound("update", id)
		}
		if edit.Name != nil {
			c.Name = strings.TrimSpace(*edit.Name)
		}
		if edit.Version != nil {
			c.Version = strings.TrimSpace(*edit.Version)
		}
		if edit.Description != nil {
			c.Description = *edit.Description
		}
		c.LastUpdated = s.now().UTC()
		updated = *c
		return nil
	})
	if err != nil {
		return catalog.Character{}, err
	}
	return updated, nil
}

// replaceFile stores the new card under a fresh revision, points the index
// at it, and only then deletes the previous files. A failed index update
// removes the new revision and leaves the committed character untouched.
func (s *Service) replaceFile(ctx context.Context, id string, u Upload) (catalog.Character, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return catalog.Character{}, err
	}
	v, p := s.inspect(u)
	if p == nil {
		return catalog.Character{}, services.Wrap(services.ErrValidation, "library", "update", strings.Join(v.Errors, " "), nil)
	}

	logger := logging.WithContext(ctx, s.logger).With(logging.String(logging.FieldCharacterID, id))
	rev := s.newID()
	cardPath, avatarPath := catalog.CardRevisionPath(id, rev), catalog.AvatarRevisionPath(id, rev)
	cardURL, avatarURL, err := s.saveBlobs(ctx, cardPath, avatarPath, p, logger)
	if err != nil {
		return catalog.Character{}, err
	}

	var previous, updated catalog.Character
	_, err = s.index.Update(ctx, func(idx *catalog.IndexFile) error {
		c, ok := idx.Get(id)
		if !ok {
			return notFound("update", id)
		}
		previous = *c
		c.SetCardData(p.data)
		c.CardURL = cardURL
		c.AvatarURL = avatarURL
		c.LastUpdated = s.now().UTC()
		updated = *c
		return nil
	})
	if err != nil {
		s.removeBlobs(ctx, logger, cardPath, avatarPath)
		return catalog.Character{}, err
	}

	oldCard, oldAvatar := previous.BlobPaths()
	var stale []string
	for _, path := range []string{oldCard, oldAvatar} {
		if path != cardPath && path != avatarPath {
			stale = append(stale, path)
		}
	}
	s.removeBlobs(ctx, logger, stale...)
	logger.Info("character file replaced",
		logging.String("name", updated.Name),
		logging.String("revision", rev),
	)
	return updated, nil
}

// Delete removes character id from the index and then deletes its files.
func (s *Service) Delete(ctx context.Context, id string) (catalog.Character, error) {
	var removed catalog.Character
	_, err := s.index.Update(ctx, func(idx *catalog.IndexFile) error {
		c, ok := idx.Remove(id)
		if !ok {
			return notFound("delete", id)
		}
		removed = c
		return nil
	})
	if err != nil {
		return catalog.Character{}, err
	}
	logger := logging.WithContext(ctx, s.logger).With(logging.String(logging.FieldCharacterID, id))
	cardPath, avatarPath := removed.BlobPaths()
	s.removeBlobs(ctx, logger, cardPath, avatarPath)
	logger.Info("character deleted", logging.String("name", removed.Name))
	return removed, nil
}

// Download is a card file ready to be sent as an attachment.
type Download struct {
	Character   catalog.Character
	Data        []byte
	ContentType string
	FileName    string
}

// Download reads the card for id and increments its download counter.
func (s *Service) Download(ctx context.Context, id string) (Download, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Download{}, err
	}
	cardPath, _ := current.BlobPaths()
	data, _, err := s.blobs.Open(ctx, cardPath)
	if err != nil {
		return Download{}, fmt.Errorf("open card %s: %w", id, err)
	}

	var counted catalog.Character
	_, err = s.index.Update(ctx, func(idx *catalog.IndexFile) error {
		c, ok := idx.Get(id)
		if !ok {
			return notFound("download", id)
		}
		c.DownloadCount++
		counted = *c
		return nil
	})
	if err != nil {
		return Download{}, err
	}
	return Download{
		Character:   counted,
		Data:        data,
		ContentType: pngContentType,
		FileName:    catalog.DownloadFileName(counted),
	}, nil
}
