package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"cardvault/internal/catalog"
	"cardvault/internal/charcard"
	"cardvault/internal/logging"
	"cardvault/internal/pngchunk"
	"cardvault/internal/services"
)

// Upload is one file as received from a client.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// prepared is a validated upload ready to be stored.
type prepared struct {
	data charcard.CardData
	text pngchunk.TextMap
	raw  []byte
}

// Validate checks an upload without storing anything.
func (s *Service) Validate(u Upload) catalog.Validation {
	v, _ := s.inspect(u)
	return v
}

func (s *Service) inspect(u Upload) (catalog.Validation, *prepared) {
	v := catalog.NewValidation(u.FileName, int64(len(u.Data)))
	if !isPNGContentType(u.ContentType) {
		v.Fail("Invalid file type. Only PNG is allowed.")
	}
	switch size := int64(len(u.Data)); {
	case size == 0:
		v.Fail("File is empty.")
	case size > s.maxUpload:
		v.Fail(fmt.Sprintf("File exceeds the %s size limit.", formatBytes(s.maxUpload)))
	}
	if !v.Valid() {
		return v, nil
	}

	ext, err := charcard.FromPNG(u.Data, s.textOpts...)
	if err != nil {
		var formatErr *pngchunk.FormatError
		switch {
		case errors.As(err, &formatErr):
			v.Fail("Invalid PNG file: " + formatErr.Reason + ".")
		case errors.Is(err, charcard.ErrMissingPayload):
			v.Fail("Character card metadata not found.")
		default:
			v.Fail("Failed to parse character data: " + charcard.ErrUndecodable.Error() + ".")
		}
		return v, nil
	}

	data := ext.Card.Data
	for _, warning := range catalog.ApplyDefaults(&data, catalog.NameHint(u.FileName), s.defaults) {
		v.Warn(warning)
	}
	v.ParsedData = &catalog.ParsedCard{
		Name:        data.Name,
		Author:      data.Creator,
		Version:     string(data.CharacterVersion),
		Description: data.Description,
		FirstMes:    data.FirstMes,
		Tags:        append([]string{}, data.Tags...),
	}
	return v, &prepared{data: data, text: ext.Text, raw: u.Data}
}

// Upload validates u and, when valid, stores it as a new character.
// Invalid uploads return the validation alongside an ErrValidation error.
func (s *Service) Upload(ctx context.Context, u Upload) (catalog.Character, catalog.Validation, error) {
	v, p := s.inspect(u)
	if p == nil {
		return catalog.Character{}, v, services.Wrap(services.ErrValidation, "library", "upload", strings.Join(v.Errors, " "), nil)
	}
	c, err := s.store(ctx, p)
	if err != nil {
		return catalog.Character{}, v, err
	}
	return c, v, nil
}

func (s *Service) store(ctx context.Context, p *prepared) (catalog.Character, error) {
	id := s.newID()
	logger := logging.WithContext(ctx, s.logger).With(logging.String(logging.FieldCharacterID, id))

	cardPath, avatarPath := catalog.CardPath(id), catalog.AvatarPath(id)
	cardURL, avatarURL, err := s.saveBlobs(ctx, cardPath, avatarPath, p, logger)
	if err != nil {
		return catalog.Character{}, err
	}

	c := catalog.NewCharacter(id, p.data, avatarURL, cardURL, s.now())
	if _, err := s.index.Update(ctx, func(idx *catalog.IndexFile) error {
		idx.Characters = append(idx.Characters, c)
		return nil
	}); err != nil {
		s.removeBlobs(ctx, logger, cardPath, avatarPath)
		return catalog.Character{}, fmt.Errorf("add %s to index: %w", id, err)
	}
	logger.Info("character stored",
		logging.String("name", c.Name),
		logging.String("version", c.Version),
		logging.Int("card_bytes", len(p.raw)),
	)
	return c, nil
}

// saveBlobs writes the card and its avatar to paths nothing else references
// yet. When the avatar fails the card is removed again.
func (s *Service) saveBlobs(ctx context.Context, cardPath, avatarPath string, p *prepared, logger *slog.Logger) (string, string, error) {
	cardURL, err := s.blobs.Save(ctx, cardPath, p.raw, pngContentType)
	if err != nil {
		return "", "", fmt.Errorf("save card: %w", err)
	}
	avatarURL, err := s.blobs.Save(ctx, avatarPath, s.avatarFor(p), pngContentType)
	if err != nil {
		s.removeBlobs(ctx, logger, cardPath)
		return "", "", fmt.Errorf("save avatar: %w", err)
	}
	return cardURL, avatarURL, nil
}

// avatarFor prefers an embedded char_avatar image and otherwise strips the
// card down to its image chunks.
func (s *Service) avatarFor(p *prepared) []byte {
	if img, ok := charcard.EmbeddedAvatar(p.text); ok {
		return img
	}
	stripped, err := pngchunk.StripMetadata(p.raw)
	if err != nil {
		logging.WarnWithContext(s.logger, "avatar strip failed; storing card bytes", "avatar_strip_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "avatar keeps card metadata"),
		)
		return p.raw
	}
	return stripped
}

// removeBlobs deletes the given blob paths. Failures only leave orphans, so
// they are logged and otherwise ignored.
func (s *Service) removeBlobs(ctx context.Context, logger *slog.Logger, paths ...string) {
	for _, path := range paths {
		if err := s.blobs.Delete(ctx, path); err != nil {
			logging.WarnWithContext(logger, "blob delete failed", "blob_delete_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the file from storage manually"),
				logging.String(logging.FieldImpact, "orphaned file left in storage"),
			)
		}
	}
}

func isPNGContentType(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && strings.EqualFold(mediaType, pngContentType)
}

func formatBytes(n int64) string {
	const mib = 1 << 20
	if n >= mib && n%mib == 0 {
		return fmt.Sprintf("%dMB", n/mib)
	}
	return fmt.Sprintf("%d bytes", n)
}
