package catalog

import (
	"fmt"
	"strings"
	"time"

	"cardvault/internal/charcard"
	"cardvault/internal/config"
	"cardvault/internal/textutil"
)

// Defaults fill card fields the payload left empty.
type Defaults struct {
	Name        string
	Author      string
	Description string
	Version     string
}

// DefaultsFromConfig reads the [library] default_* keys.
func DefaultsFromConfig(cfg *config.Config) Defaults {
	return Defaults{
		Name:        cfg.Library.DefaultName,
		Author:      cfg.Library.DefaultAuthor,
		Description: cfg.Library.DefaultDescription,
		Version:     cfg.Library.DefaultVersion,
	}
}

// ApplyDefaults fills blank fields of data in place. A blank name takes
// nameHint (usually the upload's file name without extension) before falling
// back to d.Name. The returned warnings describe each substitution.
func ApplyDefaults(data *charcard.CardData, nameHint string, d Defaults) []string {
	var warnings []string

	data.Name = strings.TrimSpace(data.Name)
	if data.Name == "" {
		if hint := strings.TrimSpace(nameHint); hint != "" {
			data.Name = hint
			warnings = append(warnings, fmt.Sprintf("Character name missing, using filename %q", hint))
		} else {
			data.Name = d.Name
			warnings = append(warnings, fmt.Sprintf("Character name missing, using %q", d.Name))
		}
	}
	if strings.TrimSpace(data.Creator) == "" {
		data.Creator = d.Author
	}
	if strings.TrimSpace(data.Description) == "" {
		data.Description = d.Description
		warnings = append(warnings, "Description missing, using default")
	}
	if strings.TrimSpace(string(data.CharacterVersion)) == "" {
		data.CharacterVersion = charcard.LooseString(d.Version)
		warnings = append(warnings, fmt.Sprintf("Version missing, using %q", d.Version))
	}
	return warnings
}

// NewCharacter builds a catalog entry from defaulted card data.
func NewCharacter(id string, data charcard.CardData, avatarURL, cardURL string, now time.Time) Character {
	now = now.UTC()
	c := Character{
		ID:          id,
		AvatarURL:   avatarURL,
		CardURL:     cardURL,
		LastUpdated: now,
		UploadTime:  now,
	}
	c.SetCardData(data)
	return c
}

// SetCardData copies the card-derived fields onto c.
func (c *Character) SetCardData(data charcard.CardData) {
	c.Name = data.Name
	c.Author = data.Creator
	c.Version = string(data.CharacterVersion)
	c.Description = data.Description
	c.FirstMes = data.FirstMes
	c.Tags = append([]string{}, data.Tags...)
}

// DownloadFileName is the attachment name offered for a card download.
func DownloadFileName(c Character) string {
	name := textutil.SanitizeFileName(c.Name)
	if name == "" {
		name = "character"
	}
	version := textutil.SanitizeFileName(c.Version)
	if version == "" {
		return name + ".png"
	}
	return name + "_v" + version + ".png"
}

// NameHint derives a fallback character name from an upload file name.
func NameHint(fileName string) string {
	return textutil.StemName(fileName)
}
