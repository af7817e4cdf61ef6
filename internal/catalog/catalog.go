package catalog

import (
	"slices"
	"strings"
	"time"
)

// Character is one catalog entry as persisted in the index.
type Character struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Author        string    `json:"author"`
	Version       string    `json:"version"`
	Description   string    `json:"description"`
	Tags          []string  `json:"tags"`
	FirstMes      string    `json:"first_mes"`
	AvatarURL     string    `json:"avatar_url"`
	CardURL       string    `json:"card_url"`
	LastUpdated   time.Time `json:"last_updated"`
	UploadTime    time.Time `json:"upload_time,omitzero"`
	DownloadCount int       `json:"download_count"`
}

// IndexFile is the whole catalog document.
type IndexFile struct {
	RepositoryVersion string      `json:"repository_version"`
	LastUpdated       time.Time   `json:"last_updated"`
	Characters        []Character `json:"characters"`
}

// NewIndex returns an empty catalog.
func NewIndex(repositoryVersion string, now time.Time) *IndexFile {
	return &IndexFile{
		RepositoryVersion: repositoryVersion,
		LastUpdated:       now.UTC(),
		Characters:        []Character{},
	}
}

// Find returns the position of id in Characters.
func (f *IndexFile) Find(id string) (int, bool) {
	for i := range f.Characters {
		if f.Characters[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// Get returns a pointer into Characters for in-place edits inside an update.
func (f *IndexFile) Get(id string) (*Character, bool) {
	i, ok := f.Find(id)
	if !ok {
		return nil, false
	}
	return &f.Characters[i], true
}

// Remove deletes id and returns the removed entry.
func (f *IndexFile) Remove(id string) (Character, bool) {
	i, ok := f.Find(id)
	if !ok {
		return Character{}, false
	}
	removed := f.Characters[i]
	f.Characters = slices.Delete(f.Characters, i, i+1)
	return removed, true
}

// Clone returns a deep copy so readers never share slices with the store.
func (f *IndexFile) Clone() *IndexFile {
	if f == nil {
		return nil
	}
	out := *f
	out.Characters = make([]Character, len(f.Characters))
	for i, c := range f.Characters {
		c.Tags = slices.Clone(c.Tags)
		out.Characters[i] = c
	}
	return &out
}

// Storage paths for a character's blobs. A replaced card is written under a
// fresh revision so the committed files stay intact until the index points
// at the new ones.
func CardPath(id string) string   { return characterDir(id) + "card.png" }
func AvatarPath(id string) string { return characterDir(id) + "avatar.png" }

func CardRevisionPath(id, rev string) string   { return characterDir(id) + "card-" + rev + ".png" }
func AvatarRevisionPath(id, rev string) string { return characterDir(id) + "avatar-" + rev + ".png" }

func characterDir(id string) string { return "characters/" + id + "/" }

// BlobPath recovers the storage path behind a blob URL of character id.
// URLs that do not embed the character directory map to fallback.
func BlobPath(id, url, fallback string) string {
	dir := characterDir(id)
	i := strings.LastIndex(url, dir)
	if i < 0 || i+len(dir) == len(url) {
		return fallback
	}
	name := url[i+len(dir):]
	if strings.ContainsAny(name, "/?#") {
		return fallback
	}
	return dir + name
}

// BlobPaths returns the card and avatar storage paths c currently points at.
func (c Character) BlobPaths() (card, avatar string) {
	return BlobPath(c.ID, c.CardURL, CardPath(c.ID)), BlobPath(c.ID, c.AvatarURL, AvatarPath(c.ID))
}
