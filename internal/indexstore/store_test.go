package indexstore_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"cardvault/internal/catalog"
	"cardvault/internal/indexstore"
	"cardvault/internal/services"
)

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

type backend struct {
	name string
	open func(t *testing.T, path string, opts indexstore.Options) indexstore.Store
	file string
}

var backends = []backend{
	{
		name: "json",
		file: "index.json",
		open: func(t *testing.T, path string, opts indexstore.Options) indexstore.Store {
			t.Helper()
			s, err := indexstore.OpenJSON(path, opts)
			if err != nil {
				t.Fatalf("OpenJSON: %v", err)
			}
			return s
		},
	},
	{
		name: "sqlite",
		file: "index.db",
		open: func(t *testing.T, path string, opts indexstore.Options) indexstore.Store {
			t.Helper()
			s, err := indexstore.OpenSQLite(path, opts)
			if err != nil {
				t.Fatalf("OpenSQLite: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	},
}

func addCharacter(id string) indexstore.Transform {
	return func(idx *catalog.IndexFile) error {
		idx.Characters = append(idx.Characters, catalog.Character{
			ID:          id,
			Name:        "Name " + id,
			Author:      "author",
			Version:     "1.0",
			Description: "desc",
			Tags:        []string{"a", "b"},
			LastUpdated: fixedNow,
			UploadTime:  fixedNow,
		})
		return nil
	}
}

func TestEmptyIndexRead(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t, filepath.Join(t.TempDir(), b.file), indexstore.Options{RepositoryVersion: "9.9.9", Now: func() time.Time { return fixedNow }})
			idx, err := s.Read(context.Background())
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if idx.RepositoryVersion != "9.9.9" {
				t.Fatalf("repository version = %q", idx.RepositoryVersion)
			}
			if idx.Characters == nil || len(idx.Characters) != 0 {
				t.Fatalf("expected empty non-nil characters, got %#v", idx.Characters)
			}
		})
	}
}

func TestUpdatePersistsAndStamps(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), b.file)
			stamp := fixedNow.Add(time.Hour)
			s := b.open(t, path, indexstore.Options{Now: func() time.Time { return stamp }})

			got, err := s.Update(context.Background(), addCharacter("one"))
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if !got.LastUpdated.Equal(stamp) {
				t.Fatalf("last_updated = %v want %v", got.LastUpdated, stamp)
			}

			reopened := b.open(t, path, indexstore.Options{})
			idx, err := reopened.Read(context.Background())
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if len(idx.Characters) != 1 {
				t.Fatalf("characters = %d", len(idx.Characters))
			}
			c := idx.Characters[0]
			if c.ID != "one" || c.Name != "Name one" || len(c.Tags) != 2 || c.Tags[1] != "b" {
				t.Fatalf("unexpected character %+v", c)
			}
			if !c.UploadTime.Equal(fixedNow) || !idx.LastUpdated.Equal(stamp) {
				t.Fatalf("timestamps not preserved: %+v / %v", c, idx.LastUpdated)
			}
		})
	}
}

func TestUpdatePreservesOrder(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t, filepath.Join(t.TempDir(), b.file), indexstore.Options{})
			for _, id := range []string{"c", "a", "b"} {
				if _, err := s.Update(context.Background(), addCharacter(id)); err != nil {
					t.Fatalf("Update(%s): %v", id, err)
				}
			}
			idx, err := s.Read(context.Background())
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			var order []string
			for _, c := range idx.Characters {
				order = append(order, c.ID)
			}
			if fmt.Sprint(order) != "[c a b]" {
				t.Fatalf("order = %v", order)
			}
		})
	}
}

func TestTransformErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t, filepath.Join(t.TempDir(), b.file), indexstore.Options{})
			if _, err := s.Update(context.Background(), addCharacter("keep")); err != nil {
				t.Fatalf("seed: %v", err)
			}
			_, err := s.Update(context.Background(), func(idx *catalog.IndexFile) error {
				idx.Characters = nil
				return boom
			})
			if !errors.Is(err, boom) {
				t.Fatalf("expected transform error, got %v", err)
			}
			idx, err := s.Read(context.Background())
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if len(idx.Characters) != 1 || idx.Characters[0].ID != "keep" {
				t.Fatalf("aborted update leaked: %+v", idx.Characters)
			}
		})
	}
}

func TestReadReturnsCopy(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t, filepath.Join(t.TempDir(), b.file), indexstore.Options{})
			got, err := s.Update(context.Background(), addCharacter("x"))
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			got.Characters[0].Tags[0] = "mutated"
			idx, err := s.Read(context.Background())
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if idx.Characters[0].Tags[0] != "a" {
				t.Fatal("caller mutation reached the store")
			}
		})
	}
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), b.file)
			s := b.open(t, path, indexstore.Options{})
			if _, err := s.Update(context.Background(), addCharacter("counter")); err != nil {
				t.Fatalf("seed: %v", err)
			}

			const workers = 20
			var wg sync.WaitGroup
			errs := make(chan error, workers)
			for range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := s.Update(context.Background(), func(idx *catalog.IndexFile) error {
						c, ok := idx.Get("counter")
						if !ok {
							return errors.New("counter missing")
						}
						c.DownloadCount++
						return nil
					})
					errs <- err
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				if err != nil {
					t.Fatalf("Update: %v", err)
				}
			}

			idx, err := s.Read(context.Background())
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if got := idx.Characters[0].DownloadCount; got != workers {
				t.Fatalf("download_count = %d want %d", got, workers)
			}
		})
	}
}

func TestJSONStoresShareLockAcrossHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	first, err := indexstore.OpenJSON(path, indexstore.Options{})
	if err != nil {
		t.Fatalf("OpenJSON: %v", err)
	}
	second, err := indexstore.OpenJSON(path, indexstore.Options{})
	if err != nil {
		t.Fatalf("OpenJSON: %v", err)
	}

	var wg sync.WaitGroup
	for i := range 10 {
		for _, s := range []*indexstore.JSONFile{first, second} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.Update(context.Background(), addCharacter(fmt.Sprintf("%p-%d", s, i))); err != nil {
					t.Errorf("Update: %v", err)
				}
			}()
		}
	}
	wg.Wait()

	idx, err := first.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(idx.Characters) != 20 {
		t.Fatalf("characters = %d want 20 (lost updates)", len(idx.Characters))
	}
}

func TestJSONLockTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	holder := flock.New(path + ".lock")
	if err := holder.Lock(); err != nil {
		t.Fatalf("hold lock: %v", err)
	}
	defer func() { _ = holder.Unlock() }()

	s, err := indexstore.OpenJSON(path, indexstore.Options{LockTimeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("OpenJSON: %v", err)
	}
	_, err = s.Update(context.Background(), addCharacter("x"))
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("index should not exist after failed update: %v", statErr)
	}
}

func TestJSONRejectsCorruptIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := indexstore.OpenJSON(path, indexstore.Options{})
	if err != nil {
		t.Fatalf("OpenJSON: %v", err)
	}
	if _, err := s.Read(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}
