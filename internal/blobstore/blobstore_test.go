package blobstore_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"cardvault/internal/blobstore"
	"cardvault/internal/services"
)

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "characters/a/card.png", want: "characters/a/card.png"},
		{in: "/characters//a/./card.png", want: "characters/a/card.png"},
		{in: `characters\a\card.png`, want: "characters/a/card.png"},
		{in: "", wantErr: true},
		{in: "/", wantErr: true},
		{in: "../secret", wantErr: true},
		{in: "characters/../../etc/passwd", wantErr: true},
	}
	for _, tt := range tests {
		got, err := blobstore.CleanPath(tt.in)
		if tt.wantErr {
			if !errors.Is(err, services.ErrValidation) {
				t.Errorf("CleanPath(%q) err = %v, want validation error", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("CleanPath(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestLocalRoundTrip(t *testing.T) {
	root := t.TempDir()
	store, err := blobstore.NewLocal(root, "/files")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	ctx := context.Background()

	url, err := store.Save(ctx, "characters/x/card.png", []byte("png"), "image/png")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if url != "/files/characters/x/card.png" {
		t.Fatalf("url = %q", url)
	}
	if _, err := os.Stat(filepath.Join(root, "characters", "x", "card.png")); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}

	data, contentType, err := store.Open(ctx, "characters/x/card.png")
	if err != nil || string(data) != "png" || contentType != "image/png" {
		t.Fatalf("Open = %q, %q, %v", data, contentType, err)
	}

	if err := store.Delete(ctx, "characters/x/card.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "characters/x/card.png"); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
	if _, _, err := store.Open(ctx, "characters/x/card.png"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("Open after delete err = %v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Fatalf("root must survive deletes: %v", err)
	}
}

func TestLocalDeleteDirectoryPruning(t *testing.T) {
	root := t.TempDir()
	store, err := blobstore.NewLocal(root, "")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	var logs bytes.Buffer
	store.Logger = slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	for _, name := range []string{"card.png", "avatar.png"} {
		if _, err := store.Save(ctx, "characters/x/"+name, []byte("png"), "image/png"); err != nil {
			t.Fatalf("Save %s: %v", name, err)
		}
	}
	if err := store.Delete(ctx, "characters/x/card.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "characters", "x")); err != nil {
		t.Fatalf("non-empty directory should survive: %v", err)
	}
	if strings.Contains(logs.String(), "blob directory not removed") {
		t.Fatalf("non-empty directory should not be logged: %s", logs.String())
	}
	if err := store.Delete(ctx, "characters/x/avatar.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "characters", "x")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("empty directory should be removed, stat err = %v", err)
	}
}

func TestLocalDeleteLogsDirectoryFailure(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}
	root := t.TempDir()
	store, err := blobstore.NewLocal(root, "")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	var logs bytes.Buffer
	store.Logger = slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	if _, err := store.Save(ctx, "characters/x/card.png", []byte("png"), "image/png"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	parent := filepath.Join(root, "characters")
	if err := os.Chmod(parent, 0o555); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(parent, 0o755) })

	if err := store.Delete(ctx, "characters/x/card.png"); err != nil {
		t.Fatalf("Delete should succeed when only the directory remains: %v", err)
	}
	out := logs.String()
	if !strings.Contains(out, "blob directory not removed") || !strings.Contains(out, "blob_dir_prune_failed") {
		t.Fatalf("expected debug log for directory failure, got %q", out)
	}
}

func TestLocalRejectsEscape(t *testing.T) {
	store, err := blobstore.NewLocal(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if _, err := store.Save(context.Background(), "../evil.png", []byte("x"), "image/png"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type fakeObjectStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	auth     []string
	replyURL bool
}

func (f *fakeObjectStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	key := strings.TrimPrefix(r.URL.Path, "/bucket/")
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		if f.replyURL {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"url":"https://cdn.example/`+key+`"}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
	case http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	case http.MethodDelete:
		if _, ok := f.objects[key]; !ok {
			http.NotFound(w, r)
			return
		}
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestRemoteRoundTrip(t *testing.T) {
	fake := &fakeObjectStore{objects: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	store, err := blobstore.NewRemote(blobstore.RemoteOptions{
		BaseURL:   srv.URL + "/bucket/",
		PublicURL: "https://public.example",
		Token:     "secret",
	})
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	ctx := context.Background()

	url, err := store.Save(ctx, "characters/x/card.png", []byte("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if url != "https://public.example/characters/x/card.png" {
		t.Fatalf("url = %q", url)
	}

	data, contentType, err := store.Open(ctx, "characters/x/card.png")
	if err != nil || string(data) != "png-bytes" || contentType != "image/png" {
		t.Fatalf("Open = %q, %q, %v", data, contentType, err)
	}

	if err := store.Delete(ctx, "characters/x/card.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "characters/x/card.png"); err != nil {
		t.Fatalf("Delete of missing object should succeed: %v", err)
	}
	if _, _, err := store.Open(ctx, "characters/x/card.png"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("Open missing err = %v", err)
	}

	for _, got := range fake.auth {
		if got != "Bearer secret" {
			t.Fatalf("authorization header = %q", got)
		}
	}
}

func TestRemoteUsesURLFromResponse(t *testing.T) {
	fake := &fakeObjectStore{objects: map[string][]byte{}, replyURL: true}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	store, err := blobstore.NewRemote(blobstore.RemoteOptions{BaseURL: srv.URL + "/bucket", Token: "t"})
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	url, err := store.Save(context.Background(), "a.png", []byte("x"), "image/png")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if url != "https://cdn.example/a.png" {
		t.Fatalf("url = %q", url)
	}
}

func TestRemoteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	store, err := blobstore.NewRemote(blobstore.RemoteOptions{BaseURL: srv.URL, Token: "t"})
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	if _, err := store.Save(context.Background(), "a.png", []byte("x"), "image/png"); !errors.Is(err, services.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if err := store.Delete(context.Background(), "a.png"); !errors.Is(err, services.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestNewRemoteRequiresSettings(t *testing.T) {
	if _, err := blobstore.NewRemote(blobstore.RemoteOptions{Token: "t"}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("missing url err = %v", err)
	}
	if _, err := blobstore.NewRemote(blobstore.RemoteOptions{BaseURL: "http://x"}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("missing token err = %v", err)
	}
}
