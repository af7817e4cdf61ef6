package services_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"cardvault/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrValidation, "library", "upload", "rejected", base)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"library", "upload", "rejected", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{services.Wrap(services.ErrValidation, "library", "upload", "bad", nil), http.StatusBadRequest},
		{services.Wrap(services.ErrNotFound, "library", "get", "missing", nil), http.StatusNotFound},
		{services.Wrap(services.ErrUnauthorized, "auth", "verify", "", nil), http.StatusUnauthorized},
		{services.Wrap(services.ErrForbidden, "auth", "verify", "", nil), http.StatusForbidden},
		{services.Wrap(services.ErrTooLarge, "api", "upload", "", nil), http.StatusRequestEntityTooLarge},
		{services.Wrap(services.ErrConfiguration, "auth", "login", "", nil), http.StatusServiceUnavailable},
		{fmt.Errorf("outer: %w", services.ErrTimeout), http.StatusGatewayTimeout},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := services.HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d want %d", tt.err, got, tt.want)
		}
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id on empty context")
	}
	ctx = services.WithRequestID(ctx, "req-1")
	ctx = services.WithCharacterID(ctx, "char-1")
	ctx = services.WithOperation(ctx, "upload")
	ctx = services.WithOperation(ctx, "")

	if id, _ := services.RequestIDFromContext(ctx); id != "req-1" {
		t.Fatalf("request id = %q", id)
	}
	if id, _ := services.CharacterIDFromContext(ctx); id != "char-1" {
		t.Fatalf("character id = %q", id)
	}
	if op, _ := services.OperationFromContext(ctx); op != "upload" {
		t.Fatalf("operation = %q", op)
	}
}
