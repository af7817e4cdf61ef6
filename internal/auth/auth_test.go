package auth_test

import (
	"errors"
	"testing"
	"time"

	"cardvault/internal/auth"
	"cardvault/internal/config"
	"cardvault/internal/services"
)

func newService(t *testing.T, password string) *auth.Service {
	t.Helper()
	cfg := config.Default()
	cfg.Auth.AdminUsername = "admin"
	cfg.Auth.AdminPassword = password
	cfg.Auth.JWTSecret = "0123456789abcdef0123"
	cfg.Auth.TokenTTL = 3600
	return auth.New(&cfg)
}

func TestValidateCredentials(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	for name, stored := range map[string]string{"plain": "s3cret", "bcrypt": hash} {
		t.Run(name, func(t *testing.T) {
			svc := newService(t, stored)
			user, err := svc.ValidateCredentials("admin", "s3cret")
			if err != nil {
				t.Fatalf("ValidateCredentials: %v", err)
			}
			if user.Username != "admin" || !user.IsAdmin {
				t.Fatalf("unexpected user %+v", user)
			}
			if _, err := svc.ValidateCredentials("admin", "wrong"); !errors.Is(err, services.ErrUnauthorized) {
				t.Fatalf("wrong password err = %v", err)
			}
			if _, err := svc.ValidateCredentials("root", "s3cret"); !errors.Is(err, services.ErrUnauthorized) {
				t.Fatalf("wrong user err = %v", err)
			}
		})
	}
}

func TestDisabledService(t *testing.T) {
	svc := newService(t, "")
	if svc.Enabled() {
		t.Fatal("service without password should be disabled")
	}
	if _, err := svc.ValidateCredentials("admin", ""); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.VerifyToken("x"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v", err)
	}
}

func TestIssueAndVerifyToken(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newService(t, "pw").WithClock(func() time.Time { return now })

	token, expires, err := svc.IssueToken(auth.User{Username: "admin", IsAdmin: true})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if !expires.Equal(now.Add(time.Hour)) {
		t.Fatalf("expires = %v", expires)
	}

	user, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if user.Username != "admin" || !user.IsAdmin {
		t.Fatalf("user = %+v", user)
	}

	now = now.Add(2 * time.Hour)
	if _, err := svc.VerifyToken(token); !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("expired token err = %v", err)
	}
}

func TestVerifyTokenRejectsForeignSignature(t *testing.T) {
	issuer := newService(t, "pw")
	token, _, err := issuer.IssueToken(auth.User{Username: "admin", IsAdmin: true})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	cfg := config.Default()
	cfg.Auth.AdminPassword = "pw"
	cfg.Auth.JWTSecret = "a-completely-different-secret"
	other := auth.New(&cfg)
	if _, err := other.VerifyToken(token); !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("err = %v", err)
	}
	if _, err := issuer.VerifyToken("not.a.token"); !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("garbage err = %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := auth.BearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("BearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := auth.HashPassword(""); err == nil {
		t.Fatal("expected error")
	}
}
