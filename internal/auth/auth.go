package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"cardvault/internal/config"
	"cardvault/internal/services"
)

// User is the identity carried in a token.
type User struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Claims is the JWT payload.
type Claims struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

const issuer = "cardvault"

// Service validates the single configured admin account.
type Service struct {
	username string
	password string
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// New builds a service from the [auth] section.
func New(cfg *config.Config) *Service {
	return &Service{
		username: cfg.Auth.AdminUsername,
		password: cfg.Auth.AdminPassword,
		secret:   []byte(cfg.Auth.JWTSecret),
		ttl:      cfg.TokenTTL(),
		now:      time.Now,
	}
}

// WithClock overrides the time source used for issuing and verifying tokens.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Enabled reports whether an admin password and signing secret are set.
func (s *Service) Enabled() bool {
	return s != nil && s.password != "" && len(s.secret) > 0
}

// ValidateCredentials checks a login attempt. The configured password may be
// a bcrypt hash or plain text.
func (s *Service) ValidateCredentials(username, password string) (User, error) {
	if !s.Enabled() {
		return User{}, services.Wrap(services.ErrConfiguration, "auth", "login", "admin credentials not configured", nil)
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := false
	if isBcryptHash(s.password) {
		passOK = bcrypt.CompareHashAndPassword([]byte(s.password), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	}
	if !userOK || !passOK {
		return User{}, services.Wrap(services.ErrUnauthorized, "auth", "login", "invalid credentials", nil)
	}
	return User{Username: s.username, IsAdmin: true}, nil
}

// IssueToken signs an HS256 token for user and returns it with its expiry.
func (s *Service) IssueToken(user User) (string, time.Time, error) {
	if !s.Enabled() {
		return "", time.Time{}, services.Wrap(services.ErrConfiguration, "auth", "issue token", "jwt secret not configured", nil)
	}
	now := s.now()
	expires := now.Add(s.ttl)
	claims := Claims{
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// VerifyToken parses and validates a token issued by IssueToken.
func (s *Service) VerifyToken(token string) (User, error) {
	if !s.Enabled() {
		return User{}, services.Wrap(services.ErrConfiguration, "auth", "verify", "jwt secret not configured", nil)
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		reason := "invalid token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			reason = "token expired"
		}
		return User{}, services.Wrap(services.ErrUnauthorized, "auth", "verify", reason, err)
	}
	return User{Username: claims.Username, IsAdmin: claims.IsAdmin}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// HashPassword returns a bcrypt hash suitable for auth.admin_password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func isBcryptHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
