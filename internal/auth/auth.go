// Package auth signs in the back-office administrator and verifies the
// bearer tokens it is issued.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "busgo"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrNotConfigured      = errors.New("admin login is not configured")
)

type Config struct {
	Username     string
	PasswordHash string
	JWTSecret    string
	TokenTTL     time.Duration
}

type Authenticator struct {
	cfg Config
	now func() time.Time
}

func New(cfg Config) *Authenticator {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}

	return &Authenticator{cfg: cfg, now: time.Now}
}

// Login checks the credentials and returns a signed HS256 token with its
// expiry.
//
// Returns:
//   - string: the token.
//   - time.Time: when it expires.
//   - error: auth.ErrInvalidCredentials on a wrong username or password.
//   - error: auth.ErrNotConfigured when no password hash or secret is set.
func (a *Authenticator) Login(username, password string) (string, time.Time, error) {
	const op = "auth.Login"

	if a.cfg.PasswordHash == "" || a.cfg.JWTSecret == "" {
		return "", time.Time{}, fmt.Errorf("%s:%w", op, ErrNotConfigured)
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.cfg.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(a.cfg.PasswordHash), []byte(password))
	if !userOK || passErr != nil {
		return "", time.Time{}, fmt.Errorf("%s:%w", op, ErrInvalidCredentials)
	}

	now := a.now()
	exp := now.Add(a.cfg.TokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})

	signed, err := token.SignedString([]byte(a.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s:%w", op, err)
	}

	return signed, exp, nil
}

// Verify parses a token issued by Login and returns its subject.
func (a *Authenticator) Verify(tokenString string) (string, error) {
	const op = "auth.Verify"

	if a.cfg.JWTSecret == "" {
		return "", fmt.Errorf("%s:%w", op, ErrNotConfigured)
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(*jwt.Token) (any, error) { return []byte(a.cfg.JWTSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", fmt.Errorf("%s:%w: %v", op, ErrInvalidToken, err)
	}

	return claims.Subject, nil
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
