package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuth(t *testing.T) *Authenticator {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	return New(Config{
		Username:     "admin",
		PasswordHash: string(hash),
		JWTSecret:    "test-secret",
		TokenTTL:     time.Hour,
	})
}

func TestLoginAndVerify(t *testing.T) {
	a := newTestAuth(t)

	token, exp, err := a.Login("admin", "s3cret")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	sub, err := a.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", sub)
}

func TestLogin_WrongCredentials(t *testing.T) {
	a := newTestAuth(t)

	_, _, err := a.Login("admin", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = a.Login("root", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_NotConfigured(t *testing.T) {
	_, _, err := New(Config{Username: "admin"}).Login("admin", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestVerify_Rejects(t *testing.T) {
	a := newTestAuth(t)

	token, _, err := a.Login("admin", "s3cret")
	require.NoError(t, err)

	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = a.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	a.now = time.Now
	other := New(Config{JWTSecret: "other-secret"})
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "admin", Issuer: issuer})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = a.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("pw")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("pw")))
}
