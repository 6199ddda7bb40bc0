package jwt

import (
	"strings"
	"testing"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
	"github.com/shandysiswandi/teleauth/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedID string

func (f fixedID) Generate() string { return string(f) }

func newTestJWT(t *testing.T, clk *clock.Frozen) *Symmetric {
	t.Helper()

	s, err := NewHS512(Config{
		Secret:    []byte(strings.Repeat("k", 64)),
		Issuer:    "teleauth",
		Audiences: []string{"teleauth-web"},
		TTL:       15 * time.Minute,
		Clock:     clk,
		UUID:      fixedID("jti-1"),
	})
	require.NoError(t, err)

	return s
}

func TestSymmetric_GenerateVerify(t *testing.T) {
	// Arrange
	clk := clock.NewFrozen(time.Now())
	s := newTestJWT(t, clk)

	// Act
	token, err := s.Generate(42, "ada@example.com")
	require.NoError(t, err)
	claims, err := s.Verify(token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.IdentityID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "jti-1", claims.ID)
	assert.Equal(t, "42", claims.Subject)
}

func TestSymmetric_Expired(t *testing.T) {
	clk := clock.NewFrozen(time.Now())
	s := newTestJWT(t, clk)

	token, err := s.Generate(42, "ada@example.com")
	require.NoError(t, err)

	clk.Advance(16 * time.Minute)
	_, err = s.Verify(token)

	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSymmetric_RejectsOtherSecretAndAlg(t *testing.T) {
	clk := clock.NewFrozen(time.Now())
	s := newTestJWT(t, clk)

	other, err := NewHS512(Config{
		Secret: []byte(strings.Repeat("x", 64)), Issuer: "teleauth", Audiences: []string{"teleauth-web"},
		TTL: time.Minute, Clock: clk, UUID: fixedID("jti-2"),
	})
	require.NoError(t, err)
	forged, err := other.Generate(1, "eve@example.com")
	require.NoError(t, err)

	_, err = s.Verify(forged)
	assert.Error(t, err)

	hs256, err := libJWT.NewWithClaims(libJWT.SigningMethodHS256, Claims{}).SignedString([]byte(strings.Repeat("k", 64)))
	require.NoError(t, err)
	_, err = s.Verify(hs256)
	assert.Error(t, err)
}

func TestNewHS512_ShortSecret(t *testing.T) {
	_, err := NewHS512(Config{Secret: []byte("short")})
	assert.ErrorIs(t, err, ErrSigningKeyTooShort)
}
