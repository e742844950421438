package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateTokenPair(t *testing.T) {
	m := NewManager("test-secret")
	userID := uuid.New()

	pair, err := m.GenerateTokenPair(userID, "maria@ranch.example", "tablet-1")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.ExpiresAt.After(time.Now()))

	claims, err := m.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "maria@ranch.example", claims.Email)
	assert.Equal(t, "tablet-1", claims.DeviceID)

	// The refresh token is not scoped to a device.
	refreshClaims, err := m.ValidateToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, userID, refreshClaims.UserID)
	assert.Empty(t, refreshClaims.DeviceID)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	m := NewManager("test-secret")
	pair, err := m.GenerateTokenPair(uuid.New(), "maria@ranch.example", "tablet-1")
	require.NoError(t, err)

	other := NewManager("another-secret")
	_, err = other.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	m := NewManager("test-secret")

	_, err := m.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	m := &Manager{
		secret:          []byte("test-secret"),
		accessDuration:  -time.Minute,
		refreshDuration: -time.Minute,
	}
	pair, err := m.GenerateTokenPair(uuid.New(), "maria@ranch.example", "tablet-1")
	require.NoError(t, err)

	_, err = m.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshTokens(t *testing.T) {
	m := NewManager("test-secret")
	userID := uuid.New()

	pair, err := m.GenerateTokenPair(userID, "maria@ranch.example", "tablet-1")
	require.NoError(t, err)

	renewed, err := m.RefreshTokens(pair.RefreshToken)
	require.NoError(t, err)

	claims, err := m.ValidateToken(renewed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "maria@ranch.example", claims.Email)
}

func TestRefreshTokensRejectsInvalid(t *testing.T) {
	m := NewManager("test-secret")

	_, err := m.RefreshTokens("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
