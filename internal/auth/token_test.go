package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret", 60, 168)
}

func TestTokenRoundTrip(t *testing.T) {
	tm := newTestManager()

	token, err := tm.GenerateToken(42)
	require.NoError(t, err)

	userID, err := tm.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	tm := newTestManager()

	token, err := tm.GenerateRefreshToken(42)
	require.NoError(t, err)

	userID, err := tm.VerifyRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

// Access and refresh tokens are signed with different secrets and must
// not be interchangeable.
func TestTokenKindsNotInterchangeable(t *testing.T) {
	tm := newTestManager()

	access, err := tm.GenerateToken(42)
	require.NoError(t, err)
	_, err = tm.VerifyRefreshToken(access)
	assert.Error(t, err)

	refresh, err := tm.GenerateRefreshToken(42)
	require.NoError(t, err)
	_, err = tm.VerifyToken(refresh)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	tm := NewTokenManager("access-secret", "refresh-secret", -1, 168)

	token, err := tm.GenerateToken(42)
	require.NoError(t, err)

	_, err = tm.VerifyToken(token)
	assert.Error(t, err)
}

func TestGarbageToken(t *testing.T) {
	tm := newTestManager()

	_, err := tm.VerifyToken("not.a.token")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.True(t, CheckPassword(hash, "password123"))
	assert.False(t, CheckPassword(hash, "password124"))
}
