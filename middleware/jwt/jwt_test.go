package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *TokenManager {
	return NewTokenManager("test-secret", 1, 2)
}

func TestGenerateAndParseToken(t *testing.T) {
	tm := newTestManager()

	token, err := tm.GenerateToken("u-1", "alice", RoleDeveloper)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "alice", claims.UserName)
	assert.Equal(t, RoleDeveloper, claims.Role)
	assert.False(t, claims.IsAdmin())
}

func TestClaims_IsAdmin(t *testing.T) {
	tm := newTestManager()

	token, err := tm.GenerateToken("u-2", "bob", RoleAdmin)
	require.NoError(t, err)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
}

func TestParseToken_Invalid(t *testing.T) {
	tm := newTestManager()

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"tampered", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.tampered.signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tm.ParseToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	tm := newTestManager()
	other := NewTokenManager("different-secret", 1, 2)

	token, err := tm.GenerateToken("u-3", "carol", RoleTester)
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Expired(t *testing.T) {
	// Zero expire hours yields an immediately expired token.
	tm := NewTokenManager("test-secret", 0, 2)

	token, err := tm.GenerateToken("u-4", "dave", RoleDeveloper)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = tm.ParseToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestRefreshToken(t *testing.T) {
	t.Run("refreshes token near expiry", func(t *testing.T) {
		// Expires in 1 hour, refresh window of 2 hours: eligible immediately.
		tm := NewTokenManager("test-secret", 1, 2)

		token, err := tm.GenerateToken("u-5", "erin", RoleAdmin)
		require.NoError(t, err)

		refreshed, err := tm.RefreshToken(token)
		require.NoError(t, err)

		claims, err := tm.ParseToken(refreshed)
		require.NoError(t, err)
		assert.Equal(t, "u-5", claims.UserID)
		assert.Equal(t, RoleAdmin, claims.Role)
	})

	t.Run("rejects token far from expiry", func(t *testing.T) {
		// Expires in 100 hours, refresh window of 1 hour: not eligible.
		tm := NewTokenManager("test-secret", 100, 1)

		token, err := tm.GenerateToken("u-6", "frank", RoleTester)
		require.NoError(t, err)

		_, err = tm.RefreshToken(token)
		assert.Error(t, err)
	})
}
