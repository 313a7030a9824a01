package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour, 24*time.Hour)
	user := &domain.User{ID: "user-1", Role: domain.RoleOperator}

	token, expiresAt, err := tm.GenerateAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, domain.RoleOperator, claims.Role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", time.Hour, 24*time.Hour)
	other := NewTokenManager("secret-b", time.Hour, 24*time.Hour)

	token, _, err := tm.GenerateAccessToken(&domain.User{ID: "u", Role: domain.RoleRequester})
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tm := &TokenManager{secret: []byte("test-secret"), accessTTL: -time.Minute, refreshTTL: 24 * time.Hour}

	token, _, err := tm.GenerateAccessToken(&domain.User{ID: "u", Role: domain.RoleRequester})
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	assert.Error(t, err)
}

func TestRefreshTokenIsOpaqueAndUnique(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour, 24*time.Hour)

	plainA, digestA, expiresAt, err := tm.GenerateRefreshToken()
	require.NoError(t, err)
	plainB, digestB, _, err := tm.GenerateRefreshToken()
	require.NoError(t, err)

	assert.NotEqual(t, plainA, plainB)
	assert.NotEqual(t, digestA, digestB)
	assert.Equal(t, RefreshDigest(plainA), digestA)
	assert.NotEqual(t, plainA, digestA)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, 5*time.Second)
}

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "correct horse battery"))
	assert.Error(t, ComparePassword(hash, "wrong password"))
}
