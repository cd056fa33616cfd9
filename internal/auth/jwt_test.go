package auth

import (
	"testing"
	"time"

	"edupulse/config"
	"edupulse/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{AccessSecret: "test-secret", Issuer: "edupulse"}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateAccessToken(cfg, 42, "student@example.com", domain.RoleStudent, time.Hour)
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "student@example.com", claims.Email)
	assert.Equal(t, domain.RoleStudent, claims.Role)
	assert.Equal(t, "edupulse", claims.Issuer)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(testJWTConfig(), 42, "a@x", domain.RoleStudent, time.Hour)
	require.NoError(t, err)

	_, err = ParseAccessToken(&config.JWTConfig{AccessSecret: "other"}, token)
	assert.ErrorIs(t, err, domain.ErrAuth)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateAccessToken(cfg, 42, "a@x", domain.RoleStudent, -time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	assert.ErrorIs(t, err, domain.ErrAuth)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := ParseAccessToken(testJWTConfig(), "not-a-token")
	assert.ErrorIs(t, err, domain.ErrAuth)
}

func TestVerifierReturnsIdentity(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateAccessToken(cfg, 7, "a@x", domain.RoleInstructor, time.Hour)
	require.NoError(t, err)

	userID, role, err := NewJWTVerifier(cfg).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), userID)
	assert.Equal(t, domain.RoleInstructor, role)
}
