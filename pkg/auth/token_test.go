package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "storefront",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseAdminToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()

	token, err := MintAdminToken(cfg, now, AdminTokenPayload{Subject: "staff-1", Email: "ops@example.com"})
	require.NoError(t, err)

	claims, err := ParseAdminToken(cfg, token)
	require.NoError(t, err)
	require.Equal(t, "staff-1", claims.Subject)
	require.Equal(t, "ops@example.com", claims.Email)
	require.Equal(t, "storefront", claims.Issuer)
	require.NotEmpty(t, claims.ID)
	require.WithinDuration(t, now.Add(30*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestMintAdminTokenValidatesConfig(t *testing.T) {
	now := time.Now()
	payload := AdminTokenPayload{Subject: "staff-1"}

	_, err := MintAdminToken(config.JWTConfig{Issuer: "x", ExpirationMinutes: 1}, now, payload)
	require.Error(t, err)
	_, err = MintAdminToken(config.JWTConfig{Secret: "s", ExpirationMinutes: 1}, now, payload)
	require.Error(t, err)
	_, err = MintAdminToken(config.JWTConfig{Secret: "s", Issuer: "x"}, now, payload)
	require.Error(t, err)
	_, err = MintAdminToken(testJWTConfig(), now, AdminTokenPayload{Subject: "  "})
	require.Error(t, err)
}

func TestParseAdminTokenRejects(t *testing.T) {
	cfg := testJWTConfig()

	expired, err := MintAdminToken(cfg, time.Now().Add(-2*time.Hour), AdminTokenPayload{Subject: "staff-1"})
	require.NoError(t, err)
	_, err = ParseAdminToken(cfg, expired)
	require.Error(t, err)

	valid, err := MintAdminToken(cfg, time.Now(), AdminTokenPayload{Subject: "staff-1"})
	require.NoError(t, err)

	wrongSecret := cfg
	wrongSecret.Secret = "other"
	_, err = ParseAdminToken(wrongSecret, valid)
	require.Error(t, err)

	wrongIssuer := cfg
	wrongIssuer.Issuer = "someone-else"
	_, err = ParseAdminToken(wrongIssuer, valid)
	require.Error(t, err)

	_, err = ParseAdminToken(cfg, "not-a-jwt")
	require.Error(t, err)
}

func TestVerifyClassifiesFailures(t *testing.T) {
	cfg := testJWTConfig()
	v, err := NewVerifier(cfg)
	require.NoError(t, err)

	expired, err := MintAdminToken(cfg, time.Now().Add(-time.Hour), AdminTokenPayload{Subject: "staff-1"})
	require.NoError(t, err)
	_, err = v.Verify(expired)
	require.ErrorIs(t, err, ErrExpired)

	_, err = v.Verify("a.b.c")
	require.ErrorIs(t, err, ErrInvalid)

	_, err = NewVerifier(config.JWTConfig{})
	require.Error(t, err)
}

func TestMintAdminTokenHonoursTTLOverride(t *testing.T) {
	now := time.Now().UTC()
	token, err := MintAdminToken(testJWTConfig(), now, AdminTokenPayload{Subject: "smoke", TTL: 5 * time.Minute, JTI: "fixed"})
	require.NoError(t, err)

	claims, err := ParseAdminToken(testJWTConfig(), token)
	require.NoError(t, err)
	require.Equal(t, "fixed", claims.ID)
	require.WithinDuration(t, now.Add(5*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestVerifyToleratesSmallClockSkew(t *testing.T) {
	cfg := testJWTConfig()
	// issued slightly in the future relative to this host
	token, err := MintAdminToken(cfg, time.Now().Add(10*time.Second), AdminTokenPayload{Subject: "staff-1"})
	require.NoError(t, err)
	_, err = ParseAdminToken(cfg, token)
	require.NoError(t, err)
}
