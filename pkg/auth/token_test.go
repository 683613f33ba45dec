package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/catering-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:    "secret",
		Issuer:    "https://auth.example.com",
		Audience:  "authenticated",
		AdminRole: "admin",
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()

	token, err := MintAccessToken(cfg, now, 30*time.Minute, AccessTokenPayload{
		Subject: "user-1",
		Email:   "owner@catering.test",
		Role:    "admin",
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "owner@catering.test", claims.Email)
	assert.Equal(t, "admin", claims.EffectiveRole())
	assert.Equal(t, cfg.Issuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, now.Add(30*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestParseAccessTokenRejections(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	token, err := MintAccessToken(cfg, now, time.Minute, AccessTokenPayload{Subject: "user-1"})
	require.NoError(t, err)

	wrongSecret := cfg
	wrongSecret.Secret = "other"
	_, err = ParseAccessToken(wrongSecret, token)
	assert.Error(t, err, "signature mismatch")

	wrongIssuer := cfg
	wrongIssuer.Issuer = "https://elsewhere.example.com"
	_, err = ParseAccessToken(wrongIssuer, token)
	assert.Error(t, err, "issuer mismatch")

	wrongAudience := cfg
	wrongAudience.Audience = "service_role"
	_, err = ParseAccessToken(wrongAudience, token)
	assert.Error(t, err, "audience mismatch")

	expired, err := MintAccessToken(cfg, now.Add(-2*time.Hour), time.Minute, AccessTokenPayload{Subject: "user-1"})
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, expired)
	assert.Error(t, err, "expired token")
}

func TestMintAccessTokenValidation(t *testing.T) {
	cfg := testJWTConfig()
	_, err := MintAccessToken(cfg, time.Now(), 0, AccessTokenPayload{Subject: "user-1"})
	assert.Error(t, err)
	_, err = MintAccessToken(cfg, time.Now(), time.Minute, AccessTokenPayload{})
	assert.Error(t, err)
	_, err = MintAccessToken(config.JWTConfig{Issuer: "x"}, time.Now(), time.Minute, AccessTokenPayload{Subject: "u"})
	assert.Error(t, err)
}

func TestEffectiveRoleFallsBackToProviderRole(t *testing.T) {
	claims := &AccessTokenClaims{Role: "authenticated"}
	assert.Equal(t, "authenticated", claims.EffectiveRole())
	var nilClaims *AccessTokenClaims
	assert.Equal(t, "", nilClaims.EffectiveRole())
}

func TestParseAccessTokenRejectsOtherAlgorithms(t *testing.T) {
	cfg := testJWTConfig()
	claims := AccessTokenClaims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    cfg.Issuer,
		Subject:   "user-1",
		Audience:  jwt.ClaimStrings{cfg.Audience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, signed)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestParseAccessTokenToleratesSmallClockSkew(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-70*time.Second), time.Minute, AccessTokenPayload{Subject: "user-1"})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	assert.NoError(t, err, "expired ten seconds ago, within leeway")
}
