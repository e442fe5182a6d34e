package jwt

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ at time.Time }

func (f fixedClock) Now() time.Time { return f.at }

type fixedUUID struct{ id string }

func (f fixedUUID) Generate() string { return f.id }

func testConfig(at time.Time) Config {
	return Config{
		Secret:    bytes.Repeat([]byte("s"), 64),
		Issuer:    "totpadmin",
		Audiences: []string{"totpadmin"},
		TTL:       15 * time.Minute,
		Clock:     fixedClock{at: at},
		UUID:      fixedUUID{id: "jti-1"},
	}
}

func TestNewHS512KeyLength(t *testing.T) {
	cfg := testConfig(time.Now())
	cfg.Secret = []byte("too short")

	_, err := NewHS512(cfg)
	assert.ErrorIs(t, err, ErrSigningKeyTooShort)
}

func TestGenerateVerify(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	signer, err := NewHS512(testConfig(now))
	require.NoError(t, err)

	token, err := signer.Generate(Identity{
		Subject:                "svc-1",
		ServiceAccountClientID: "admin-cli",
		RealmRoles:             []string{"manage-totp"},
	})
	require.NoError(t, err)

	claims, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "svc-1", claims.Subject)
	assert.Equal(t, "admin-cli", claims.ServiceAccountClientID)
	assert.True(t, claims.IsServiceAccount())
	assert.True(t, claims.HasRealmRole("manage-totp"))
	assert.False(t, claims.HasRealmRole("view-users"))
}

func TestVerifyExpired(t *testing.T) {
	issued := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	signer, err := NewHS512(testConfig(issued))
	require.NoError(t, err)

	token, err := signer.Generate(Identity{Subject: "svc-1"})
	require.NoError(t, err)

	late, err := NewHS512(testConfig(issued.Add(time.Hour)))
	require.NoError(t, err)

	_, err = late.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyWrongKey(t *testing.T) {
	now := time.Now()
	signer, err := NewHS512(testConfig(now))
	require.NoError(t, err)

	token, err := signer.Generate(Identity{Subject: "svc-1"})
	require.NoError(t, err)

	otherCfg := testConfig(now)
	otherCfg.Secret = bytes.Repeat([]byte("x"), 64)
	other, err := NewHS512(otherCfg)
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAudience(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	t.Run("WrongAudienceRejected", func(t *testing.T) {
		foreignCfg := testConfig(now)
		foreignCfg.Audiences = []string{"other-api"}
		foreign, err := NewHS512(foreignCfg)
		require.NoError(t, err)

		token, err := foreign.Generate(Identity{Subject: "svc-1"})
		require.NoError(t, err)

		verifier, err := NewHS512(testConfig(now))
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("OverlapAccepted", func(t *testing.T) {
		signerCfg := testConfig(now)
		signerCfg.Audiences = []string{"other-api", "totpadmin"}
		signer, err := NewHS512(signerCfg)
		require.NoError(t, err)

		token, err := signer.Generate(Identity{Subject: "svc-1"})
		require.NoError(t, err)

		verifier, err := NewHS512(testConfig(now))
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		assert.NoError(t, err)
	})

	t.Run("NoConfiguredAudienceSkipsCheck", func(t *testing.T) {
		signerCfg := testConfig(now)
		signerCfg.Audiences = []string{"other-api"}
		signer, err := NewHS512(signerCfg)
		require.NoError(t, err)

		token, err := signer.Generate(Identity{Subject: "svc-1"})
		require.NoError(t, err)

		openCfg := testConfig(now)
		openCfg.Audiences = nil
		verifier, err := NewHS512(openCfg)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		assert.NoError(t, err)
	})
}

func TestAuthContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetAuth(ctx))

	clm := Claims{ServiceAccountClientID: "admin-cli"}
	got := GetAuth(SetAuth(ctx, clm))
	require.NotNil(t, got)
	assert.Equal(t, "admin-cli", got.ServiceAccountClientID)
}

func TestClaimsHelpers(t *testing.T) {
	var clm Claims
	assert.False(t, clm.IsServiceAccount())
	assert.False(t, clm.HasRealmRole("manage-totp"))
}
