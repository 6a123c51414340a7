package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_PairRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 7*24*time.Hour)

	pair, err := issuer.IssuePair("user-1", "a@example.com")
	require.NoError(t, err)
	assert.EqualValues(t, 3600, pair.ExpiresIn)

	claims, err := issuer.ValidateAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "a@example.com", claims.Email)
	assert.NotEmpty(t, claims.ID)

	refresh, err := issuer.ValidateRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", refresh.UserID())

	// each token only validates as its own type and secret
	_, err = issuer.ValidateAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = issuer.ValidateRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_Expiry(t *testing.T) {
	issuer := NewTokenIssuer("s", "r", time.Minute, time.Hour)
	start := time.Now()
	issuer.now = func() time.Time { return start }
	pair, err := issuer.IssuePair("user-1", "")
	require.NoError(t, err)

	issuer.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = issuer.ValidateAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.ValidateRefresh(pair.RefreshToken)
	assert.NoError(t, err)
}

func TestTokenIssuer_RejectsNonHMAC(t *testing.T) {
	issuer := NewTokenIssuer("s", "r", time.Hour, time.Hour)
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodES256, Claims{
		TokenType:        TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(key)
	require.NoError(t, err)

	_, err = issuer.ValidateAccess(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.ValidateAccess("")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = issuer.IssuePair("", "x")
	assert.Error(t, err)
}

func TestRevokers(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	revokers := map[string]TokenRevoker{
		"memory": NewMemoryTokenRevoker(),
		"redis":  NewRedisTokenRevoker(client),
	}
	for name, r := range revokers {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			revoked, err := r.IsRevoked(ctx, "jti-1")
			require.NoError(t, err)
			assert.False(t, revoked)

			require.NoError(t, r.Revoke(ctx, "jti-1", time.Minute))
			revoked, err = r.IsRevoked(ctx, "jti-1")
			require.NoError(t, err)
			assert.True(t, revoked)

			// already expired tokens need no entry
			require.NoError(t, r.Revoke(ctx, "jti-2", 0))
			revoked, _ = r.IsRevoked(ctx, "jti-2")
			assert.False(t, revoked)
		})
	}

	mr.FastForward(2 * time.Minute)
	revoked, err := revokers["redis"].IsRevoked(context.Background(), "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryRevoker_Expires(t *testing.T) {
	r := NewMemoryTokenRevoker()
	start := time.Now()
	r.now = func() time.Time { return start }
	require.NoError(t, r.Revoke(context.Background(), "jti", time.Second))

	r.now = func() time.Time { return start.Add(2 * time.Second) }
	revoked, err := r.IsRevoked(context.Background(), "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestAppleClientSecret(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	secret, err := AppleClientSecret("TEAM", "com.example.app", "KEY1", pemBytes, time.Now())
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(secret, claims, func(*jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "KEY1", token.Header["kid"])
	assert.Equal(t, "ES256", token.Header["alg"])
	assert.Equal(t, "TEAM", claims.Issuer)
	assert.Equal(t, "com.example.app", claims.Subject)

	_, err = AppleClientSecret("TEAM", "c", "k", []byte("not a key"), time.Now())
	assert.Error(t, err)
}

func TestParseAppleIDToken(t *testing.T) {
	idToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "000123.abc",
		"email": "hidden@privaterelay.appleid.com",
	}).SignedString([]byte("whatever"))
	require.NoError(t, err)

	id, err := ParseAppleIDToken(idToken)
	require.NoError(t, err)
	assert.Equal(t, "000123.abc", id.Subject)
	assert.Equal(t, "hidden@privaterelay.appleid.com", id.Email)

	_, err = ParseAppleIDToken("garbage")
	assert.Error(t, err)
}

func TestStateSigner(t *testing.T) {
	s := NewStateSigner("secret")
	state, err := s.Issue("google")
	require.NoError(t, err)

	assert.NoError(t, s.Verify(state, "google"))
	assert.ErrorIs(t, s.Verify(state, "apple"), ErrInvalidState)
	assert.ErrorIs(t, NewStateSigner("other").Verify(state, "google"), ErrInvalidState)

	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	assert.ErrorIs(t, s.Verify(state, "google"), ErrInvalidState)
}
