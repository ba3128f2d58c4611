package auth

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libris-app/libris-server/internal/domain"
)

func newTestTokenService(t *testing.T, duration time.Duration) *TokenService {
	t.Helper()

	key := make([]byte, keyLength)
	_, err := rand.Read(key)
	require.NoError(t, err)

	svc, err := NewTokenService(hex.EncodeToString(key), duration)
	require.NoError(t, err)
	return svc
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	user := &domain.User{Username: "alice"}
	user.ID = "user-abc123"

	token, err := svc.IssueToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "user-abc123", claims.UserID)
	assert.Equal(t, "user-abc123", claims.Subject)
	assert.False(t, claims.Expiration.IsZero(), "tokens must carry an expiry")
	assert.True(t, claims.Expiration.After(claims.IssuedAt))
}

func TestVerifyToken_WrongKey(t *testing.T) {
	issuer := newTestTokenService(t, time.Hour)
	verifier := newTestTokenService(t, time.Hour)

	user := &domain.User{Username: "alice"}
	user.ID = "user-abc123"

	token, err := issuer.IssueToken(user)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyToken_Expired(t *testing.T) {
	svc := newTestTokenService(t, -time.Minute)

	user := &domain.User{Username: "alice"}
	user.ID = "user-abc123"

	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyToken_Garbage(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	_, err := svc.VerifyToken("not-a-token")
	assert.Error(t, err)
}

func TestNewTokenService_BadKey(t *testing.T) {
	_, err := NewTokenService("short", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService(string(make([]byte, keyHexLength)), time.Hour)
	assert.Error(t, err, "non-hex key of the right length must be rejected")
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := VerifyPassword(hash, "correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(hash, "wrong password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	ok, err := VerifyPassword("not-a-hash", "anything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestArgon2Verifier(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)

	var v CredentialVerifier = Argon2Verifier{}
	ok, err := v.Verify(hash, "secret")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoadOrGenerateKey(t *testing.T) {
	dir := t.TempDir()

	key1, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, key1, keyLength)

	// Second call loads the same key back.
	key2, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, key1, key2)
}

func TestLoadOrGenerateKey_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.key"), []byte("garbage"), 0o600))

	_, err := LoadOrGenerateKey(dir)
	assert.Error(t, err)
}
