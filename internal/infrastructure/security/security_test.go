package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := GenerateSecureKey(32)

	plaintext := "libsql://acme.turso.io?authToken=secret"
	encrypted, err := Encrypt(plaintext, key)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, encrypted)

	decrypted, err := Decrypt(encrypted, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	encrypted, err := Encrypt("payload", GenerateSecureKey(32))
	require.NoError(t, err)

	_, err = Decrypt(encrypted, GenerateSecureKey(32))
	assert.Error(t, err)
}

func TestDecryptRejectsPlaintext(t *testing.T) {
	_, err := Decrypt("libsql://acme.turso.io?authToken=secret", GenerateSecureKey(32))
	assert.Error(t, err)
}

func TestIdentityTokenRoundTrip(t *testing.T) {
	secret := GenerateSecureKey(64)

	token, err := GenerateIdentityToken("alice", secret, time.Hour)
	require.NoError(t, err)

	identity, err := ValidateIdentityToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity)
}

func TestIdentityTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateIdentityToken("alice", GenerateSecureKey(64), time.Hour)
	require.NoError(t, err)

	_, err = ValidateIdentityToken(token, GenerateSecureKey(64))
	assert.Error(t, err)
}

func TestIdentityTokenRejectsExpired(t *testing.T) {
	token, err := GenerateIdentityToken("alice", "a-very-long-shared-secret", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateIdentityToken(token, "a-very-long-shared-secret")
	assert.Error(t, err)
}

func TestGenerateSecureTokenIsUnique(t *testing.T) {
	a := GenerateSecureToken(32)
	b := GenerateSecureToken(32)
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
