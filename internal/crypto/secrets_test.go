package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVault(t *testing.T, passphrase string, salt []byte) *Vault {
	t.Helper()
	v, err := NewVault(passphrase, salt)
	require.NoError(t, err)
	return v
}

func TestVault_SealOpen(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)
	v := newTestVault(t, "correct horse", salt)

	sealed, err := v.Seal("eyJhbGciOiJIUzI1NiJ9.token")
	require.NoError(t, err)
	assert.True(t, IsEncrypted(sealed))
	assert.NotContains(t, sealed, "token")

	opened, err := v.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "eyJhbGciOiJIUzI1NiJ9.token", opened)
}

func TestVault_SealIsRandomized(t *testing.T) {
	salt, _ := GenerateSalt()
	v := newTestVault(t, "pass", salt)

	a, err := v.Seal("same")
	require.NoError(t, err)
	b, err := v.Seal("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVault_WrongPassphrase(t *testing.T) {
	salt, _ := GenerateSalt()
	sealed, err := newTestVault(t, "right", salt).Seal("secret")
	require.NoError(t, err)

	_, err = newTestVault(t, "wrong", salt).Open(sealed)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestVault_OpenPlaintextPassthrough(t *testing.T) {
	salt, _ := GenerateSalt()
	v := newTestVault(t, "pass", salt)

	got, err := v.Open("legacy-token")
	require.NoError(t, err)
	assert.Equal(t, "legacy-token", got)

	empty, err := v.Seal("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestVault_OpenCorrupt(t *testing.T) {
	salt, _ := GenerateSalt()
	v := newTestVault(t, "pass", salt)

	_, err := v.Open(EncryptedPrefix + "!!!not-base64")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = v.Open(EncryptedPrefix + "AAAA")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestNewVault_Validation(t *testing.T) {
	_, err := NewVault("", make([]byte, SaltLength))
	assert.ErrorIs(t, err, ErrEmptyPassphrase)

	_, err = NewVault("pass", []byte("short"))
	assert.Error(t, err)

	salt, err := GenerateSalt()
	require.NoError(t, err)
	assert.Len(t, salt, SaltLength)
	assert.False(t, strings.HasPrefix(string(salt), EncryptedPrefix))
}
