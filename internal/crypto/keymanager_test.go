package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	sealed, err := EncryptKey("0x"+testKeyHex, "hunter2")
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), testKeyHex)

	plain, err := DecryptKey(sealed, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, plain)
}

func TestDecryptKeyWrongPassword(t *testing.T) {
	sealed, err := EncryptKey(testKeyHex, "hunter2")
	require.NoError(t, err)

	_, err = DecryptKey(sealed, "hunter3")
	require.Error(t, err)
}

func TestEncryptKeyValidation(t *testing.T) {
	_, err := EncryptKey(testKeyHex, "")
	require.Error(t, err)

	_, err = EncryptKey("zzzz", "hunter2")
	require.Error(t, err)

	_, err = EncryptKey("abcd", "hunter2")
	require.Error(t, err, "short keys must be rejected")
}

func TestLoadKeyRawWins(t *testing.T) {
	got, err := LoadKey(KeyConfig{
		RawPrivateKey:    "0x" + testKeyHex,
		EncryptedKeyPath: "/nonexistent/wallet.json",
	})
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, got)
}

func TestLoadKeyFromEncryptedFile(t *testing.T) {
	sealed, err := EncryptKey(testKeyHex, "hunter2")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, os.WriteFile(path, sealed, 0o600))

	got, err := LoadKey(KeyConfig{EncryptedKeyPath: path, KeyPassword: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, got)
}

func TestLoadKeyUnconfigured(t *testing.T) {
	_, err := LoadKey(KeyConfig{})
	require.Error(t, err)
}
