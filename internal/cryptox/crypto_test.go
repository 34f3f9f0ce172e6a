package cryptox

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"github.com/stretchr/testify/require"
)

func TestDeriveMasterKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveMasterKey(password, salt)
	key2 := DeriveMasterKey(password, salt)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}
	if len(key1) != KeySize {
		t.Errorf("expected %d byte key, got %d", KeySize, len(key1))
	}
}

func TestDeriveMasterKey_DifferentInputs(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveMasterKey(password, []byte("salt-1"))
	key2 := DeriveMasterKey(password, []byte("salt-2"))

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestDeriveSubkey_BoundToInfo(t *testing.T) {
	secret := bytes.Repeat([]byte{7}, KeySize)

	a, err := DeriveSubkey(secret, "one")
	require.NoError(t, err)
	b, err := DeriveSubkey(secret, "two")
	require.NoError(t, err)
	a2, err := DeriveSubkey(secret, "one")
	require.NoError(t, err)

	require.Len(t, a, KeySize)
	require.NotEqual(t, a, b)
	require.Equal(t, a, a2)
}

func TestSealOpen_RoundTrip(t *testing.T) {
	aead, err := NewAEAD(bytes.Repeat([]byte{1}, KeySize))
	require.NoError(t, err)

	ct, nonce, err := Seal(aead, []byte("git push --force"))
	require.NoError(t, err)
	require.NotContains(t, string(ct), "git push")

	pt, err := Open(aead, ct, nonce)
	require.NoError(t, err)
	require.Equal(t, "git push --force", string(pt))
}

func TestOpen_WrongKeyFails(t *testing.T) {
	a1, err := NewAEAD(bytes.Repeat([]byte{1}, KeySize))
	require.NoError(t, err)
	a2, err := NewAEAD(bytes.Repeat([]byte{2}, KeySize))
	require.NoError(t, err)

	ct, nonce, err := Seal(a1, []byte("x"))
	require.NoError(t, err)

	_, err = Open(a2, ct, nonce)
	require.Error(t, err)

	_, err = Open(a1, ct, []byte{1, 2})
	require.Error(t, err)
}

func TestKeyFile_GenerateAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "secret.key")

	require.NoError(t, GenerateKeyFile(path))

	st, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	key, err := LoadKeyFile(path)
	require.NoError(t, err)
	require.Len(t, key, KeySize)

	// never overwrites
	require.Error(t, GenerateKeyFile(path))
	again, err := LoadKeyFile(path)
	require.NoError(t, err)
	require.Equal(t, key, again)
}

func TestLoadKeyFile_Missing(t *testing.T) {
	_, err := LoadKeyFile(filepath.Join(t.TempDir(), "absent.key"))
	require.ErrorIs(t, err, common.ErrEncryptionKeyMissing)
}

func TestLoadKeyFile_Malformed(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.key")
	require.NoError(t, os.WriteFile(bad, []byte("not-hex"), 0o600))
	_, err := LoadKeyFile(bad)
	require.ErrorIs(t, err, common.ErrEncryptionKeyMissing)

	short := filepath.Join(dir, "short.key")
	require.NoError(t, os.WriteFile(short, []byte("abcd\n"), 0o600))
	_, err = LoadKeyFile(short)
	require.ErrorIs(t, err, common.ErrEncryptionKeyMissing)
}
