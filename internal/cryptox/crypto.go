// Package cryptox wraps the cryptographic primitives used by snipkeeper:
// argon2id credential derivation, HKDF subkeys, AES-GCM sealing and the
// on-disk secret key file.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the length in bytes of the secret stored in the key file and of
// every subkey derived from it.
const KeySize = 32

// SaltSize is the length of the random salt stored next to the credential verifier.
const SaltSize = 32

// MakeVerifier hashes a derived master key so it can be stored and compared
// without keeping the key itself.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// DeriveMasterKey stretches the master credential with argon2id.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, KeySize)
}

// DeriveSubkey expands secret into a KeySize subkey bound to info, so the
// field cipher and the session signer never share key material.
func DeriveSubkey(secret []byte, info string) ([]byte, error) {
	r := hkdf.New(sha256.New, secret, nil, []byte(info))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return key, nil
}

// NewAEAD builds an AES-GCM AEAD for key (16, 24 or 32 bytes).
func NewAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext with AES-GCM under a fresh random nonce.
// The ciphertext and nonce are returned separately.
func Seal(aead cipher.AEAD, plaintext []byte) (ciphertext, nonce []byte, err error) {
	nonce = common.GenerateRandByteArray(aead.NonceSize())
	ciphertext = aead.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// Open reverses Seal. It fails when the key, nonce or ciphertext do not match.
func Open(aead cipher.AEAD, ciphertext, nonce []byte) ([]byte, error) {
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("bad nonce size %d", len(nonce))
	}
	return aead.Open(nil, nonce, ciphertext, nil)
}

// GenerateKeyFile writes a new random secret to path as hex. The file is
// created with 0600 permissions and an existing file is never overwritten.
func GenerateKeyFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create key file: %w", err)
	}
	defer f.Close()

	key := common.GenerateRandByteArray(KeySize)
	defer common.WipeByteArray(key)

	if _, err := fmt.Fprintln(f, hex.EncodeToString(key)); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}

// LoadKeyFile reads the secret written by GenerateKeyFile. Any failure is
// reported as common.ErrEncryptionKeyMissing since the process cannot run
// without it.
func LoadKeyFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", common.ErrEncryptionKeyMissing, path)
		}
		return nil, fmt.Errorf("%w: %w", common.ErrEncryptionKeyMissing, err)
	}

	key, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: malformed key file: %w", common.ErrEncryptionKeyMissing, err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", common.ErrEncryptionKeyMissing, KeySize, len(key))
	}
	return key, nil
}
