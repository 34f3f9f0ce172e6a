// Package vault turns item content into its stored form. Sensitive values
// are sealed with AES-GCM under a key derived from the local key file and
// are only opened in memory.
package vault

import (
	"crypto/cipher"
	"fmt"

	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"github.com/dmitrijs2005/snipkeeper/internal/cryptox"
	"github.com/dmitrijs2005/snipkeeper/internal/models"
)

const fieldKeyInfo = "snipkeeper field encryption"

type Vault struct {
	aead cipher.AEAD
}

// New derives the field key from the key-file secret.
func New(secret []byte) (*Vault, error) {
	if len(secret) != cryptox.KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes", common.ErrEncryptionKeyMissing, cryptox.KeySize)
	}

	key, err := cryptox.DeriveSubkey(secret, fieldKeyInfo)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	aead, err := cryptox.NewAEAD(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &Vault{aead: aead}, nil
}

// Open loads the key file once and builds a Vault from it.
func Open(keyFile string) (*Vault, error) {
	secret, err := cryptox.LoadKeyFile(keyFile)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(secret)
	return New(secret)
}

// Store returns the form value is persisted in: CipherText when sensitive,
// PlainText otherwise.
func (v *Vault) Store(value string, sensitive bool) (models.Field, error) {
	if !sensitive {
		return models.PlainText(value), nil
	}
	ct, nonce, err := cryptox.Seal(v.aead, []byte(value))
	if err != nil {
		return nil, fmt.Errorf("seal: %w", err)
	}
	return models.CipherText{Data: ct, Nonce: nonce}, nil
}

// Retrieve is the inverse of Store.
func (v *Vault) Retrieve(f models.Field) (string, error) {
	switch f := f.(type) {
	case models.PlainText:
		return string(f), nil
	case models.CipherText:
		pt, err := cryptox.Open(v.aead, f.Data, f.Nonce)
		if err != nil {
			return "", fmt.Errorf("open: %w", err)
		}
		return string(pt), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported field %T", f)
	}
}
