package models

// Field is the stored form of an item's content. It is either PlainText or
// CipherText; the variant, not a flag, decides how the value is persisted
// and read back.
type Field interface {
	// Sensitive reports whether the value is held encrypted.
	Sensitive() bool
	isField()
}

// PlainText is a value stored as is.
type PlainText string

func (PlainText) Sensitive() bool { return false }
func (PlainText) isField()        {}

// CipherText is an AES-GCM sealed value with its nonce.
type CipherText struct {
	Data  []byte
	Nonce []byte
}

func (CipherText) Sensitive() bool { return true }
func (CipherText) isField()        {}
