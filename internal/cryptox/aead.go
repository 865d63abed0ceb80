package cryptox

import (
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"golang.org/x/crypto/chacha20poly1305"
)

// AEAD seals secrets with XChaCha20-Poly1305. The encoded form is
// base64(nonce || ciphertext || tag) with a fresh random 24-byte nonce per
// call, so equal plaintexts never produce equal ciphertexts.
type AEAD struct {
	key []byte
}

// NewAEAD returns an AEAD cipher for a 32-byte key.
func NewAEAD(key []byte) (*AEAD, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrKeySize, chacha20poly1305.KeySize, len(key))
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &AEAD{key: k}, nil
}

func (c *AEAD) Encrypt(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", err
	}

	nonce := common.GenerateRandByteArray(aead.NonceSize())
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *AEAD) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: malformed base64", ErrDecrypt)
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", err
	}

	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecrypt)
	}

	return string(plaintext), nil
}
