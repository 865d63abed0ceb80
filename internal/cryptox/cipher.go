// Package cryptox protects secrets at rest (TOTP seeds, recovery-code
// bundles). Ciphertexts travel as base64 strings so they fit text columns.
package cryptox

import (
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	ModeAEAD      = "aead"
	ModeTripleDES = "3des-ecb"
)

var (
	// ErrDecrypt is returned for any ciphertext that cannot be opened:
	// malformed base64, bad padding, wrong key or tampering.
	ErrDecrypt = errors.New("cannot decrypt secret")

	ErrKeySize     = errors.New("invalid key size")
	ErrUnknownMode = errors.New("unknown cipher mode")
)

// SecretCipher encrypts and decrypts secrets with a single application key.
type SecretCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// New builds the cipher for mode from base64-encoded key material.
func New(mode, keyB64 string) (SecretCipher, error) {
	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, fmt.Errorf("%w: key is not valid base64", ErrKeySize)
	}

	switch mode {
	case ModeAEAD:
		return NewAEAD(key)
	case ModeTripleDES:
		return NewTripleDES(key)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}
