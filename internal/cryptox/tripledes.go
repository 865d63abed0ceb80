package cryptox

import (
	"bytes"
	"crypto/cipher"
	"crypto/des"
	"encoding/base64"
	"fmt"
	"strings"
)

// LegacyKeyMaterial is the base64 key the first generation of records was
// encrypted with. It is only used when the configuration selects
// ModeTripleDES without a key of its own.
const LegacyKeyMaterial = "Q31JZWdbT3cxbGJTWSd1dUdHe0otelBj"

// TripleDES reads and writes the legacy record format: 3DES in ECB mode with
// PKCS7 padding. It has no integrity protection and equal plaintexts give
// equal ciphertexts; prefer AEAD for anything new.
type TripleDES struct {
	block cipher.Block
}

// NewTripleDES returns a TripleDES cipher for a 24-byte key.
func NewTripleDES(key []byte) (*TripleDES, error) {
	if len(key) != 3*des.BlockSize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrKeySize, 3*des.BlockSize, len(key))
	}
	block, err := des.NewTripleDESCipher(key)
	if err != nil {
		return nil, err
	}
	return &TripleDES{block: block}, nil
}

func (c *TripleDES) Encrypt(plaintext string) (string, error) {
	bs := c.block.BlockSize()
	buf := pkcs7Pad([]byte(plaintext), bs)

	for i := 0; i < len(buf); i += bs {
		c.block.Encrypt(buf[i:i+bs], buf[i:i+bs])
	}

	return base64.StdEncoding.EncodeToString(buf), nil
}

func (c *TripleDES) Decrypt(ciphertext string) (string, error) {
	// form-decoded values turn '+' into ' '
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(ciphertext, " ", "+"))
	if err != nil {
		return "", fmt.Errorf("%w: malformed base64", ErrDecrypt)
	}

	bs := c.block.BlockSize()
	if len(raw) == 0 || len(raw)%bs != 0 {
		return "", fmt.Errorf("%w: ciphertext is not a multiple of the block size", ErrDecrypt)
	}

	for i := 0; i < len(raw); i += bs {
		c.block.Decrypt(raw[i:i+bs], raw[i:i+bs])
	}

	plain, err := pkcs7Unpad(raw, bs)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	out := make([]byte, len(b), len(b)+n)
	copy(out, b)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, fmt.Errorf("%w: invalid padding", ErrDecrypt)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("%w: invalid padding", ErrDecrypt)
		}
	}
	return b[:len(b)-n], nil
}
