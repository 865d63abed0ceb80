// Package hashing produces and verifies salted password credentials in the
// "hexDigest:salt" format: a SHA-512 digest over salt+password and a
// 32-byte base64 salt.
package hashing

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
)

const (
	// SaltSize is the number of random bytes in a salt before encoding.
	SaltSize  = 32
	separator = ":"
)

// Hasher hashes and verifies passwords. Callers must not log or persist
// plaintext passwords.
type Hasher struct {
	saltFn func() []byte
}

// NewHasher returns a Hasher drawing salts from crypto/rand.
func NewHasher() *Hasher {
	return &Hasher{saltFn: func() []byte { return common.GenerateRandByteArray(SaltSize) }}
}

// Hash returns the serialized credential for password with a fresh salt.
func (h *Hasher) Hash(password string) string {
	salt := base64.StdEncoding.EncodeToString(h.saltFn())
	return strings.ToUpper(hex.EncodeToString(digest(salt, password))) + separator + salt
}

// Verify reports whether password matches credential. Malformed credentials
// fail closed. The digest comparison is constant-time.
func (h *Hasher) Verify(password, credential string) bool {
	parts := strings.Split(credential, separator)
	if len(parts) != 2 {
		return false
	}

	stored, err := hex.DecodeString(parts[0])
	if err != nil || len(stored) != sha512.Size {
		return false
	}

	return subtle.ConstantTimeCompare(stored, digest(parts[1], password)) == 1
}

func digest(salt, password string) []byte {
	sum := sha512.Sum512([]byte(salt + password))
	return sum[:]
}
