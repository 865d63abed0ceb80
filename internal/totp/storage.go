package totp

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
)

const codeSeparator = ","

// SealSeed encrypts seed for storage.
func (e *Engine) SealSeed(seed string) (string, error) {
	return e.cipher.Encrypt(seed)
}

// OpenSeed decrypts a stored seed. An empty field means no seed and yields
// "" without error; a field that cannot be decrypted yields
// common.ErrSecretUnavailable.
func (e *Engine) OpenSeed(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	seed, err := e.cipher.Decrypt(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: seed: %v", common.ErrSecretUnavailable, err)
	}
	return seed, nil
}

// SealRecoveryCodes encrypts the comma-joined code list.
func (e *Engine) SealRecoveryCodes(codes []string) (string, error) {
	return e.cipher.Encrypt(strings.Join(codes, codeSeparator))
}

// OpenRecoveryCodes decrypts a stored code bundle. An empty field yields an
// empty list without error.
func (e *Engine) OpenRecoveryCodes(sealed string) ([]string, error) {
	if sealed == "" {
		return []string{}, nil
	}
	joined, err := e.cipher.Decrypt(sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: recovery codes: %v", common.ErrSecretUnavailable, err)
	}

	codes := []string{}
	for _, c := range strings.Split(joined, codeSeparator) {
		if c != "" {
			codes = append(codes, c)
		}
	}
	return codes, nil
}
