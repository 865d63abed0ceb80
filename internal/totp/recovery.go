package totp

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
)

const (
	RecoveryCodeCount  = 8
	RecoveryCodeLength = 8

	recoveryAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateRecoveryCodes returns RecoveryCodeCount distinct codes, each drawn
// uniformly from [A-Z0-9].
func (e *Engine) GenerateRecoveryCodes() ([]string, error) {
	seen := make(map[string]struct{}, RecoveryCodeCount)
	codes := make([]string, 0, RecoveryCodeCount)

	for len(codes) < RecoveryCodeCount {
		c, err := e.recoveryCode()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		codes = append(codes, c)
	}
	return codes, nil
}

func (e *Engine) recoveryCode() (string, error) {
	limit := big.NewInt(int64(len(recoveryAlphabet)))
	var sb strings.Builder
	sb.Grow(RecoveryCodeLength)

	for i := 0; i < RecoveryCodeLength; i++ {
		n, err := rand.Int(e.rand, limit)
		if err != nil {
			return "", fmt.Errorf("generate recovery code: %w", err)
		}
		sb.WriteByte(recoveryAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// NormalizeRecoveryCode strips spaces and hyphens and upper-cases code.
func NormalizeRecoveryCode(code string) string {
	r := strings.NewReplacer(" ", "", "-", "")
	return strings.ToUpper(r.Replace(code))
}

// ConsumeRecoveryCode looks up submitted in codes. On a match it returns
// true and a new list without that one entry; otherwise it returns false and
// codes unchanged. The input slice is never modified.
func ConsumeRecoveryCode(submitted string, codes []string) (bool, []string) {
	want := []byte(NormalizeRecoveryCode(submitted))
	if len(want) == 0 {
		return false, codes
	}

	idx := -1
	for i, c := range codes {
		if subtle.ConstantTimeCompare(want, []byte(strings.ToUpper(c))) == 1 && idx < 0 {
			idx = i
		}
	}
	if idx < 0 {
		return false, codes
	}

	out := make([]string, 0, len(codes)-1)
	out = append(out, codes[:idx]...)
	out = append(out, codes[idx+1:]...)
	return true, out
}
