package models

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
)

const redacted = "[SECRET]"

// Secret is a plaintext value (TOTP seed, recovery code) that must never
// reach logs. Formatting, JSON and slog output are redacted; use Reveal to
// get the raw value.
type Secret string

// Reveal returns the raw value.
func (s Secret) Reveal() string { return string(s) }

func (s Secret) String() string { return redacted }

// Format implements fmt.Formatter so %v, %#v, %q and friends are redacted.
func (s Secret) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, redacted)
}

func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(redacted) }

func (s Secret) LogValue() slog.Value { return slog.StringValue(redacted) }

// RevealAll converts a list of secrets to raw strings.
func RevealAll(in []Secret) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

// Secrets wraps raw strings.
func Secrets(in []string) []Secret {
	out := make([]Secret, len(in))
	for i, s := range in {
		out[i] = Secret(s)
	}
	return out
}
