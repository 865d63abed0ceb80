package models

import "time"

// Profile holds the free-form fields an owner or an administrator may edit.
type Profile struct {
	Name       string
	Address    string
	City       string
	PostalCode string
}

// TotpState is the persisted second-factor state. Both secrets are stored
// encrypted; Enabled implies EncryptedSeed is present.
type TotpState struct {
	EncryptedSeed          string
	Enabled                bool
	EncryptedRecoveryCodes string
}

// Principal is an account identity. PasswordHash is the serialized
// credential ("hexDigest:salt"), never the plaintext.
type Principal struct {
	ID           string
	Code         int
	Login        string
	PasswordHash string
	Admin        bool
	Profile      Profile
	TOTP         TotpState
	CreatedAt    time.Time
}

// PasswordHistoryEntry is an append-only record of a hash that was replaced.
type PasswordHistoryEntry struct {
	PrincipalID string
	Hash        string
	CreatedAt   time.Time
}
