// Package common defines the sentinel errors shared by every layer of the
// account service and a few small helpers. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound       = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")

	// Validation errors (policy or format violations, the user may retry).
	ErrValidation = errors.New("validation error")

	// Authentication errors. ErrInvalidCredentials is deliberately unspecific.
	ErrInvalidCredentials   = errors.New("invalid login/password")
	ErrWrongCurrentPassword = errors.New("current password is incorrect")
	ErrInvalidSecondFactor  = errors.New("invalid second factor code")
	ErrorUnauthorized       = errors.New("unauthorized")
	ErrInvalidState         = errors.New("operation not allowed in current session state")

	// Account lifecycle errors.
	ErrDuplicateLogin = errors.New("login already exists")
	ErrReusedPassword = errors.New("password was used recently")

	// Second factor errors.
	ErrSecretUnavailable          = errors.New("second factor secret unavailable")
	ErrSecondFactorNotEnabled     = errors.New("second factor is not enabled")
	ErrSecondFactorAlreadyEnabled = errors.New("second factor is already enabled")
)
