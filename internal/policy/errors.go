package policy

import (
	"strings"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
)

// ValidationError reports a rejected input. It matches common.ErrValidation
// with errors.Is. Assessment is set when the rejected input is a password.
type ValidationError struct {
	Field      string
	Message    string
	Assessment *PasswordAssessment
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" && e.Assessment != nil {
		msg = strings.Join(e.Assessment.Errors, "; ")
	}
	return e.Field + ": " + msg
}

func (e *ValidationError) Unwrap() error { return common.ErrValidation }

// CheckPassword returns a *ValidationError when password is not valid.
func CheckPassword(password string) error {
	a := Evaluate(password)
	if a.Valid {
		return nil
	}
	return &ValidationError{Field: "password", Assessment: &a}
}
