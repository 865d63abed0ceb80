package cli

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/policy"
)

var messages = []struct {
	err error
	msg string
}{
	{common.ErrInvalidCredentials, "invalid login or password"},
	{common.ErrDuplicateLogin, "this login is already taken"},
	{common.ErrReusedPassword, "this password was used recently, choose another one"},
	{common.ErrWrongCurrentPassword, "current password is wrong"},
	{common.ErrInvalidSecondFactor, "invalid code"},
	{common.ErrSecondFactorNotEnabled, "two-factor authentication is not enabled"},
	{common.ErrSecondFactorAlreadyEnabled, "two-factor authentication is already enabled"},
	{common.ErrSecretUnavailable, "the two-factor secret cannot be read; disable two-factor authentication and enroll again"},
	{common.ErrStoreUnavailable, "the account store is unavailable, try again later"},
	{common.ErrorUnauthorized, "not allowed"},
	{common.ErrInvalidState, "not possible right now"},
	{common.ErrorNotFound, "no such account"},
	{errPasswordMismatch, "passwords do not match"},
}

// describe turns a service error into a line for the user.
func describe(err error) string {
	var verr *policy.ValidationError
	if errors.As(err, &verr) {
		if verr.Assessment != nil {
			return "password rejected (" + string(verr.Assessment.Strength) + "): " +
				strings.Join(verr.Assessment.Errors, "; ")
		}
		return verr.Error()
	}

	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return err.Error()
}
