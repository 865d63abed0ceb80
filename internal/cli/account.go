package cli

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/auth"
	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/models"
	"github.com/dmitrijs2005/gophaccounts/internal/policy"
)

var errPasswordMismatch = errors.New("passwords do not match")

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

func (a *App) text(prompt string) (string, error) {
	return getSimpleText(a.reader, prompt, a.out)
}

// secret reads a password and returns it as a string, wiping the buffer.
func (a *App) secret(prompt string) (string, error) {
	b, err := getPassword(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(b)
	return string(b), nil
}

// newPassword reads a password twice and shows its strength.
func (a *App) newPassword(prompt string) (string, error) {
	pw, err := a.secret(prompt)
	if err != nil {
		return "", err
	}
	again, err := a.secret("Repeat password")
	if err != nil {
		return "", err
	}
	if pw != again {
		return "", errPasswordMismatch
	}

	as := policy.Evaluate(pw)
	a.printf("Strength: %s (%d%%)\n", as.Strength, policy.StrengthPercentage(pw))
	return pw, nil
}

func (a *App) requireState(want auth.State) error {
	if a.state() != want {
		return common.ErrInvalidState
	}
	return nil
}

// Register prompts for a login, a new password and the profile fields, and
// logs the new account in.
func (a *App) Register(ctx context.Context) error {
	if err := a.requireState(auth.Anonymous); err != nil {
		return err
	}

	login, err := a.text("Enter login (e-mail)")
	if err != nil {
		return err
	}
	pw, err := a.newPassword("Enter password")
	if err != nil {
		return err
	}
	profile, err := a.readProfile(models.Profile{})
	if err != nil {
		return err
	}

	sess, err := a.svc.Register(ctx, login, pw, profile)
	if err != nil {
		return err
	}
	a.sess = sess
	a.println("Account created, you are logged in.")
	return nil
}

// Login checks the password and, when the account has a second factor,
// asks for the code straight away.
func (a *App) Login(ctx context.Context) error {
	if err := a.requireState(auth.Anonymous); err != nil {
		return err
	}

	login, err := a.text("Enter login")
	if err != nil {
		return err
	}
	pw, err := a.secret("Enter password")
	if err != nil {
		return err
	}

	sess, err := a.svc.Login(ctx, login, pw)
	if err != nil {
		return err
	}
	a.sess = sess

	if sess.State() == auth.AwaitingSecondFactor {
		a.println("Two-factor authentication is enabled for this account.")
		return a.Verify(ctx)
	}
	a.println("Login successful.")
	return nil
}

// Verify submits an authenticator or recovery code for a pending login. A
// rejected code keeps the login pending so the user can type verify again.
func (a *App) Verify(ctx context.Context) error {
	if err := a.requireState(auth.AwaitingSecondFactor); err != nil {
		return err
	}

	code, err := a.text("Enter the 6-digit code or a recovery code")
	if err != nil {
		return err
	}

	ok, err := a.svc.VerifySecondFactor(ctx, a.sess, code)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrInvalidSecondFactor
	}
	a.println("Login successful.")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if a.state() == auth.Anonymous {
		return common.ErrInvalidState
	}
	a.svc.Logout(ctx, a.sess)
	a.println("Logged out.")
	return nil
}

func (a *App) ChangePassword(ctx context.Context) error {
	if err := a.requireState(auth.FullyAuthenticated); err != nil {
		return err
	}

	current, err := a.secret("Enter current password")
	if err != nil {
		return err
	}
	next, err := a.newPassword("Enter new password")
	if err != nil {
		return err
	}

	if err := a.svc.ChangePassword(ctx, a.sess, current, next); err != nil {
		return err
	}
	a.println("Password changed.")
	return nil
}

// LastChange prints when the password was last replaced.
func (a *App) LastChange(ctx context.Context) error {
	at, ok, err := a.svc.LastPasswordChange(ctx, a.sess)
	if err != nil {
		return err
	}
	if !ok {
		a.println("The password has never been changed.")
		return nil
	}
	a.printf("Password last changed %s\n", at.Local().Format(time.DateTime))
	return nil
}
