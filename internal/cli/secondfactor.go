package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophaccounts/internal/auth"
	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/models"
	"github.com/dmitrijs2005/gophaccounts/internal/totp"
)

// confirmAttempts bounds how many codes Enroll accepts before giving up on
// the pending enrollment.
const confirmAttempts = 3

// Enroll sets up an authenticator app. The seed, provisioning URI and the
// recovery codes are shown once; the QR code can be saved as a PNG file.
// Nothing is stored until a code from the app is confirmed.
func (a *App) Enroll(ctx context.Context) error {
	if err := a.requireState(auth.FullyAuthenticated); err != nil {
		return err
	}

	pw, err := a.secret("Enter password")
	if err != nil {
		return err
	}
	enr, err := a.svc.BeginEnrollment(ctx, a.sess, pw)
	if err != nil {
		return err
	}

	a.println("Add this key to your authenticator app:")
	a.println("  Key:", enr.Seed.Reveal())
	a.println("  URI:", enr.URI.Reveal())

	path, err := a.text("Save the QR code as PNG to (empty to skip)")
	if err != nil {
		return err
	}
	if path != "" {
		if err := os.WriteFile(path, enr.QRCode, 0o600); err != nil {
			return fmt.Errorf("save QR code: %w", err)
		}
		a.println("QR code saved to", path)
	}

	for i := 0; i < confirmAttempts; i++ {
		code, err := a.text("Enter the code shown by the app")
		if err != nil {
			return err
		}
		err = a.svc.ConfirmEnrollment(ctx, a.sess, enr, code)
		if errors.Is(err, common.ErrInvalidSecondFactor) {
			a.println("Invalid code, try again.")
			continue
		}
		if err != nil {
			return err
		}

		a.println("Two-factor authentication enabled.")
		a.printRecoveryCodes(enr.RecoveryCodes)
		return nil
	}
	return common.ErrInvalidSecondFactor
}

func (a *App) Disable(ctx context.Context) error {
	if err := a.requireState(auth.FullyAuthenticated); err != nil {
		return err
	}
	pw, err := a.secret("Enter password")
	if err != nil {
		return err
	}
	if err := a.svc.DisableSecondFactor(ctx, a.sess, pw); err != nil {
		return err
	}
	a.println("Two-factor authentication disabled.")
	return nil
}

// Regenerate replaces every recovery code.
func (a *App) Regenerate(ctx context.Context) error {
	if err := a.requireState(auth.FullyAuthenticated); err != nil {
		return err
	}
	pw, err := a.secret("Enter password")
	if err != nil {
		return err
	}
	codes, err := a.svc.RegenerateRecoveryCodes(ctx, a.sess, pw)
	if err != nil {
		return err
	}
	a.printRecoveryCodes(codes)
	return nil
}

func (a *App) Codes(ctx context.Context) error {
	n, err := a.svc.RecoveryCodesRemaining(ctx, a.sess)
	if err != nil {
		return err
	}
	a.printf("%d/%d recovery codes left\n", n, totp.RecoveryCodeCount)
	if n == 0 {
		a.println("Run regen to get a new set.")
	}
	return nil
}

func (a *App) printRecoveryCodes(codes []models.Secret) {
	a.println("Recovery codes (each works once, keep them somewhere safe):")
	for _, c := range codes {
		a.println("  " + c.Reveal())
	}
}
