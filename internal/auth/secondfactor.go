package auth

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/models"
	"github.com/dmitrijs2005/gophaccounts/internal/totp"
)

// Enrollment is a pending second factor. Nothing is stored until
// ConfirmEnrollment accepts a live code generated from Seed.
type Enrollment struct {
	Seed          models.Secret
	URI           models.Secret
	QRCode        []byte
	RecoveryCodes []models.Secret

	principalID string
}

// VerifySecondFactor completes a login that is awaiting the second factor.
// The submission is tried as a TOTP code first and then as a recovery code;
// a consumed recovery code is persisted before success is reported. A
// rejected submission returns false with a nil error and leaves the session
// awaiting the second factor.
func (s *Service) VerifySecondFactor(ctx context.Context, sess *Session, code string) (bool, error) {
	if sess.State() != AwaitingSecondFactor {
		return false, common.ErrInvalidState
	}

	p, err := s.store.FindByID(ctx, sess.PrincipalID())
	if err != nil {
		return false, s.storeFailure(ctx, "verify second factor", err)
	}
	if !p.TOTP.Enabled {
		return false, common.ErrSecondFactorNotEnabled
	}

	seed, seedErr := s.totp.OpenSeed(p.TOTP.EncryptedSeed)
	if seedErr == nil && seed == "" {
		seedErr = common.ErrSecretUnavailable
	}
	if seedErr == nil && s.totp.ValidateCode(seed, code) {
		sess.set(FullyAuthenticated, p)
		s.log.Info(ctx, "second_factor.verified", "principal", p.ID, "method", "totp")
		return true, nil
	}

	codes, codesErr := s.totp.OpenRecoveryCodes(p.TOTP.EncryptedRecoveryCodes)
	if codesErr == nil {
		if ok, left := totp.ConsumeRecoveryCode(code, codes); ok {
			if err := s.storeRecoveryCodes(ctx, p, left); err != nil {
				return false, err
			}
			sess.set(FullyAuthenticated, p)
			s.log.Info(ctx, "second_factor.verified", "principal", p.ID, "method", "recovery_code", "remaining", len(left))
			return true, nil
		}
	}

	if seedErr != nil || codesErr != nil {
		s.log.Warn(ctx, "second_factor.secret_unavailable", "principal", p.ID)
		return false, common.ErrSecretUnavailable
	}

	s.log.Info(ctx, "second_factor.failed", "principal", p.ID)
	return false, nil
}

func (s *Service) storeRecoveryCodes(ctx context.Context, p *models.Principal, codes []string) error {
	sealed, err := s.totp.SealRecoveryCodes(codes)
	if err != nil {
		return err
	}
	state := p.TOTP
	state.EncryptedRecoveryCodes = sealed
	if err := s.store.UpdateSecondFactor(ctx, p.ID, state); err != nil {
		return s.storeFailure(ctx, "store recovery codes", err)
	}
	p.TOTP = state
	return nil
}

// reauthenticate reloads the principal and re-checks the password, as every
// second-factor change requires.
func (s *Service) reauthenticate(ctx context.Context, sess *Session, password string) (*models.Principal, error) {
	p, err := s.current(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(password, p.PasswordHash) {
		s.log.Info(ctx, "second_factor.reauth_failed", "principal", p.ID)
		return nil, common.ErrWrongCurrentPassword
	}
	return p, nil
}

// BeginEnrollment generates a seed, its provisioning URI and QR image, and a
// provisional set of recovery codes. The account is not changed.
func (s *Service) BeginEnrollment(ctx context.Context, sess *Session, password string) (*Enrollment, error) {
	p, err := s.reauthenticate(ctx, sess, password)
	if err != nil {
		return nil, err
	}
	if p.TOTP.Enabled {
		return nil, common.ErrSecondFactorAlreadyEnabled
	}

	seed, err := s.totp.GenerateSeed()
	if err != nil {
		return nil, err
	}
	uri := s.totp.ProvisioningURI(seed, p.Login)

	qr, err := s.totp.RenderProvisioningImage(uri)
	if err != nil {
		return nil, err
	}

	codes, err := s.totp.GenerateRecoveryCodes()
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "second_factor.enrollment_started", "principal", p.ID)
	return &Enrollment{
		Seed:          models.Secret(seed),
		URI:           models.Secret(uri),
		QRCode:        qr,
		RecoveryCodes: models.Secrets(codes),
		principalID:   p.ID,
	}, nil
}

// ConfirmEnrollment persists enr once code proves the authenticator holds
// the seed. A wrong code returns common.ErrInvalidSecondFactor and leaves
// the account unchanged, so the caller may retry with the same enrollment.
func (s *Service) ConfirmEnrollment(ctx context.Context, sess *Session, enr *Enrollment, code string) error {
	if enr == nil || enr.principalID != sess.PrincipalID() {
		return common.ErrInvalidState
	}

	p, err := s.current(ctx, sess)
	if err != nil {
		return err
	}
	if p.TOTP.Enabled {
		return common.ErrSecondFactorAlreadyEnabled
	}

	if !s.totp.ValidateCode(enr.Seed.Reveal(), code) {
		s.log.Info(ctx, "second_factor.enrollment_rejected", "principal", p.ID)
		return common.ErrInvalidSecondFactor
	}

	sealedSeed, err := s.totp.SealSeed(enr.Seed.Reveal())
	if err != nil {
		return err
	}
	sealedCodes, err := s.totp.SealRecoveryCodes(models.RevealAll(enr.RecoveryCodes))
	if err != nil {
		return err
	}

	state := models.TotpState{EncryptedSeed: sealedSeed, Enabled: true, EncryptedRecoveryCodes: sealedCodes}
	if err := s.store.UpdateSecondFactor(ctx, p.ID, state); err != nil {
		return s.storeFailure(ctx, "enroll second factor", err)
	}

	p.TOTP = state
	sess.set(FullyAuthenticated, p)
	s.log.Info(ctx, "second_factor.enrolled", "principal", p.ID)
	return nil
}

// DisableSecondFactor clears the seed and recovery codes. It also works when
// the stored secrets can no longer be decrypted, which is the way out of
// common.ErrSecretUnavailable.
func (s *Service) DisableSecondFactor(ctx context.Context, sess *Session, password string) error {
	p, err := s.reauthenticate(ctx, sess, password)
	if err != nil {
		return err
	}
	if !p.TOTP.Enabled {
		return common.ErrSecondFactorNotEnabled
	}

	if err := s.store.UpdateSecondFactor(ctx, p.ID, models.TotpState{}); err != nil {
		return s.storeFailure(ctx, "disable second factor", err)
	}

	p.TOTP = models.TotpState{}
	sess.set(FullyAuthenticated, p)
	s.log.Info(ctx, "second_factor.disabled", "principal", p.ID)
	return nil
}

// RegenerateRecoveryCodes replaces the whole recovery-code set and returns
// the new codes. The seed is untouched.
func (s *Service) RegenerateRecoveryCodes(ctx context.Context, sess *Session, password string) ([]models.Secret, error) {
	p, err := s.reauthenticate(ctx, sess, password)
	if err != nil {
		return nil, err
	}
	if !p.TOTP.Enabled {
		return nil, common.ErrSecondFactorNotEnabled
	}

	codes, err := s.totp.GenerateRecoveryCodes()
	if err != nil {
		return nil, err
	}
	if err := s.storeRecoveryCodes(ctx, p, codes); err != nil {
		return nil, err
	}

	sess.set(FullyAuthenticated, p)
	s.log.Info(ctx, "recovery_codes.regenerated", "principal", p.ID)
	return models.Secrets(codes), nil
}

// RecoveryCodesRemaining counts the unused recovery codes. Reaching zero
// does not disable the second factor.
func (s *Service) RecoveryCodesRemaining(ctx context.Context, sess *Session) (int, error) {
	p, err := s.current(ctx, sess)
	if err != nil {
		return 0, err
	}
	if !p.TOTP.Enabled {
		return 0, common.ErrSecondFactorNotEnabled
	}

	codes, err := s.totp.OpenRecoveryCodes(p.TOTP.EncryptedRecoveryCodes)
	if err != nil {
		if errors.Is(err, common.ErrSecretUnavailable) {
			return 0, common.ErrSecretUnavailable
		}
		return 0, err
	}
	return len(codes), nil
}
