// Package auth orchestrates the account lifecycle: registration, login with
// an optional TOTP second factor, password changes guarded by policy and
// history, second-factor enrollment, and the owner/admin profile operations.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/models"
	"github.com/dmitrijs2005/gophaccounts/internal/policy"
	"github.com/dmitrijs2005/gophaccounts/internal/store"
	"github.com/dmitrijs2005/gophaccounts/internal/totp"
	"github.com/google/uuid"
)

const DefaultHistoryDepth = 3

// PasswordHasher produces and checks serialized credentials.
type PasswordHasher interface {
	Hash(password string) string
	Verify(password, credential string) bool
}

type Service struct {
	store        store.CredentialStore
	hasher       PasswordHasher
	totp         *totp.Engine
	log          logging.Logger
	now          func() time.Time
	newID        func() string
	historyDepth int

	// decoy is verified against when a login is unknown so both failure
	// paths cost one hash.
	decoy string
}

type Option func(*Service)

func WithLogger(l logging.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithHistoryDepth sets how many replaced hashes, besides the current one,
// block reuse.
func WithHistoryDepth(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyDepth = n
		}
	}
}

func NewService(st store.CredentialStore, h PasswordHasher, engine *totp.Engine, opts ...Option) *Service {
	s := &Service{
		store:        st,
		hasher:       h,
		totp:         engine,
		log:          logging.Nop(),
		now:          time.Now,
		newID:        func() string { return uuid.NewString() },
		historyDepth: DefaultHistoryDepth,
	}
	for _, o := range opts {
		o(s)
	}
	s.decoy = h.Hash(uuid.NewString())
	return s
}

// Register creates a principal and returns a fully authenticated session for
// it. A new account never has a second factor.
func (s *Service) Register(ctx context.Context, login, password string, profile models.Profile) (*Session, error) {
	if err := policy.ValidateLogin(login); err != nil {
		return nil, err
	}

	exists, err := s.store.LoginExists(ctx, login)
	if err != nil {
		return nil, s.storeFailure(ctx, "register", err)
	}
	if exists {
		s.log.Info(ctx, "register.rejected", "login", login, "reason", "duplicate")
		return nil, common.ErrDuplicateLogin
	}

	if err := policy.CheckPassword(password); err != nil {
		s.log.Info(ctx, "register.rejected", "login", login, "reason", "policy")
		return nil, err
	}
	if err := validateProfile(profile); err != nil {
		return nil, err
	}

	p := &models.Principal{
		ID:           s.newID(),
		Login:        login,
		PasswordHash: s.hasher.Hash(password),
		Profile:      profile,
		CreatedAt:    s.now().UTC(),
	}

	code, err := s.store.Insert(ctx, p)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateLogin) {
			return nil, common.ErrDuplicateLogin
		}
		return nil, s.storeFailure(ctx, "register", err)
	}
	p.Code = code

	sess := NewSession()
	sess.set(FullyAuthenticated, p)
	s.log.Info(ctx, "register.success", "principal", p.ID, "code", p.Code)
	return sess, nil
}

// Login checks the password and returns a session that is either fully
// authenticated or awaiting the second factor. Unknown logins and wrong
// passwords fail identically with common.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, login, password string) (*Session, error) {
	p, err := s.store.FindByLogin(ctx, login)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, s.storeFailure(ctx, "login", err)
		}
		s.hasher.Verify(password, s.decoy)
		s.log.Info(ctx, "login.failed")
		return nil, common.ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, p.PasswordHash) {
		s.log.Info(ctx, "login.failed")
		return nil, common.ErrInvalidCredentials
	}

	sess := NewSession()
	sess.set(PrimaryAuthenticated, p)

	if p.TOTP.Enabled {
		sess.set(AwaitingSecondFactor, p)
		s.log.Info(ctx, "login.second_factor_required", "principal", p.ID)
		return sess, nil
	}

	sess.set(FullyAuthenticated, p)
	s.log.Info(ctx, "login.success", "principal", p.ID)
	return sess, nil
}

// Logout returns the session to the anonymous state.
func (s *Service) Logout(ctx context.Context, sess *Session) {
	if sess == nil {
		return
	}
	if id := sess.PrincipalID(); id != "" {
		s.log.Info(ctx, "logout", "principal", id)
	}
	sess.clear()
}

// ChangePassword replaces the session principal's password. Checks run in a
// fixed order: current password, policy, reuse. The new hash and the history
// entry for the replaced one are written together.
func (s *Service) ChangePassword(ctx context.Context, sess *Session, current, next string) error {
	p, err := s.current(ctx, sess)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(current, p.PasswordHash) {
		s.log.Info(ctx, "password.change_rejected", "principal", p.ID, "reason", "wrong_current")
		return common.ErrWrongCurrentPassword
	}

	if err := policy.CheckPassword(next); err != nil {
		s.log.Info(ctx, "password.change_rejected", "principal", p.ID, "reason", "policy")
		return err
	}

	reused, err := s.recentlyUsed(ctx, p, next)
	if err != nil {
		return err
	}
	if reused {
		s.log.Info(ctx, "password.change_rejected", "principal", p.ID, "reason", "reused")
		return common.ErrReusedPassword
	}

	hash := s.hasher.Hash(next)
	err = s.store.WithinTx(ctx, func(tx store.CredentialStore) error {
		if err := tx.UpdatePassword(ctx, p.ID, hash); err != nil {
			return err
		}
		return tx.AppendPasswordHistory(ctx, p.ID, p.PasswordHash, s.now().UTC())
	})
	if err != nil {
		return s.storeFailure(ctx, "change password", err)
	}

	p.PasswordHash = hash
	sess.set(FullyAuthenticated, p)
	s.log.Info(ctx, "password.changed", "principal", p.ID)
	return nil
}

// recentlyUsed checks password against the current hash and the last
// historyDepth replaced hashes.
func (s *Service) recentlyUsed(ctx context.Context, p *models.Principal, password string) (bool, error) {
	if s.hasher.Verify(password, p.PasswordHash) {
		return true, nil
	}

	hashes, err := s.store.RecentPasswordHistory(ctx, p.ID, s.historyDepth)
	if err != nil {
		return false, s.storeFailure(ctx, "password history", err)
	}
	for _, h := range hashes {
		if s.hasher.Verify(password, h) {
			return true, nil
		}
	}
	return false, nil
}

// LastPasswordChange reports when the session principal last changed their
// password; ok is false if they never did.
func (s *Service) LastPasswordChange(ctx context.Context, sess *Session) (at time.Time, ok bool, err error) {
	p, err := s.current(ctx, sess)
	if err != nil {
		return time.Time{}, false, err
	}
	at, ok, err = s.store.LastPasswordChange(ctx, p.ID)
	if err != nil {
		return time.Time{}, false, s.storeFailure(ctx, "last password change", err)
	}
	return at, ok, nil
}

// current reloads the session principal from the store. It requires a fully
// authenticated session.
func (s *Service) current(ctx context.Context, sess *Session) (*models.Principal, error) {
	if !sess.Authenticated() {
		return nil, common.ErrorUnauthorized
	}

	p, err := s.store.FindByID(ctx, sess.PrincipalID())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			sess.clear()
			return nil, common.ErrorUnauthorized
		}
		return nil, s.storeFailure(ctx, "load principal", err)
	}
	return p, nil
}

// storeFailure logs a store error and narrows it to the store taxonomy so
// nothing below the store contract reaches callers.
func (s *Service) storeFailure(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return fmt.Errorf("%s: %w", op, common.ErrorNotFound)
	case errors.Is(err, common.ErrDuplicateLogin):
		return fmt.Errorf("%s: %w", op, common.ErrDuplicateLogin)
	}
	s.log.Error(ctx, "store.unavailable", "op", op, "error", err.Error())
	return fmt.Errorf("%s: %w", op, common.ErrStoreUnavailable)
}

func validateProfile(p models.Profile) error {
	if p.PostalCode == "" {
		return nil
	}
	return policy.ValidatePostalCode(p.PostalCode)
}
