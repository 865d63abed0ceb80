package auth

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/store"
	"github.com/dmitrijs2005/gophaccounts/internal/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestBeginEnrollment_DoesNotPersist(t *testing.T) {
	f := newFixture(t)
	sess := f.register(t, aliceLogin, alicePass)

	enr, err := f.svc.BeginEnrollment(f.ctx, sess, alicePass)
	require.NoError(t, err)

	assert.Len(t, enr.Seed.Reveal(), 32)
	assert.True(t, strings.HasPrefix(enr.URI.Reveal(), "otpauth://totp/PPE:alice%40example.com?secret="+enr.Seed.Reveal()))
	assert.True(t, bytes.HasPrefix(enr.QRCode, pngMagic))
	assert.Len(t, enr.RecoveryCodes, totp.RecoveryCodeCount)

	p, err := f.store.FindByID(f.ctx, sess.PrincipalID())
	require.NoError(t, err)
	assert.False(t, p.TOTP.Enabled)
	assert.Empty(t, p.TOTP.EncryptedSeed)
	assert.Empty(t, p.TOTP.EncryptedRecoveryCodes)
}

func TestBeginEnrollment_WrongPassword(t *testing.T) {
	f := newFixture(t)
	sess := f.register(t, aliceLogin, alicePass)

	_, err := f.svc.BeginEnrollment(f.ctx, sess, pw(8))
	assert.ErrorIs(t, err, common.ErrWrongCurrentPassword)
}

func TestConfirmEnrollment(t *testing.T) {
	f := newFixture(t)
	sess := f.register(t, aliceLogin, alicePass)

	enr, err := f.svc.BeginEnrollment(f.ctx, sess, alicePass)
	require.NoError(t, err)
	seed := enr.Seed.Reveal()

	err = f.svc.ConfirmEnrollment(f.ctx, sess, enr, f.wrongCode(t, seed))
	assert.ErrorIs(t, err, common.ErrInvalidSecondFactor)

	p, err := f.store.FindByID(f.ctx, sess.PrincipalID())
	require.NoError(t, err)
	assert.False(t, p.TOTP.Enabled, "a rejected code must not enable the factor")

	require.NoError(t, f.svc.ConfirmEnrollment(f.ctx, sess, enr, f.code(t, seed)))

	p, err = f.store.FindByID(f.ctx, sess.PrincipalID())
	require.NoError(t, err)
	assert.True(t, p.TOTP.Enabled)
	assert.NotEmpty(t, p.TOTP.EncryptedSeed)
	assert.NotContains(t, p.TOTP.EncryptedSeed, seed)
	assert.True(t, sess.Principal().TOTP.Enabled)

	_, err = f.svc.BeginEnrollment(f.ctx, sess, alicePass)
	assert.ErrorIs(t, err, common.ErrSecondFactorAlreadyEnabled)

	remaining, err := f.svc.RecoveryCodesRemaining(f.ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, totp.RecoveryCodeCount, remaining)

	f.assertLogsClean(t, seed, alicePass)
	for _, c := range enr.RecoveryCodes {
		f.assertLogsClean(t, c.Reveal())
	}
}

func TestConfirmEnrollment_ForeignEnrollment(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, aliceLogin, alicePass)
	bob := f.register(t, "bob@example.com", pw(1))

	enr, err := f.svc.BeginEnrollment(f.ctx, alice, alicePass)
	require.NoError(t, err)

	err = f.svc.ConfirmEnrollment(f.ctx, bob, enr, f.code(t, enr.Seed.Reveal()))
	assert.ErrorIs(t, err, common.ErrInvalidState)
	assert.ErrorIs(t, f.svc.ConfirmEnrollment(f.ctx, alice, nil, "000000"), common.ErrInvalidState)
}

func TestLogin_WithSecondFactor(t *testing.T) {
	f := newFixture(t)
	sess := f.register(t, aliceLogin, alicePass)
	seed, _ := f.enroll(t, sess, alicePass)

	pending, err := f.svc.Login(f.ctx, aliceLogin, alicePass)
	require.NoError(t, err)
	assert.Equal(t, AwaitingSecondFactor, pending.State())
	assert.False(t, pending.Authenticated())

	err = f.svc.ChangePassword(f.ctx, pending, alicePass, pw(1))
	assert.ErrorIs(t, err, common.ErrorUnauthorized, "half-authenticated sessions cannot act")

	ok, err := f.svc.VerifySecondFactor(f.ctx, pending, f.wrongCode(t, seed))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, AwaitingSecondFactor, pending.State())

	ok, err = f.svc.VerifySecondFactor(f.ctx, pending, f.code(t, seed))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, FullyAuthenticated, pending.State())

	_, err = f.svc.VerifySecondFactor(f.ctx, pending, f.code(t, seed))
	assert.ErrorIs(t, err, common.ErrInvalidState)
}

func TestVerifySecondFactor_ClockDrift(t *testing.T) {
	f := newFixture(t)
	sess := f.register(t, aliceLogin, alicePass)
	seed, _ := f.enroll(t, sess, alicePass)

	code := f.code(t, seed)
	f.clock.Advance(60 * time.Second)

	pending, err := f.svc.Login(f.ctx, aliceLogin, alicePass)
	require.NoError(t, err)
	ok, err := f.svc.VerifySecondFactor(f.ctx, pending, code)
	require.NoError(t, err)
	assert.True(t, ok, "a code two steps old is accepted")

	f.clock.Advance(30 * time.Second)
	pending, err = f.svc.Login(f.ctx, aliceLogin, alicePass)
	require.NoError(t, err)
	ok, err = f.svc.VerifySecondFactor(f.ctx, pending, code)
	require.NoError(t, err)
	assert.False(t, ok, "a code three steps old is rejected")
}

func TestVerifySecondFactor_RecoveryCodeIsSingleUse(t *testing.T) {
	f := newFixture(t)
	sess := f.register(t, aliceLogin, alicePass)
	_, codes := f.enroll(t, sess, alicePass)

	pending, err := f.svc.Login(f.ctx, aliceLogin, alicePass)
	require.NoError(t, err)

	// Lower case with a hyphen is normalised.
	submitted := strings.ToLower(codes[2][:4] + "-" + codes[2][4:])
	ok, err := f.svc.VerifySecondFactor(f.ctx, pending, submitted)
	require.NoError(t, err)
	require.True(t, ok)

	remaining, err := f.svc.RecoveryCodesRemaining(f.ctx, pending)
	require.NoError(t, err)
	assert.Equal(t, totp.RecoveryCodeCount-1, remaining)

	replay, err := f.svc.Login(f.ctx, aliceLogin, alicePass)
	require.NoError(t, err)
	ok, err = f.svc.VerifySecondFactor(f.ctx, replay, codes[2])
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, AwaitingSecondFactor, replay.State())
}

func TestVerifySecondFactor_ExhaustedCodesKeepFactorEnabled(t *testing.T) {
	f := newFixture(t)
	sess := f.register(t, aliceLogin, alicePass)
	seed, codes := f.enroll(t, sess, alicePass)

	for _, c := range codes {
		pending, err := f.svc.Login(f.ctx, aliceLogin, alicePass)
		require.NoError(t, err)
		ok, err := f.svc.VerifySecondFactor(f.ctx, pending, c)
		require.NoError(t, err)
		require.True(t, ok)
	}

	remaining, err := f.svc.RecoveryCodesRemaining(f.ctx, sess)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	pending, err := f.svc.Login(f.ctx, aliceLogin, alicePass)
	require.NoError(t, err)
	assert.Equal(t, AwaitingSecondFactor, pending.State(), "second factor stays enabled with no codes left")

	ok, err := f.svc.VerifySecondFactor(f.ctx, pending, f.code(t, seed))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifySecondFactor_RecoveryCodeStoreFailure(t *testing.T) {
	var flaky *flakyStore
	f := newFixtureWithStore(t, func(m *store.MemoryStore) store.CredentialStore {
		flaky = &flakyStore{MemoryStore: m}
		return flaky
	})
	sess := f.register(t, aliceLogin, alicePass)
	_, codes := f.enroll(t, sess, alicePass)

	pending, err := f.svc.Login(f.ctx, aliceLogin, alicePass)
	require.NoError(t, err)

	flaky.failUpdate2 = true
	ok, err := f.svc.VerifySecondFactor(f.ctx, pending, codes[0])
	assert.False(t, ok)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.Equal(t, AwaitingSecondFactor, pending.State(), "success is only reported once the code is burned")
}

func corruptSeed(t *testing.T, f *fixture, id string) {
	t.Helper()
	p, err := f.mem.FindByID(f.ctx, id)
	require.NoError(t, err)
	state := p.TOTP
	state.EncryptedSeed = "not-a-ciphertext"
	require.NoError(t, f.mem.UpdateSecondFactor(f.ctx, id, state))
}

func TestVerifySecondFactor_CorruptSeed(t *testing.T) {
	f := newFixture(t)
	sess := f.register(t, aliceLogin, alicePass)
	seed, codes := f.enroll(t, sess, alicePass)
	corruptSeed(t, f, sess.PrincipalID())

	pending, err := f.svc.Login(f.ctx, aliceLogin, alicePass)
	require.NoError(t, err)

	ok, err := f.svc.VerifySecondFactor(f.ctx, pending, f.code(t, seed))
	assert.False(t, ok)
	assert.ErrorIs(t, err, common.ErrSecretUnavailable, "a broken seed is never treated as absent")
	assert.Equal(t, AwaitingSecondFactor, pending.State())

	ok, err = f.svc.VerifySecondFactor(f.ctx, pending, codes[0])
	require.NoError(t, err)
	assert.True(t, ok, "recovery codes still work when the seed is unreadable")

	require.NoError(t, f.svc.DisableSecondFactor(f.ctx, pending, alicePass))

	again, err := f.svc.Login(f.ctx, aliceLogin, alicePass)
	require.NoError(t, err)
	assert.Equal(t, FullyAuthenticated, again.State())
}

func TestDisableSecondFactor(t *testing.T) {
	f := newFixture(t)
	sess := f.register(t, aliceLogin, alicePass)

	assert.ErrorIs(t, f.svc.DisableSecondFactor(f.ctx, sess, alicePass), common.ErrSecondFactorNotEnabled)

	f.enroll(t, sess, alicePass)

	assert.ErrorIs(t, f.svc.DisableSecondFactor(f.ctx, sess, pw(3)), common.ErrWrongCurrentPassword)
	p, err := f.store.FindByID(f.ctx, sess.PrincipalID())
	require.NoError(t, err)
	assert.True(t, p.TOTP.Enabled)

	require.NoError(t, f.svc.DisableSecondFactor(f.ctx, sess, alicePass))

	p, err = f.store.FindByID(f.ctx, sess.PrincipalID())
	require.NoError(t, err)
	assert.False(t, p.TOTP.Enabled)
	assert.Empty(t, p.TOTP.EncryptedSeed)
	assert.Empty(t, p.TOTP.EncryptedRecoveryCodes)

	_, err = f.svc.RecoveryCodesRemaining(f.ctx, sess)
	assert.ErrorIs(t, err, common.ErrSecondFactorNotEnabled)
}

func TestRegenerateRecoveryCodes(t *testing.T) {
	f := newFixture(t)
	sess := f.register(t, aliceLogin, alicePass)

	_, err := f.svc.RegenerateRecoveryCodes(f.ctx, sess, alicePass)
	assert.ErrorIs(t, err, common.ErrSecondFactorNotEnabled)

	seed, old := f.enroll(t, sess, alicePass)

	_, err = f.svc.RegenerateRecoveryCodes(f.ctx, sess, pw(4))
	assert.ErrorIs(t, err, common.ErrWrongCurrentPassword)

	fresh, err := f.svc.RegenerateRecoveryCodes(f.ctx, sess, alicePass)
	require.NoError(t, err)
	require.Len(t, fresh, totp.RecoveryCodeCount)

	pending, err := f.svc.Login(f.ctx, aliceLogin, alicePass)
	require.NoError(t, err)
	ok, err := f.svc.VerifySecondFactor(f.ctx, pending, old[0])
	require.NoError(t, err)
	assert.False(t, ok, "old codes are gone")

	ok, err = f.svc.VerifySecondFactor(f.ctx, pending, fresh[0].Reveal())
	require.NoError(t, err)
	assert.True(t, ok)

	again, err := f.svc.Login(f.ctx, aliceLogin, alicePass)
	require.NoError(t, err)
	ok, err = f.svc.VerifySecondFactor(f.ctx, again, f.code(t, seed))
	require.NoError(t, err)
	assert.True(t, ok, "seed survives regeneration")
}
