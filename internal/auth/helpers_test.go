package auth

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/cryptox"
	"github.com/dmitrijs2005/gophaccounts/internal/hashing"
	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/models"
	"github.com/dmitrijs2005/gophaccounts/internal/store"
	"github.com/dmitrijs2005/gophaccounts/internal/totp"
	"github.com/stretchr/testify/require"
)

const (
	aliceLogin = "alice@example.com"
	alicePass  = "Secret#0!Pass"
)

// clock is shared by the engine and the service so a test can move time.
type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	svc    *Service
	store  store.CredentialStore
	mem    *store.MemoryStore
	engine *totp.Engine
	hasher *hashing.Hasher
	clock  *clock
	logs   *bytes.Buffer
	ctx    context.Context
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithStore(t, nil)
}

// newFixtureWithStore wraps the memory store with wrap when it is non-nil.
func newFixtureWithStore(t *testing.T, wrap func(*store.MemoryStore) store.CredentialStore) *fixture {
	t.Helper()

	c, err := cryptox.NewAEAD(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	clk := &clock{t: time.Unix(totp.Period*56666667, 0).UTC()}
	engine := totp.NewEngine("PPE", c, totp.WithClock(clk.Now))

	var logs bytes.Buffer
	log, err := logging.New("debug", logging.FormatText, &logs)
	require.NoError(t, err)

	mem := store.NewMemoryStore()
	var st store.CredentialStore = mem
	if wrap != nil {
		st = wrap(mem)
	}

	hasher := hashing.NewHasher()
	n := 0
	svc := NewService(st, hasher, engine,
		WithLogger(log),
		WithClock(clk.Now),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("00000000-0000-0000-0000-%012d", n)
		}),
	)

	return &fixture{
		svc: svc, store: st, mem: mem, engine: engine, hasher: hasher,
		clock: clk, logs: &logs, ctx: context.Background(),
	}
}

func pw(i int) string {
	return fmt.Sprintf("Secret#%d!Pass", i)
}

func (f *fixture) register(t *testing.T, login, password string) *Session {
	t.Helper()
	sess, err := f.svc.Register(f.ctx, login, password, models.Profile{Name: "Test"})
	require.NoError(t, err)
	return sess
}

// addAdmin inserts an administrator directly, the way an operator would.
func (f *fixture) addAdmin(t *testing.T, login, password string) *Session {
	t.Helper()
	_, err := f.mem.Insert(f.ctx, &models.Principal{
		ID:           "ffffffff-0000-0000-0000-000000000001",
		Login:        login,
		PasswordHash: f.hasher.Hash(password),
		Admin:        true,
		CreatedAt:    f.clock.Now(),
	})
	require.NoError(t, err)

	sess, err := f.svc.Login(f.ctx, login, password)
	require.NoError(t, err)
	return sess
}

func (f *fixture) code(t *testing.T, seed string) string {
	t.Helper()
	c, err := f.engine.CodeAt(seed, f.clock.Now())
	require.NoError(t, err)
	return c
}

// enroll runs both enrollment steps and returns the seed and codes.
func (f *fixture) enroll(t *testing.T, sess *Session, password string) (string, []string) {
	t.Helper()
	enr, err := f.svc.BeginEnrollment(f.ctx, sess, password)
	require.NoError(t, err)
	require.NoError(t, f.svc.ConfirmEnrollment(f.ctx, sess, enr, f.code(t, enr.Seed.Reveal())))
	return enr.Seed.Reveal(), models.RevealAll(enr.RecoveryCodes)
}

// wrongCode returns a six-digit code that differs from every code in the
// drift window around now.
func (f *fixture) wrongCode(t *testing.T, seed string) string {
	t.Helper()
	for i := 0; i < 1000000; i++ {
		c := fmt.Sprintf("%06d", i)
		if !f.engine.ValidateCode(seed, c) {
			return c
		}
	}
	t.Fatal("no invalid code found")
	return ""
}

func (f *fixture) assertLogsClean(t *testing.T, secrets ...string) {
	t.Helper()
	out := f.logs.String()
	for _, s := range secrets {
		if s != "" && strings.Contains(out, s) {
			t.Fatalf("log output contains secret %q:\n%s", s, out)
		}
	}
}

// flakyStore fails selected operations the way an unreachable database
// would.
type flakyStore struct {
	*store.MemoryStore
	failFind    bool
	failAppend  bool
	failHistory bool
	failUpdate2 bool
}

func unavailable(op string) error {
	return fmt.Errorf("%s: %w: connection refused", op, common.ErrStoreUnavailable)
}

func (s *flakyStore) FindByLogin(ctx context.Context, login string) (*models.Principal, error) {
	if s.failFind {
		return nil, unavailable("find by login")
	}
	return s.MemoryStore.FindByLogin(ctx, login)
}

func (s *flakyStore) LoginExists(ctx context.Context, login string) (bool, error) {
	if s.failFind {
		return false, unavailable("login exists")
	}
	return s.MemoryStore.LoginExists(ctx, login)
}

func (s *flakyStore) AppendPasswordHistory(ctx context.Context, id, hash string, at time.Time) error {
	if s.failAppend {
		return unavailable("append password history")
	}
	return s.MemoryStore.AppendPasswordHistory(ctx, id, hash, at)
}

func (s *flakyStore) RecentPasswordHistory(ctx context.Context, id string, limit int) ([]string, error) {
	if s.failHistory {
		return nil, unavailable("recent password history")
	}
	return s.MemoryStore.RecentPasswordHistory(ctx, id, limit)
}

func (s *flakyStore) UpdateSecondFactor(ctx context.Context, id string, state models.TotpState) error {
	if s.failUpdate2 {
		return unavailable("update second factor")
	}
	return s.MemoryStore.UpdateSecondFactor(ctx, id, state)
}

func (s *flakyStore) WithinTx(ctx context.Context, fn func(tx store.CredentialStore) error) error {
	return s.MemoryStore.WithinTx(ctx, func(store.CredentialStore) error { return fn(s) })
}
