package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/models"
)

// MemoryStore keeps everything in process memory. It is used for local runs
// and as the reference implementation in tests.
type MemoryStore struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	byID     map[string]*models.Principal
	history  map[string][]models.PasswordHistoryEntry
	nextCode int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[string]*models.Principal),
		history:  make(map[string][]models.PasswordHistoryEntry),
		nextCode: 1,
	}
}

func clone(p *models.Principal) *models.Principal {
	c := *p
	return &c
}

func (m *MemoryStore) findByLogin(login string) *models.Principal {
	for _, p := range m.byID {
		if p.Login == login {
			return p
		}
	}
	return nil
}

func (m *MemoryStore) FindByLogin(_ context.Context, login string) (*models.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p := m.findByLogin(login); p != nil {
		return clone(p), nil
	}
	return nil, fmt.Errorf("find by login: %w", common.ErrorNotFound)
}

func (m *MemoryStore) FindByID(_ context.Context, id string) (*models.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.byID[id]; ok {
		return clone(p), nil
	}
	return nil, fmt.Errorf("find by id: %w", common.ErrorNotFound)
}

func (m *MemoryStore) LoginExists(_ context.Context, login string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findByLogin(login) != nil, nil
}

func (m *MemoryStore) Insert(_ context.Context, p *models.Principal) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findByLogin(p.Login) != nil {
		return 0, fmt.Errorf("insert: %w", common.ErrDuplicateLogin)
	}
	if _, ok := m.byID[p.ID]; ok {
		return 0, fmt.Errorf("insert: %w", common.ErrDuplicateLogin)
	}

	c := clone(p)
	c.Code = m.nextCode
	m.nextCode++
	m.byID[c.ID] = c
	return c.Code, nil
}

func (m *MemoryStore) List(_ context.Context) ([]*models.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.Principal, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *MemoryStore) update(op, id string, fn func(p *models.Principal)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, common.ErrorNotFound)
	}
	fn(p)
	return nil
}

func (m *MemoryStore) UpdatePassword(_ context.Context, id, hash string) error {
	return m.update("update password", id, func(p *models.Principal) { p.PasswordHash = hash })
}

func (m *MemoryStore) UpdateProfile(_ context.Context, id string, profile models.Profile) error {
	return m.update("update profile", id, func(p *models.Principal) { p.Profile = profile })
}

func (m *MemoryStore) UpdateSecondFactor(_ context.Context, id string, state models.TotpState) error {
	return m.update("update second factor", id, func(p *models.Principal) { p.TOTP = state })
}

func (m *MemoryStore) AppendPasswordHistory(_ context.Context, id, hash string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return fmt.Errorf("append password history: %w", common.ErrorNotFound)
	}
	m.history[id] = append(m.history[id], models.PasswordHistoryEntry{PrincipalID: id, Hash: hash, CreatedAt: at})
	return nil
}

func (m *MemoryStore) RecentPasswordHistory(_ context.Context, id string, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.history[id]
	out := make([]string, 0, limit)
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, entries[i].Hash)
	}
	return out, nil
}

func (m *MemoryStore) LastPasswordChange(_ context.Context, id string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.history[id]
	if len(entries) == 0 {
		return time.Time{}, false, nil
	}
	return entries[len(entries)-1].CreatedAt, true, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return fmt.Errorf("delete: %w", common.ErrorNotFound)
	}
	delete(m.byID, id)
	delete(m.history, id)
	return nil
}

type memorySnapshot struct {
	byID     map[string]*models.Principal
	history  map[string][]models.PasswordHistoryEntry
	nextCode int
}

func (m *MemoryStore) snapshot() memorySnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := memorySnapshot{
		byID:     make(map[string]*models.Principal, len(m.byID)),
		history:  make(map[string][]models.PasswordHistoryEntry, len(m.history)),
		nextCode: m.nextCode,
	}
	for id, p := range m.byID {
		s.byID[id] = clone(p)
	}
	for id, h := range m.history {
		s.history[id] = append([]models.PasswordHistoryEntry(nil), h...)
	}
	return s
}

func (m *MemoryStore) restore(s memorySnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID, m.history, m.nextCode = s.byID, s.history, s.nextCode
}

// WithinTx serialises transactions and restores the pre-call state when fn
// fails.
func (m *MemoryStore) WithinTx(_ context.Context, fn func(tx CredentialStore) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	if err := fn(memoryTx{m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// memoryTx is the handle given to WithinTx callbacks; nested calls run
// inline.
type memoryTx struct {
	*MemoryStore
}

func (t memoryTx) WithinTx(_ context.Context, fn func(tx CredentialStore) error) error {
	return fn(t)
}
