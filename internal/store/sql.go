package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/dbx"
	"github.com/dmitrijs2005/gophaccounts/internal/models"
	"github.com/dmitrijs2005/gophaccounts/internal/repositories/repomanager"
)

// SQLStore implements CredentialStore over the SQL repositories.
type SQLStore struct {
	db   *sql.DB
	h    dbx.DBTX
	rm   repomanager.RepositoryManager
	inTx bool
}

func NewSQLStore(db *sql.DB, rm repomanager.RepositoryManager) *SQLStore {
	return &SQLStore{db: db, h: db, rm: rm}
}

func (s *SQLStore) FindByLogin(ctx context.Context, login string) (*models.Principal, error) {
	p, err := s.rm.Users(s.h).GetByLogin(ctx, login)
	if err != nil {
		return nil, translate("find by login", err)
	}
	return p, nil
}

func (s *SQLStore) FindByID(ctx context.Context, id string) (*models.Principal, error) {
	p, err := s.rm.Users(s.h).GetByID(ctx, id)
	if err != nil {
		return nil, translate("find by id", err)
	}
	return p, nil
}

func (s *SQLStore) LoginExists(ctx context.Context, login string) (bool, error) {
	ok, err := s.rm.Users(s.h).LoginExists(ctx, login)
	if err != nil {
		return false, translate("login exists", err)
	}
	return ok, nil
}

func (s *SQLStore) Insert(ctx context.Context, p *models.Principal) (int, error) {
	created, err := s.rm.Users(s.h).Create(ctx, p)
	if err != nil {
		return 0, translate("insert", err)
	}
	return created.Code, nil
}

func (s *SQLStore) List(ctx context.Context) ([]*models.Principal, error) {
	list, err := s.rm.Users(s.h).List(ctx)
	if err != nil {
		return nil, translate("list", err)
	}
	return list, nil
}

func (s *SQLStore) UpdatePassword(ctx context.Context, id, hash string) error {
	return translate("update password", s.rm.Users(s.h).UpdatePassword(ctx, id, hash))
}

func (s *SQLStore) UpdateProfile(ctx context.Context, id string, profile models.Profile) error {
	return translate("update profile", s.rm.Users(s.h).UpdateProfile(ctx, id, profile))
}

func (s *SQLStore) UpdateSecondFactor(ctx context.Context, id string, state models.TotpState) error {
	return translate("update second factor", s.rm.Users(s.h).UpdateSecondFactor(ctx, id, state))
}

func (s *SQLStore) AppendPasswordHistory(ctx context.Context, id, hash string, at time.Time) error {
	e := models.PasswordHistoryEntry{PrincipalID: id, Hash: hash, CreatedAt: at.UTC()}
	return translate("append password history", s.rm.PasswordHistory(s.h).Append(ctx, e))
}

func (s *SQLStore) RecentPasswordHistory(ctx context.Context, id string, limit int) ([]string, error) {
	entries, err := s.rm.PasswordHistory(s.h).Recent(ctx, id, limit)
	if err != nil {
		return nil, translate("recent password history", err)
	}
	hashes := make([]string, len(entries))
	for i, e := range entries {
		hashes[i] = e.Hash
	}
	return hashes, nil
}

func (s *SQLStore) LastPasswordChange(ctx context.Context, id string) (time.Time, bool, error) {
	entries, err := s.rm.PasswordHistory(s.h).Recent(ctx, id, 1)
	if err != nil {
		return time.Time{}, false, translate("last password change", err)
	}
	if len(entries) == 0 {
		return time.Time{}, false, nil
	}
	return entries[0].CreatedAt, true, nil
}

// Delete removes the principal together with its password history.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	return s.WithinTx(ctx, func(tx CredentialStore) error {
		t := tx.(*SQLStore)
		if err := t.rm.PasswordHistory(t.h).DeleteForPrincipal(ctx, id); err != nil {
			return translate("delete history", err)
		}
		return translate("delete", t.rm.Users(t.h).Delete(ctx, id))
	})
}

func (s *SQLStore) WithinTx(ctx context.Context, fn func(tx CredentialStore) error) error {
	if s.inTx {
		return fn(s)
	}

	var fnErr error
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		fnErr = fn(&SQLStore{db: s.db, h: tx, rm: s.rm, inTx: true})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	return translate("transaction", err)
}
