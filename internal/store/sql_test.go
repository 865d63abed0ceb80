package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/repositories/repomanager"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewSQLStore(db, repomanager.NewPostgresRepositoryManager()), mock
}

func TestSQLStore_UniqueViolationIsDuplicateLogin(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err := s.Insert(context.Background(), principal("u-1", "alice@example.com"))
	assert.ErrorIs(t, err, common.ErrDuplicateLogin)
}

func TestSQLStore_DriverFailureIsUnavailable(t *testing.T) {
	s, mock := newMockStore(t)

	driverErr := &pgconn.PgError{Code: "57P01", Message: "terminating connection"}
	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+login`).WillReturnError(driverErr)

	_, err := s.FindByLogin(context.Background(), "alice@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
	assert.NotErrorIs(t, err, common.ErrInvalidCredentials)

	var pgErr *pgconn.PgError
	assert.False(t, errors.As(err, &pgErr), "driver error must not escape the store")
	assert.Contains(t, err.Error(), "terminating connection")
}

func TestSQLStore_NoRowsIsNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id`).WillReturnError(sql.ErrNoRows)

	_, err := s.FindByID(context.Background(), "u-1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSQLStore_WithinTxCommit(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE\s+users\s+SET\s+password_hash`).
		WithArgs("u-1", "NEW").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT\s+INTO\s+password_history`).
		WithArgs("u-1", "OLD", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := s.WithinTx(context.Background(), func(tx CredentialStore) error {
		if err := tx.UpdatePassword(context.Background(), "u-1", "NEW"); err != nil {
			return err
		}
		return tx.AppendPasswordHistory(context.Background(), "u-1", "OLD", t0)
	})
	require.NoError(t, err)
}

func TestSQLStore_WithinTxRollbackOnFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE\s+users\s+SET\s+password_hash`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT\s+INTO\s+password_history`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.WithinTx(context.Background(), func(tx CredentialStore) error {
		if err := tx.UpdatePassword(context.Background(), "u-1", "NEW"); err != nil {
			return err
		}
		return tx.AppendPasswordHistory(context.Background(), "u-1", "OLD", t0)
	})
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestSQLStore_WithinTxBeginFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	called := false
	err := s.WithinTx(context.Background(), func(tx CredentialStore) error {
		called = true
		return nil
	})
	assert.False(t, called)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestSQLStore_WithinTxCommitFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	err := s.WithinTx(context.Background(), func(tx CredentialStore) error { return nil })
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate("op", nil))
	assert.ErrorIs(t, translate("op", common.ErrorNotFound), common.ErrorNotFound)
	assert.ErrorIs(t, translate("op", errors.New("x")), common.ErrStoreUnavailable)
	assert.EqualError(t, translate("find", errors.New("x")), "find: store unavailable: x")
}
