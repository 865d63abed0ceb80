// Package repomanager vends the SQL repositories for one dialect and applies
// the embedded schema migrations with goose.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophaccounts/internal/dbx"
	"github.com/dmitrijs2005/gophaccounts/internal/migrations"
	"github.com/dmitrijs2005/gophaccounts/internal/repositories/passwordhistory"
	"github.com/dmitrijs2005/gophaccounts/internal/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

type RepositoryManager interface {
	Dialect() dbx.Dialect
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	PasswordHistory(db dbx.DBTX) passwordhistory.Repository
}

// SQLRepositoryManager binds repositories to a DBTX, which may be the
// database itself or an open transaction.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
}

func New(dialect dbx.Dialect) *SQLRepositoryManager {
	return &SQLRepositoryManager{dialect: dialect}
}

func NewPostgresRepositoryManager() *SQLRepositoryManager {
	return New(dbx.Postgres)
}

func NewSQLiteRepositoryManager() *SQLRepositoryManager {
	return New(dbx.SQLite)
}

func (m *SQLRepositoryManager) Dialect() dbx.Dialect {
	return m.dialect
}

func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db, m.dialect)
}

func (m *SQLRepositoryManager) PasswordHistory(db dbx.DBTX) passwordhistory.Repository {
	return passwordhistory.NewSQLRepository(db, m.dialect)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies every pending migration for the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	if m.dialect != dbx.Postgres && m.dialect != dbx.SQLite {
		return fmt.Errorf("migrations: unsupported dialect %q", m.dialect)
	}

	fsys, err := migrations.For(m.dialect)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	goose.SetBaseFS(fsys)
	if err := goose.SetDialect(m.dialect.GooseDialect()); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, ".")
}

// Open connects to dsn with the driver for dialect and checks the
// connection.
func Open(ctx context.Context, dialect dbx.Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, err
	}
	if dialect == dbx.SQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
