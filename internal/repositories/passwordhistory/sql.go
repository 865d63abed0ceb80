package passwordhistory

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophaccounts/internal/dbx"
	"github.com/dmitrijs2005/gophaccounts/internal/models"
)

type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return NewSQLRepository(db, dbx.Postgres)
}

func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return NewSQLRepository(db, dbx.SQLite)
}

func (r *SQLRepository) Append(ctx context.Context, e models.PasswordHistoryEntry) error {
	query := r.dialect.Rebind(
		`INSERT INTO password_history (user_id, password_hash, created_at)
		 VALUES ($1, $2, $3)`)

	if _, err := r.db.ExecContext(ctx, query, e.PrincipalID, e.Hash, e.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Recent orders by insertion so entries written within the same clock tick
// still come back newest first.
func (r *SQLRepository) Recent(ctx context.Context, principalID string, limit int) ([]models.PasswordHistoryEntry, error) {
	query := r.dialect.Rebind(
		`SELECT user_id, password_hash, created_at FROM password_history
		 WHERE user_id = $1
		 ORDER BY id DESC
		 LIMIT $2`)

	rows, err := r.db.QueryContext(ctx, query, principalID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]models.PasswordHistoryEntry, 0, limit)
	for rows.Next() {
		var e models.PasswordHistoryEntry
		if err := rows.Scan(&e.PrincipalID, &e.Hash, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) DeleteForPrincipal(ctx context.Context, principalID string) error {
	query := r.dialect.Rebind(`DELETE FROM password_history WHERE user_id = $1`)
	if _, err := r.db.ExecContext(ctx, query, principalID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
