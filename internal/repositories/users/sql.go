package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/dbx"
	"github.com/dmitrijs2005/gophaccounts/internal/models"
)

const columns = `id, code, login, password_hash, admin, name, address, city, postal_code,
		        totp_secret, totp_enabled, recovery_codes, created_at`

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

type scanner interface {
	Scan(dest ...any) error
}

func scanPrincipal(row scanner) (*models.Principal, error) {
	p := &models.Principal{}
	err := row.Scan(&p.ID, &p.Code, &p.Login, &p.PasswordHash, &p.Admin,
		&p.Profile.Name, &p.Profile.Address, &p.Profile.City, &p.Profile.PostalCode,
		&p.TOTP.EncryptedSeed, &p.TOTP.Enabled, &p.TOTP.EncryptedRecoveryCodes, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts p and fills in the sequential code assigned by the database.
func (r *SQLRepository) Create(ctx context.Context, p *models.Principal) (*models.Principal, error) {
	query := r.dialect.Rebind(
		`INSERT INTO users (id, login, password_hash, admin, name, address, city, postal_code,
		                    totp_secret, totp_enabled, recovery_codes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING code
		 `)

	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.Login, p.PasswordHash, p.Admin,
		p.Profile.Name, p.Profile.Address, p.Profile.City, p.Profile.PostalCode,
		p.TOTP.EncryptedSeed, p.TOTP.Enabled, p.TOTP.EncryptedRecoveryCodes, p.CreatedAt,
	).Scan(&p.Code)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *SQLRepository) getOne(ctx context.Context, where string, arg any) (*models.Principal, error) {
	query := r.dialect.Rebind(`SELECT ` + columns + ` FROM users WHERE ` + where + ` = $1`)

	p, err := scanPrincipal(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// GetByLogin matches login exactly, including case.
func (r *SQLRepository) GetByLogin(ctx context.Context, login string) (*models.Principal, error) {
	return r.getOne(ctx, "login", login)
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.Principal, error) {
	return r.getOne(ctx, "id", id)
}

func (r *SQLRepository) LoginExists(ctx context.Context, login string) (bool, error) {
	query := r.dialect.Rebind(`SELECT COUNT(*) FROM users WHERE login = $1`)

	var n int
	if err := r.db.QueryRowContext(ctx, query, login).Scan(&n); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *SQLRepository) List(ctx context.Context) ([]*models.Principal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM users ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Principal
	for rows.Next() {
		p, err := scanPrincipal(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// exec runs an UPDATE or DELETE keyed by a unique column and maps "no row touched" to
// common.ErrorNotFound.
func (r *SQLRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
}

func (r *SQLRepository) UpdateProfile(ctx context.Context, id string, profile models.Profile) error {
	return r.exec(ctx,
		`UPDATE users SET name = $2, address = $3, city = $4, postal_code = $5 WHERE id = $1`,
		id, profile.Name, profile.Address, profile.City, profile.PostalCode)
}

func (r *SQLRepository) UpdateSecondFactor(ctx context.Context, id string, state models.TotpState) error {
	return r.exec(ctx,
		`UPDATE users SET totp_secret = $2, totp_enabled = $3, recovery_codes = $4 WHERE id = $1`,
		id, state.EncryptedSeed, state.Enabled, state.EncryptedRecoveryCodes)
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, `DELETE FROM users WHERE id = $1`, id)
}

func (r *SQLRepository) SetAdmin(ctx context.Context, login string, admin bool) error {
	return r.exec(ctx, `UPDATE users SET admin = $2 WHERE login = $1`, login, admin)
}
