// Package store is the durable side of the accounts core: principals, their
// second-factor state and the password history. Every implementation
// reports failures only as common.ErrorNotFound, common.ErrDuplicateLogin or
// common.ErrStoreUnavailable.
package store

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/models"
)

type CredentialStore interface {
	// FindByLogin matches login exactly; common.ErrorNotFound when absent.
	FindByLogin(ctx context.Context, login string) (*models.Principal, error)
	FindByID(ctx context.Context, id string) (*models.Principal, error)
	LoginExists(ctx context.Context, login string) (bool, error)
	// Insert persists p and returns the sequential code the store assigned.
	Insert(ctx context.Context, p *models.Principal) (int, error)
	List(ctx context.Context) ([]*models.Principal, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	UpdateProfile(ctx context.Context, id string, profile models.Profile) error
	UpdateSecondFactor(ctx context.Context, id string, state models.TotpState) error
	AppendPasswordHistory(ctx context.Context, id, hash string, at time.Time) error
	// RecentPasswordHistory returns at most limit hashes, newest first.
	RecentPasswordHistory(ctx context.Context, id string, limit int) ([]string, error)
	// LastPasswordChange reports when the newest history entry was written;
	// ok is false when the password was never changed.
	LastPasswordChange(ctx context.Context, id string) (at time.Time, ok bool, err error)
	Delete(ctx context.Context, id string) error

	// WithinTx runs fn against a store whose writes either all persist or,
	// when fn returns an error, none do. Nested calls join the outer unit.
	WithinTx(ctx context.Context, fn func(tx CredentialStore) error) error
}
