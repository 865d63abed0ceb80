package users

import (
	"context"

	"github.com/dmitrijs2005/gophaccounts/internal/models"
)

// Repository persists principals. Lookups that match nothing return
// common.ErrorNotFound; every other failure is a wrapped driver error.
type Repository interface {
	Create(ctx context.Context, p *models.Principal) (*models.Principal, error)
	GetByLogin(ctx context.Context, login string) (*models.Principal, error)
	GetByID(ctx context.Context, id string) (*models.Principal, error)
	LoginExists(ctx context.Context, login string) (bool, error)
	List(ctx context.Context) ([]*models.Principal, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	UpdateProfile(ctx context.Context, id string, profile models.Profile) error
	UpdateSecondFactor(ctx context.Context, id string, state models.TotpState) error
	Delete(ctx context.Context, id string) error
	// SetAdmin grants or revokes the administrator flag by login.
	SetAdmin(ctx context.Context, login string, admin bool) error
}
