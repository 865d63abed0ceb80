package passwordhistory

import (
	"context"

	"github.com/dmitrijs2005/gophaccounts/internal/models"
)

// Repository is the append-only log of replaced password hashes.
type Repository interface {
	Append(ctx context.Context, e models.PasswordHistoryEntry) error
	// Recent returns at most limit entries for the principal, newest first.
	Recent(ctx context.Context, principalID string, limit int) ([]models.PasswordHistoryEntry, error)
	DeleteForPrincipal(ctx context.Context, principalID string) error
}
