package store

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/dbx"
)

// translate maps a repository error onto the store taxonomy. The driver
// error is kept as text only so it never leaks through errors.As.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrorNotFound):
		return fmt.Errorf("%s: %w", op, common.ErrorNotFound)
	case dbx.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, common.ErrDuplicateLogin)
	default:
		return fmt.Errorf("%s: %w: %v", op, common.ErrStoreUnavailable, err)
	}
}
