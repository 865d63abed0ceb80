package auth

import (
	"context"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/models"
)

// UpdateProfile edits the profile of principal id. The session must belong
// to that principal or to an administrator.
func (s *Service) UpdateProfile(ctx context.Context, sess *Session, id string, profile models.Profile) error {
	me, err := s.current(ctx, sess)
	if err != nil {
		return err
	}
	if me.ID != id && !me.Admin {
		return common.ErrorUnauthorized
	}
	if err := validateProfile(profile); err != nil {
		return err
	}

	if err := s.store.UpdateProfile(ctx, id, profile); err != nil {
		return s.storeFailure(ctx, "update profile", err)
	}

	if me.ID == id {
		me.Profile = profile
		sess.set(FullyAuthenticated, me)
	}
	s.log.Info(ctx, "profile.updated", "principal", id, "by", me.ID)
	return nil
}

// DeleteAccount removes principal id. Administrators only, and never the
// administrator's own account.
func (s *Service) DeleteAccount(ctx context.Context, sess *Session, id string) error {
	me, err := s.admin(ctx, sess)
	if err != nil {
		return err
	}
	if me.ID == id {
		return common.ErrInvalidState
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return s.storeFailure(ctx, "delete account", err)
	}
	s.log.Info(ctx, "account.deleted", "principal", id, "by", me.ID)
	return nil
}

// ListPrincipals returns every account ordered by code. Administrators only.
func (s *Service) ListPrincipals(ctx context.Context, sess *Session) ([]*models.Principal, error) {
	if _, err := s.admin(ctx, sess); err != nil {
		return nil, err
	}
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, s.storeFailure(ctx, "list principals", err)
	}
	return list, nil
}

func (s *Service) admin(ctx context.Context, sess *Session) (*models.Principal, error) {
	me, err := s.current(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !me.Admin {
		return nil, common.ErrorUnauthorized
	}
	return me, nil
}
