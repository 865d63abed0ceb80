package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/gophaccounts/internal/auth"
	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/models"
)

// readProfile prompts for every profile field; an empty answer keeps the
// value from cur.
func (a *App) readProfile(cur models.Profile) (models.Profile, error) {
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"Name", &cur.Name},
		{"Address", &cur.Address},
		{"City", &cur.City},
		{"Postal code", &cur.PostalCode},
	}

	for _, f := range fields {
		prompt := f.prompt
		if *f.dst != "" {
			prompt += " [" + *f.dst + "]"
		}
		v, err := a.text(prompt)
		if err != nil {
			return models.Profile{}, err
		}
		if v != "" {
			*f.dst = v
		}
	}
	return cur, nil
}

// Profile edits the caller's profile. Administrators may name another
// account.
func (a *App) Profile(ctx context.Context) error {
	if err := a.requireState(auth.FullyAuthenticated); err != nil {
		return err
	}
	me := a.sess.Principal()

	target := me
	if me.Admin {
		id, err := a.text("Account id (empty for your own)")
		if err != nil {
			return err
		}
		if id != "" && id != me.ID {
			if target, err = a.find(ctx, id); err != nil {
				return err
			}
		}
	}

	profile, err := a.readProfile(target.Profile)
	if err != nil {
		return err
	}
	if err := a.svc.UpdateProfile(ctx, a.sess, target.ID, profile); err != nil {
		return err
	}
	a.println("Profile updated.")
	return nil
}

func (a *App) find(ctx context.Context, id string) (*models.Principal, error) {
	all, err := a.svc.ListPrincipals(ctx, a.sess)
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, common.ErrorNotFound
}

// List prints every account. Administrators only.
func (a *App) List(ctx context.Context) error {
	all, err := a.svc.ListPrincipals(ctx, a.sess)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tID\tLOGIN\tNAME\tCITY\tADMIN\t2FA")
	for _, p := range all {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Code, p.ID, p.Login, p.Profile.Name, p.Profile.City, yesNo(p.Admin), yesNo(p.TOTP.Enabled))
	}
	return tw.Flush()
}

// Delete removes an account and its password history. Administrators only.
func (a *App) Delete(ctx context.Context) error {
	if err := a.requireState(auth.FullyAuthenticated); err != nil {
		return err
	}
	id, err := a.text("Account id to delete")
	if err != nil {
		return err
	}
	target, err := a.find(ctx, id)
	if err != nil {
		return err
	}

	ok, err := GetConfirmation(a.reader, "Delete "+target.Login+"?", a.out)
	if err != nil {
		return err
	}
	if !ok {
		a.println("Cancelled.")
		return nil
	}

	if err := a.svc.DeleteAccount(ctx, a.sess, target.ID); err != nil {
		return err
	}
	a.println("Account deleted.")
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
