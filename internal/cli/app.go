package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/auth"
	"github.com/dmitrijs2005/gophaccounts/internal/models"
)

// AuthService is the part of auth.Service the console uses.
type AuthService interface {
	Register(ctx context.Context, login, password string, profile models.Profile) (*auth.Session, error)
	Login(ctx context.Context, login, password string) (*auth.Session, error)
	VerifySecondFactor(ctx context.Context, sess *auth.Session, code string) (bool, error)
	Logout(ctx context.Context, sess *auth.Session)
	ChangePassword(ctx context.Context, sess *auth.Session, current, next string) error
	LastPasswordChange(ctx context.Context, sess *auth.Session) (time.Time, bool, error)

	BeginEnrollment(ctx context.Context, sess *auth.Session, password string) (*auth.Enrollment, error)
	ConfirmEnrollment(ctx context.Context, sess *auth.Session, enr *auth.Enrollment, code string) error
	DisableSecondFactor(ctx context.Context, sess *auth.Session, password string) error
	RegenerateRecoveryCodes(ctx context.Context, sess *auth.Session, password string) ([]models.Secret, error)
	RecoveryCodesRemaining(ctx context.Context, sess *auth.Session) (int, error)

	UpdateProfile(ctx context.Context, sess *auth.Session, id string, profile models.Profile) error
	DeleteAccount(ctx context.Context, sess *auth.Session, id string) error
	ListPrincipals(ctx context.Context, sess *auth.Session) ([]*models.Principal, error)
}

type App struct {
	svc    AuthService
	sess   *auth.Session
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(svc AuthService, in io.Reader, out io.Writer) *App {
	return &App{
		svc:    svc,
		sess:   auth.NewSession(),
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Run starts the console and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	a.println("Welcome to the accounts console (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) state() auth.State { return a.sess.State() }

func (a *App) status() string {
	p := a.sess.Principal()
	switch {
	case p == nil:
		return "guest"
	case a.state() == auth.AwaitingSecondFactor:
		return p.Login + " (code required)"
	case p.Admin:
		return p.Login + " [admin]"
	}
	return p.Login
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
