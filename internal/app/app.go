// Package app wires configuration, storage and the auth service together and
// runs the interactive console.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophaccounts/internal/auth"
	"github.com/dmitrijs2005/gophaccounts/internal/cli"
	"github.com/dmitrijs2005/gophaccounts/internal/config"
	"github.com/dmitrijs2005/gophaccounts/internal/cryptox"
	"github.com/dmitrijs2005/gophaccounts/internal/dbx"
	"github.com/dmitrijs2005/gophaccounts/internal/hashing"
	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/repositories/repomanager"
	"github.com/dmitrijs2005/gophaccounts/internal/store"
	"github.com/dmitrijs2005/gophaccounts/internal/totp"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	service *auth.Service
}

// NewApp builds every component from c. Logs go to logOut. For the
// postgres and sqlite drivers the schema is migrated before returning.
func NewApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {
	logger, err := logging.New(c.LogLevel, c.LogFormat, logOut)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	cipher, err := cryptox.New(c.CipherMode, c.CipherKey)
	if err != nil {
		return nil, fmt.Errorf("cipher init error: %w", err)
	}

	st, db, err := openStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if db == nil {
		logger.Warn(ctx, "store.memory", "detail", "accounts are lost on exit")
	}

	engine := totp.NewEngine(c.Issuer, cipher, totp.WithSkew(uint(c.TOTPSkew)))
	svc := auth.NewService(st, hashing.NewHasher(), engine,
		auth.WithLogger(logger),
		auth.WithHistoryDepth(c.HistoryDepth),
	)

	return &App{config: c, logger: logger, db: db, service: svc}, nil
}

// openStore returns the configured store. db is nil for the memory driver.
func openStore(ctx context.Context, c *config.Config) (store.CredentialStore, *sql.DB, error) {
	if c.StoreDriver == config.DriverMemory {
		return store.NewMemoryStore(), nil, nil
	}

	db, rm, err := openDatabase(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store.NewSQLStore(db, rm), db, nil
}

func openDatabase(ctx context.Context, c *config.Config) (*sql.DB, *repomanager.SQLRepositoryManager, error) {
	dialect, err := dbx.ParseDialect(c.StoreDriver)
	if err != nil {
		return nil, nil, err
	}
	db, err := repomanager.Open(ctx, dialect, c.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	return db, repomanager.New(dialect), nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run drives the console on in/out until the user exits, input ends or the
// process is signalled, then closes the store.
func (app *App) Run(ctx context.Context, in io.Reader, out io.Writer) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "store", app.config.StoreDriver)
	app.initSignalHandler(ctx, cancelFunc)

	done := make(chan struct{})
	go func() {
		defer close(done)
		cli.NewApp(app.service, in, out).Run(ctx)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		app.logger.Info(ctx, "Interrupted")
	}

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "store.close", "error", err)
	}
}

func (app *App) Close() error {
	if app.db == nil {
		return nil
	}
	return app.db.Close()
}
