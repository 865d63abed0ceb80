package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophaccounts/internal/config"
	"github.com/dmitrijs2005/gophaccounts/internal/logging"
)

// Migrate applies the schema for the configured database and, when promote
// names a login, grants that account the administrator flag. There is no
// other way to create the first administrator.
func Migrate(ctx context.Context, c *config.Config, promote string, logOut io.Writer) error {
	logger, err := logging.New(c.LogLevel, c.LogFormat, logOut)
	if err != nil {
		return fmt.Errorf("logger init error: %w", err)
	}
	if c.StoreDriver == config.DriverMemory {
		return errors.New("migrate: the memory store has no schema")
	}

	db, rm, err := openDatabase(ctx, c)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	if err := rm.RunMigrations(ctx, db); err != nil {
		return err
	}
	logger.Info(ctx, "migrations.applied", "dialect", string(rm.Dialect()))

	if promote == "" {
		return nil
	}
	if err := rm.Users(db).SetAdmin(ctx, promote, true); err != nil {
		return fmt.Errorf("promote %s: %w", promote, err)
	}
	logger.Info(ctx, "principal.promoted", "login", promote)
	return nil
}
