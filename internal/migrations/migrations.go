// Package migrations embeds the goose schema migrations for each supported
// SQL dialect.
package migrations

import (
	"embed"
	"io/fs"

	"github.com/dmitrijs2005/gophaccounts/internal/dbx"
)

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

// For returns the migration tree for d, rooted so goose can run it from ".".
func For(d dbx.Dialect) (fs.FS, error) {
	return fs.Sub(Migrations, string(d))
}
