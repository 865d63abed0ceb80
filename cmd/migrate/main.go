// Command migrate applies the embedded schema to the configured database.
//
//	migrate -s postgres -d postgres://... [-promote admin@example.com]
//
// Every flag of the accounts console is accepted; -promote additionally
// grants the named login the administrator flag.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/gophaccounts/internal/app"
	"github.com/dmitrijs2005/gophaccounts/internal/config"
	"github.com/dmitrijs2005/gophaccounts/internal/flagx"
)

func main() {

	args := os.Args[1:]

	var promote string
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&promote, "promote", "", "login to grant administrator rights")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-promote", "--promote"})); err != nil {
		log.Fatalf("%v", err)
	}

	cfg, err := config.LoadConfig(args)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Migrate(context.Background(), cfg, promote, os.Stderr); err != nil {
		log.Fatalf("%v", err)
	}

}
