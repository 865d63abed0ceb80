package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophaccounts/internal/flagx"
)

var flagNames = []string{"-d", "-s", "-k", "-m", "-i", "-w", "-n", "-l", "-f"}

// parseFlags applies the short command-line flags:
//
//	-d string   database DSN
//	-s string   store driver: postgres, sqlite or memory
//	-k string   cipher key, base64
//	-m string   cipher mode: aead or 3des-ecb
//	-i string   TOTP issuer shown in authenticator apps
//	-w int      TOTP drift window, in 30s steps each side
//	-n int      replaced passwords that block reuse
//	-l string   log level
//	-f string   log format: text or json
//
// Other arguments are ignored so callers can keep their own flags.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("accounts", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.StoreDriver, "s", cfg.StoreDriver, "store driver")
	fs.StringVar(&cfg.CipherKey, "k", cfg.CipherKey, "cipher key (base64)")
	fs.StringVar(&cfg.CipherMode, "m", cfg.CipherMode, "cipher mode")
	fs.StringVar(&cfg.Issuer, "i", cfg.Issuer, "TOTP issuer")
	fs.IntVar(&cfg.TOTPSkew, "w", cfg.TOTPSkew, "TOTP drift window (steps)")
	fs.IntVar(&cfg.HistoryDepth, "n", cfg.HistoryDepth, "password history depth")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format")

	if err := fs.Parse(flagx.FilterArgs(args, flagNames)); err != nil {
		return fmt.Errorf("config: flags: %w", err)
	}
	return nil
}
