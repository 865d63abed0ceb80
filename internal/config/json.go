package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophaccounts/internal/flagx"
)

// JsonConfig is the on-disk shape of the config file. Pointer fields tell
// "absent" apart from zero values so a file only overrides what it names.
type JsonConfig struct {
	DatabaseDSN  *string `json:"database_dsn"`
	StoreDriver  *string `json:"store_driver"`
	CipherKey    *string `json:"cipher_key"`
	CipherMode   *string `json:"cipher_mode"`
	Issuer       *string `json:"issuer"`
	TOTPSkew     *int    `json:"totp_skew"`
	HistoryDepth *int    `json:"history_depth"`
	LogLevel     *string `json:"log_level"`
	LogFormat    *string `json:"log_format"`
}

func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var c JsonConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	setString(&cfg.DatabaseDSN, c.DatabaseDSN)
	setString(&cfg.StoreDriver, c.StoreDriver)
	setString(&cfg.CipherKey, c.CipherKey)
	setString(&cfg.CipherMode, c.CipherMode)
	setString(&cfg.Issuer, c.Issuer)
	setInt(&cfg.TOTPSkew, c.TOTPSkew)
	setInt(&cfg.HistoryDepth, c.HistoryDepth)
	setString(&cfg.LogLevel, c.LogLevel)
	setString(&cfg.LogFormat, c.LogFormat)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
