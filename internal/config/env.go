package config

import "github.com/spf13/viper"

const envPrefix = "ACCOUNTS"

// parseEnv overlays ACCOUNTS_* environment variables, e.g.
// ACCOUNTS_DATABASE_DSN or ACCOUNTS_CIPHER_KEY.
func parseEnv(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)

	strs := map[string]*string{
		"database_dsn": &cfg.DatabaseDSN,
		"store_driver": &cfg.StoreDriver,
		"cipher_key":   &cfg.CipherKey,
		"cipher_mode":  &cfg.CipherMode,
		"issuer":       &cfg.Issuer,
		"log_level":    &cfg.LogLevel,
		"log_format":   &cfg.LogFormat,
	}
	ints := map[string]*int{
		"totp_skew":     &cfg.TOTPSkew,
		"history_depth": &cfg.HistoryDepth,
	}

	for key, dst := range strs {
		_ = v.BindEnv(key)
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	for key, dst := range ints {
		_ = v.BindEnv(key)
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
}
