package config

// EnvPrefix is prepended to every environment variable the CLI reads.
const EnvPrefix = "GOPHSTASH_"

// parseEnv overlays Config with GOPHSTASH_* variables. Only variables that
// are set take effect; an empty value still overrides.
func parseEnv(cfg *Config, lookup func(string) (string, bool)) {
	vars := map[string]*string{
		"BACKEND_URL":        &cfg.BackendURL,
		"ANON_KEY":           &cfg.AnonKey,
		"BUCKET":             &cfg.Bucket,
		"APP_SCHEME":         &cfg.AppScheme,
		"STORAGE_DRIVER":     &cfg.StorageDriver,
		"S3_REGION":          &cfg.S3Region,
		"S3_ACCESS_KEY_ID":   &cfg.S3AccessKeyID,
		"DB_PATH":            &cfg.DBPath,
		"DEEPLINK_ADDR":      &cfg.DeepLinkAddr,
		"CALLBACK_ADDR":      &cfg.CallbackAddr,
		"THEME":              &cfg.ThemeMode,
		"SESSION_PASSPHRASE": &cfg.SessionPassphrase,
		"LOG_LEVEL":          &cfg.LogLevel,
	}

	for name, dst := range vars {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
}
