package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/gophstash/internal/client/storage"
	"github.com/dmitrijs2005/gophstash/internal/client/theme"
)

// Config holds runtime settings for the gophstash CLI.
//
// Durations are time.Duration values; the JSON loader accepts them either as
// strings ("3s") or integer nanoseconds.
type Config struct {
	BackendURL    string
	AnonKey       string
	Bucket        string
	AppScheme     string
	StorageDriver string
	S3Region      string
	S3AccessKeyID string
	DBPath        string

	// DeepLinkAddr is the unix socket a running instance listens on for
	// forwarded callback URLs.
	DeepLinkAddr string
	// CallbackAddr enables the loopback OAuth callback when non-empty.
	CallbackAddr string

	OnlineCheckInterval time.Duration
	RequestTimeout      time.Duration
	RefreshMargin       time.Duration
	OAuthTimeout        time.Duration

	ThemeMode         string
	SessionPassphrase string
	LogLevel          string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BackendURL = "http://127.0.0.1:54321"
	c.AnonKey = ""
	c.Bucket = "user-files"
	c.AppScheme = "gophstash"
	c.StorageDriver = storage.DriverREST
	c.S3Region = "local"
	c.S3AccessKeyID = ""
	c.DBPath = "gophstash.db"
	c.DeepLinkAddr = filepath.Join(os.TempDir(), "gophstash.sock")
	c.CallbackAddr = ""
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 15 * time.Second
	c.RefreshMargin = 60 * time.Second
	c.OAuthTimeout = 2 * time.Minute
	c.ThemeMode = string(theme.ModeSystem)
	c.SessionPassphrase = ""
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones. It panics on invalid values.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg, os.LookupEnv)
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// Validate reports values no component could work with.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("backend url is required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	switch c.StorageDriver {
	case storage.DriverREST, storage.DriverS3:
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if _, err := theme.ParseMode(c.ThemeMode); err != nil {
		return err
	}
	if c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("online check interval must be positive")
	}
	return nil
}

// RedirectURL is where the auth backend sends the browser after an OAuth
// sign-in.
func (c *Config) RedirectURL() string {
	if c.CallbackAddr != "" {
		return "http://" + c.CallbackAddr + "/auth/callback"
	}
	return c.AppScheme + "://auth/callback"
}

// StorageOptions maps the storage-related settings onto storage.Options.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Driver:        c.StorageDriver,
		BackendURL:    c.BackendURL,
		AnonKey:       c.AnonKey,
		Bucket:        c.Bucket,
		S3Region:      c.S3Region,
		S3AccessKeyID: c.S3AccessKeyID,
		Timeout:       c.RequestTimeout,
	}
}
