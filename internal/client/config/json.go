package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophstash/internal/flagx"
	"github.com/dmitrijs2005/gophstash/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer fields
// tell an absent key from an empty one so that only keys present in the file
// override earlier values. The session passphrase is deliberately absent.
type JsonConfig struct {
	BackendURL          *string         `json:"backend_url"`
	AnonKey             *string         `json:"anon_key"`
	Bucket              *string         `json:"bucket"`
	AppScheme           *string         `json:"app_scheme"`
	StorageDriver       *string         `json:"storage_driver"`
	S3Region            *string         `json:"s3_region"`
	S3AccessKeyID       *string         `json:"s3_access_key_id"`
	DBPath              *string         `json:"db_path"`
	DeepLinkAddr        *string         `json:"deeplink_addr"`
	CallbackAddr        *string         `json:"callback_addr"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	RefreshMargin       *timex.Duration `json:"refresh_margin"`
	OAuthTimeout        *timex.Duration `json:"oauth_timeout"`
	ThemeMode           *string         `json:"theme_mode"`
	LogLevel            *string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag it does nothing. It panics on read or
// unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JSONConfigFlag(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.BackendURL, jc.BackendURL)
	setString(&cfg.AnonKey, jc.AnonKey)
	setString(&cfg.Bucket, jc.Bucket)
	setString(&cfg.AppScheme, jc.AppScheme)
	setString(&cfg.StorageDriver, jc.StorageDriver)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3AccessKeyID, jc.S3AccessKeyID)
	setString(&cfg.DBPath, jc.DBPath)
	setString(&cfg.DeepLinkAddr, jc.DeepLinkAddr)
	setString(&cfg.CallbackAddr, jc.CallbackAddr)
	setString(&cfg.ThemeMode, jc.ThemeMode)
	setString(&cfg.LogLevel, jc.LogLevel)

	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RefreshMargin != nil {
		cfg.RefreshMargin = jc.RefreshMargin.Duration
	}
	if jc.OAuthTimeout != nil {
		cfg.OAuthTimeout = jc.OAuthTimeout.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
