// Package config loads runtime configuration for the gophstash CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. GOPHSTASH_* environment variables (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-u string   backend base URL
//	-k string   anon API key
//	-b string   storage bucket
//	-s string   storage driver (rest|s3)
//	-d string   local database path
//	-i int      online status check interval (seconds)
//	-t string   theme mode (light|dark|system)
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "3s" or
// integer nanoseconds. Keys missing from the file keep their earlier value:
//
//	{
//	  "backend_url": "https://project.example.co",
//	  "anon_key": "eyJ...",
//	  "bucket": "user-files",
//	  "storage_driver": "s3",
//	  "s3_access_key_id": "project-ref",
//	  "online_check_interval": "3s",
//	  "theme_mode": "dark"
//	}
//
// The session passphrase is read only from GOPHSTASH_SESSION_PASSPHRASE and
// never from a file.
package config
