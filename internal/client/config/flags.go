package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophstash/internal/flagx"
)

// ValueFlags lists every flag that consumes the following argument. cmd/cli
// uses it to find a positional callback URL.
var ValueFlags = []string{"-u", "-k", "-b", "-s", "-d", "-i", "-t", "-c", "-config"}

// parseFlags populates selected Config fields from command-line flags.
//
//	-u string   backend base URL
//	-k string   anon (public) API key
//	-b string   storage bucket
//	-s string   storage driver: rest or s3
//	-d string   path of the local sqlite database
//	-i int      online check interval in seconds
//	-t string   theme mode: light, dark or system
//
// os.Args is filtered with flagx.FilterArgs so that other flags and the
// positional URL do not interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-u", "-k", "-b", "-s", "-d", "-i", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BackendURL, "u", cfg.BackendURL, "backend base URL")
	fs.StringVar(&cfg.AnonKey, "k", cfg.AnonKey, "anon API key")
	fs.StringVar(&cfg.Bucket, "b", cfg.Bucket, "storage bucket")
	fs.StringVar(&cfg.StorageDriver, "s", cfg.StorageDriver, "storage driver (rest|s3)")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "path to the local database")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.ThemeMode, "t", cfg.ThemeMode, "theme mode (light|dark|system)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
