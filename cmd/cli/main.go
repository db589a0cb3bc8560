package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/gophstash/internal/buildinfo"
	"github.com/dmitrijs2005/gophstash/internal/client/cli"
	"github.com/dmitrijs2005/gophstash/internal/client/config"
	"github.com/dmitrijs2005/gophstash/internal/client/deeplink"
	"github.com/dmitrijs2005/gophstash/internal/flagx"
	"github.com/dmitrijs2005/gophstash/internal/logging"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("%v", err)
	}
	logger := logging.New(level, os.Stderr)

	// The OS URL handler starts a second process with the callback URL;
	// hand it to the running instance when there is one.
	var initialURL string
	if args := flagx.Positional(os.Args[1:], config.ValueFlags); len(args) > 0 {
		initialURL = args[0]

		fctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := deeplink.Forward(fctx, cfg.DeepLinkAddr, initialURL)
		cancel()

		if err == nil {
			logger.Info(ctx, "Forwarded url to the running instance")
			return
		}
		if !errors.Is(err, deeplink.ErrNoInstance) {
			log.Fatalf("forward url: %v", err)
		}
	}

	buildinfo.PrintBuildData(os.Stdout)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx, initialURL); err != nil {
		log.Fatalf("%v", err)
	}
}
