package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/chuongle2003/chorus-cli/internal/api"
	"github.com/chuongle2003/chorus-cli/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	tokens, err := api.NewTokenStore(config.API.TokenPath)
	if err != nil {
		logger.Fatalf("failed to open token store: %v", err)
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Tokens: tokens,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "chorus",
		Usage:    "Terminal client for Chorus chat and music sharing",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
