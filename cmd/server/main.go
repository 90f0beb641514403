// Package main provides the entry point for the VPN management API.
// It loads configuration from the environment, constructs the application
// context, and serves HTTP until the process is stopped.
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"vpn-manager/internal/config"
	"vpn-manager/internal/server"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize server")
	}

	if err := srv.Run(); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}
