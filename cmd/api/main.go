package main

import (
	"os"

	"github.com/joho/godotenv"

	"rosterchat/internal/pkg/logger"
	"rosterchat/internal/server"
)

func main() {
	// Load .env if present; real environment variables take precedence.
	_ = godotenv.Load()

	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Blocks until a shutdown signal or a server error.
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
	os.Exit(0)
}
