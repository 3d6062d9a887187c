//go:build !gcloud

package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

func loadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env", slog.String("error", err.Error()))
	}
}

// Validate accepts an empty EXPO_PUSH_URL; deliveries are then only logged.
func (c *TransportConfig) Validate() error {
	return nil
}
