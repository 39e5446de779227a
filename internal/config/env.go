package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// envFiles are tried in order; the first one that loads wins.
var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads environment variables from the first readable .env file.
// Variables already present in the process environment are not overwritten.
func loadEnvFile() error {
	for _, envPath := range envFiles {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("load %s: %w", envPath, err)
		}
		fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", envPath)
		return nil
	}
	return errors.New("no .env file found")
}

// ApplyEnv applies the PORT and ENV overrides on top of the file values.
// An unparsable PORT is ignored.
func ApplyEnv(cfg *Config) {
	if raw := strings.TrimSpace(os.Getenv("PORT")); raw != "" {
		if port, err := strconv.Atoi(raw); err == nil {
			cfg.Server.Port = port
		} else {
			fmt.Fprintf(os.Stderr, "config: ignoring invalid PORT %q\n", raw)
		}
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv("ENV")), "dev") {
		cfg.Server.Dev = true
	}
}
