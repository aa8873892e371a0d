package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Env holds settings read from the process environment.
type Env struct {
	// Home is the base directory for the database, config.json and exports.
	Home     string
	LogLevel string
	LogJSON  bool
}

// LoadEnv reads QUOTER_* variables, loading an optional .env file first.
// Home falls back to ~/.quoter.
func LoadEnv() (*Env, error) {
	_ = godotenv.Load()

	env := &Env{
		Home:     strings.TrimSpace(os.Getenv("QUOTER_HOME")),
		LogLevel: strings.ToLower(strings.TrimSpace(os.Getenv("QUOTER_LOG_LEVEL"))),
		LogJSON:  os.Getenv("QUOTER_LOG_JSON") == "true",
	}

	if env.Home == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		env.Home = filepath.Join(homeDir, ".quoter")
	}

	return env, nil
}
