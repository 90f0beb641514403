// Package config provides environment-driven configuration for the VPN
// management API. Values are read from the process environment, with an
// optional .env file loaded at startup for development convenience.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the application.
// It is constructed once at startup and passed explicitly to the components
// that need it; there is no package-level configuration state.
type Config struct {
	ListenAddr   string   // Address the HTTP server binds to (e.g., ":8080")
	DatabasePath string   // Path to the SQLite database file (":memory:" for ephemeral)
	JWTSecret    string   // Secret key for JWT token signing
	Network      string   // VPN client network in CIDR notation (e.g., "10.0.0.0/24")
	SeedDefaults bool     // Whether to create the default admin/client/server rows at boot
	CORSOrigins  []string // Allowed origins for the management frontend
}

// Load builds a Config from the environment. A .env file in the working
// directory is loaded first if present; real environment variables take
// precedence over values it defines.
// Returns the populated Config or an error if a value fails validation.
func Load() (*Config, error) {
	// Missing .env is not an error; deployments set real env vars.
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:   getEnv("LISTEN_ADDR", ":8080"),
		DatabasePath: getEnv("DATABASE_PATH", "vpn.db"),
		JWTSecret:    getEnv("JWT_SECRET", "your-secret-key-change-this"),
		Network:      getEnv("VPN_NETWORK", "10.0.0.0/24"),
		CORSOrigins:  []string{"http://localhost:4200", "http://127.0.0.1:4200"},
	}

	seed, err := getEnvBool("SEED_DEFAULTS", true)
	if err != nil {
		return nil, err
	}
	cfg.SeedDefaults = seed

	return cfg, nil
}

// getEnv returns the value of the named environment variable,
// or the fallback if the variable is unset or empty.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvBool parses the named environment variable as a boolean,
// returning the fallback if the variable is unset or empty.
func getEnvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for %s: %q", key, value)
	}
	return parsed, nil
}
