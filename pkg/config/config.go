// Package config provides configuration management for treasury-recon.
// It loads configuration from environment variables and .env files, and the
// matching policy from a YAML file.
package config

import (
	"fmt"
	"strings"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	// DataRoot holds the treasury, bank_statements, cnp and exceptions directories.
	DataRoot string `env:"RECON_DATA_ROOT" envDefault:"./data"`
	// DBPath is the reconciliation history database; empty means {DataRoot}/.history/reconcile.db.
	DBPath     string `env:"RECON_DB_PATH"`
	PolicyFile string `env:"RECON_POLICY_FILE" envDefault:"config/reconcile-policy.yaml"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv     string `env:"APP_ENV" envDefault:"development"`
	// NoHistory disables the SQLite run history.
	NoHistory bool `env:"RECON_NO_HISTORY" envDefault:"false"`
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration.
// It checks if all named fields are set.
func (c *Config) Validate(required ...string) error {
	var missing []string

	for _, name := range required {
		var value string
		switch name {
		case "dataRoot":
			value = c.DataRoot
		case "dbPath":
			value = c.DBPath
		case "policyFile":
			value = c.PolicyFile
		}
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}
