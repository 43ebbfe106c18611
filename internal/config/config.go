package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// ShiftRule declares one recurring volunteer shift for the calendar.
type ShiftRule struct {
	Name  string `yaml:"name" validate:"required"`
	RRule string `yaml:"rrule" validate:"required"`
}

// FirestoreConfig selects the Firestore project for the firestore backend.
// The emulator is chosen by exporting FIRESTORE_EMULATOR_HOST, which the
// client library honours on its own.
type FirestoreConfig struct {
	ProjectID       string `yaml:"projectID,omitempty"`
	CredentialsFile string `yaml:"credentialsFile,omitempty"`
}

// Config represents the application configuration
type Config struct {
	Backend         string          `yaml:"backend" validate:"required,oneof=firestore postgres memory"`
	Firestore       FirestoreConfig `yaml:"firestore,omitempty"`
	PostgresURL     string          `yaml:"postgresURL,omitempty"`
	RedisAddr       string          `yaml:"redisAddr,omitempty"`
	HTTPPort        string          `yaml:"httpPort,omitempty"`
	RateLimitPerMin int             `yaml:"rateLimitPerMin,omitempty" validate:"omitempty,min=1"`
	Shifts          []ShiftRule     `yaml:"shifts,omitempty" validate:"dive"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadWithEnv loads and validates hourbank_<env>.yaml from the current
// directory or the user's home directory.
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(fmt.Sprintf("hourbank_%s.yaml", env))
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}
	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct, the backend-specific settings
// and the rrule syntax of every shift.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	switch cfg.Backend {
	case "firestore":
		if cfg.Firestore.ProjectID == "" {
			return fmt.Errorf("config validation failed: firestore.projectID is required for the firestore backend")
		}
	case "postgres":
		if cfg.PostgresURL == "" {
			return fmt.Errorf("config validation failed: postgresURL is required for the postgres backend")
		}
	}

	for i, shift := range cfg.Shifts {
		if _, err := rrule.StrToRRule(shift.RRule); err != nil {
			return fmt.Errorf("invalid rrule in shifts[%d]: %w", i, err)
		}
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = "8080"
	}
	if cfg.RateLimitPerMin == 0 {
		cfg.RateLimitPerMin = 120
	}
}

// applyEnvOverrides lets deploy environments override address-type settings
// without editing the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HOURBANK_POSTGRES_URL"); v != "" {
		cfg.PostgresURL = v
	}
	if v := os.Getenv("HOURBANK_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("HOURBANK_HTTP_PORT"); v != "" {
		cfg.HTTPPort = v
	}
}

// findConfigFile searches for the named file in the current directory and
// the home directory.
func findConfigFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}
