package common

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Store      StoreConfig
	Source     SourceConfig
	Checkpoint string
}

// StoreConfig holds audit-store configuration. Driver is "postgres" for the
// shared server or "sqlite" for a local file (":memory:" for throwaway runs).
type StoreConfig struct {
	Driver          string
	Username        string
	Password        string
	Server          string
	Database        string
	Path            string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// DSN builds the store connection string from the configured credentials.
func (s StoreConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(s.Username, s.Password),
		Host:   s.Server,
		Path:   "/" + s.Database,
	}
	return u.String()
}

// SourceConfig holds the per-company operational source descriptors as a
// comma-separated list of COMPANY^dsn^user^pass entries.
type SourceConfig struct {
	DSN string
}

// configFile mirrors the on-disk layout. Section names are kept from the
// original deployment's config.ini so existing configs translate one-to-one.
type configFile struct {
	SQLServer struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Server   string `json:"server"`
		Database string `json:"database"`
	} `json:"SQLSERVER"`
	SourceInfinity struct {
		DSN string `json:"dsn"`
	} `json:"SOURCE_INFINITY"`
}

var configSchema = map[string]any{
	"type":     "object",
	"required": []any{"SQLSERVER", "SOURCE_INFINITY"},
	"properties": map[string]any{
		"SQLSERVER": map[string]any{
			"type":     "object",
			"required": []any{"username", "password", "server", "database"},
			"properties": map[string]any{
				"username": map[string]any{"type": "string"},
				"password": map[string]any{"type": "string"},
				"server":   map[string]any{"type": "string"},
				"database": map[string]any{"type": "string"},
			},
		},
		"SOURCE_INFINITY": map[string]any{
			"type":     "object",
			"required": []any{"dsn"},
			"properties": map[string]any{
				"dsn": map[string]any{"type": "string", "minLength": 1},
			},
		},
	},
}

// LoadConfig reads and validates the JSON config file, then applies
// environment overrides for the operational knobs.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("reading config file %s", path), err)
	}
	if err := ValidateJSONAgainstSchema(configSchema, raw); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "config file does not match schema", err)
	}
	var f configFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "parsing config file", err)
	}

	return &Config{
		Store: StoreConfig{
			Driver:          getEnv("STORE_DRIVER", "postgres"),
			Username:        f.SQLServer.Username,
			Password:        f.SQLServer.Password,
			Server:          f.SQLServer.Server,
			Database:        f.SQLServer.Database,
			Path:            getEnv("STORE_PATH", "audit.db"),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Source: SourceConfig{
			DSN: f.SourceInfinity.DSN,
		},
		Checkpoint: getEnv("CHECKPOINT_PATH", "checkpoint.json"),
	}, nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "postgres":
		if c.Store.Server == "" || c.Store.Database == "" {
			return NewAppError("CONFIG_ERROR", "SQLSERVER server and database are required", ErrInvalidInput)
		}
	case "sqlite":
		if c.Store.Path == "" {
			return NewAppError("CONFIG_ERROR", "STORE_PATH is required for the sqlite driver", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown store driver %q", c.Store.Driver), ErrInvalidInput)
	}
	if c.Source.DSN == "" {
		return NewAppError("CONFIG_ERROR", "SOURCE_INFINITY dsn is required", ErrInvalidInput)
	}
	if c.Checkpoint == "" {
		return NewAppError("CONFIG_ERROR", "checkpoint path is required", ErrInvalidInput)
	}
	return nil
}
