package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides: LEDGER_SERVER_PORT overrides server.port.
const EnvPrefix = "LEDGER"

// Config represents the top-level ledger.yaml configuration.
type Config struct {
	Business    BusinessConfig    `yaml:"business" mapstructure:"business"`
	Database    DatabaseConfig    `yaml:"database" mapstructure:"database"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Ledger      LedgerConfig      `yaml:"ledger" mapstructure:"ledger"`
	Integration IntegrationConfig `yaml:"integration" mapstructure:"integration"`
	Git         GitConfig         `yaml:"git" mapstructure:"git"`
}

// BusinessConfig identifies the business entity.
type BusinessConfig struct {
	Name       string `yaml:"name" mapstructure:"name"`
	EntityType string `yaml:"entity_type" mapstructure:"entity_type"`
}

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DSN             string        `yaml:"dsn" mapstructure:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Port string `yaml:"port" mapstructure:"port"`
	Mode string `yaml:"mode" mapstructure:"mode"` // gin mode: "debug" or "release"
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"` // "debug" for console output, JSON otherwise
}

// LedgerConfig holds bookkeeping defaults.
type LedgerConfig struct {
	Actor    string `yaml:"actor" mapstructure:"actor"`
	Currency string `yaml:"currency" mapstructure:"currency"`
}

// IntegrationConfig maps external events onto chart accounts.
type IntegrationConfig struct {
	CashCode    string        `yaml:"cash_code" mapstructure:"cash_code"`
	RevenueCode string        `yaml:"revenue_code" mapstructure:"revenue_code"`
	ExpenseCode string        `yaml:"expense_code" mapstructure:"expense_code"`
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff" mapstructure:"backoff"`
}

// GitConfig sets the author of commits made by the ledger tool.
type GitConfig struct {
	AuthorName  string `yaml:"author_name" mapstructure:"author_name"`
	AuthorEmail string `yaml:"author_email" mapstructure:"author_email"`
}

// Load reads a ledger.yaml file from disk. A .env file next to it is loaded
// into the environment first, then LEDGER_* variables override file values.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default("", ""))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("business.name", d.Business.Name)
	v.SetDefault("business.entity_type", d.Business.EntityType)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("log.mode", d.Log.Mode)
	v.SetDefault("ledger.actor", d.Ledger.Actor)
	v.SetDefault("ledger.currency", d.Ledger.Currency)
	v.SetDefault("integration.cash_code", d.Integration.CashCode)
	v.SetDefault("integration.revenue_code", d.Integration.RevenueCode)
	v.SetDefault("integration.expense_code", d.Integration.ExpenseCode)
	v.SetDefault("integration.max_attempts", d.Integration.MaxAttempts)
	v.SetDefault("integration.backoff", d.Integration.Backoff)
	v.SetDefault("git.author_name", d.Git.AuthorName)
	v.SetDefault("git.author_email", d.Git.AuthorEmail)
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger.
func Default(businessName, entityType string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name:       businessName,
			EntityType: entityType,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "ledger.db",
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: time.Hour,
		},
		Server: ServerConfig{
			Port: "8080",
			Mode: "release",
		},
		Log: LogConfig{
			Mode: "production",
		},
		Ledger: LedgerConfig{
			Actor:    "system",
			Currency: "USD",
		},
		Integration: IntegrationConfig{
			CashCode:    "1000",
			RevenueCode: "4000",
			ExpenseCode: "5000",
			MaxAttempts: 3,
			Backoff:     time.Second,
		},
		Git: GitConfig{
			AuthorName:  "Cleared Ledger",
			AuthorEmail: "ledger@cleared.dev",
		},
	}
}
