package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is centralized process configuration.
// Values come from an optional YAML file (CONFIG_FILE) and are then
// overridden by environment variables.
type Config struct {
	ServiceName string `yaml:"service_name"`
	Version     string `yaml:"version"`
	HTTPPort    string `yaml:"http_port"`

	PostgresDSN      string        `yaml:"postgres_dsn"`
	DBConnectTimeout time.Duration `yaml:"db_connect_timeout"`
	AutoMigrate      bool          `yaml:"auto_migrate"`
	MigrateToken     string        `yaml:"migrate_token"`

	AllowOperationFallback bool `yaml:"allow_operation_fallback"`
	ClaimTxRetries         int  `yaml:"claim_tx_retries"`

	FanoutBuffer       int           `yaml:"fanout_buffer"`
	DropExpiryInterval time.Duration `yaml:"drop_expiry_interval"`
}

// DefaultClaimTxRetries applies when claim_tx_retries is set by neither the
// file nor the environment. An explicit 0 disables retries.
const DefaultClaimTxRetries = 16

func Load() (Config, error) {
	cfg := Config{ClaimTxRetries: DefaultClaimTxRetries}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}

	applyEnv(&cfg)
	setDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFile parses a YAML config file without applying env overrides.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	cfg := Config{ClaimTxRetries: DefaultClaimTxRetries}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ClaimTxRetries < 0 {
		return fmt.Errorf("claim_tx_retries must be >= 0, got %d", c.ClaimTxRetries)
	}
	if c.FanoutBuffer <= 0 {
		return fmt.Errorf("fanout_buffer must be > 0, got %d", c.FanoutBuffer)
	}
	if c.DropExpiryInterval < 0 {
		return fmt.Errorf("drop_expiry_interval must be >= 0, got %s", c.DropExpiryInterval)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.ServiceName = envString("SERVICE_NAME", cfg.ServiceName)
	cfg.Version = envString("APP_VERSION", cfg.Version)
	cfg.HTTPPort = envString("PORT", cfg.HTTPPort)
	cfg.HTTPPort = envString("HTTP_PORT", cfg.HTTPPort)

	cfg.PostgresDSN = envString("DATABASE_URL", cfg.PostgresDSN)
	cfg.PostgresDSN = envString("POSTGRES_DSN", cfg.PostgresDSN)
	cfg.DBConnectTimeout = envDuration("DB_CONNECT_TIMEOUT", cfg.DBConnectTimeout)
	cfg.AutoMigrate = envBool("AUTO_MIGRATE", cfg.AutoMigrate)
	cfg.MigrateToken = envString("MIGRATE_TOKEN", cfg.MigrateToken)

	cfg.AllowOperationFallback = envBool("ALLOW_OPERATION_FALLBACK", cfg.AllowOperationFallback)
	cfg.ClaimTxRetries = envInt("CLAIM_TX_RETRIES", cfg.ClaimTxRetries)

	cfg.FanoutBuffer = envInt("FANOUT_BUFFER", cfg.FanoutBuffer)
	cfg.DropExpiryInterval = envDuration("DROP_EXPIRY_INTERVAL", cfg.DropExpiryInterval)
}

func setDefaults(cfg *Config) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "moveserver"
	}
	if cfg.Version == "" {
		cfg.Version = "0.3.0"
	}
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = "8080"
	}
	if cfg.DBConnectTimeout == 0 {
		cfg.DBConnectTimeout = 5 * time.Second
	}
	if cfg.FanoutBuffer == 0 {
		cfg.FanoutBuffer = 64
	}
	if cfg.DropExpiryInterval == 0 {
		cfg.DropExpiryInterval = 30 * time.Second
	}
}

func envString(name string, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// envDuration accepts Go durations ("30s") or a bare number of seconds.
func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	if value, err := time.ParseDuration(raw); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
