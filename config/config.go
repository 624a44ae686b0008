package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Log          LogConfig          `mapstructure:"log"`
	Settlement   SettlementConfig   `mapstructure:"settlement"`
	Verification VerificationConfig `mapstructure:"verification"`
	Notification NotificationConfig `mapstructure:"notification"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"` // takes precedence over the discrete fields
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// SettlementConfig controls the payment engine.
type SettlementConfig struct {
	Currency           string        `mapstructure:"currency"`
	EnforceNonNegative bool          `mapstructure:"enforce_non_negative"`
	TxTimeout          time.Duration `mapstructure:"tx_timeout"`
	IdempotencyTTL     time.Duration `mapstructure:"idempotency_ttl"`
}

// VerificationConfig controls one-time code issuance.
type VerificationConfig struct {
	EmailTTL       time.Duration `mapstructure:"email_ttl"`
	SMSTTL         time.Duration `mapstructure:"sms_ttl"`
	CodeSecret     string        `mapstructure:"code_secret"`
	ResendCooldown time.Duration `mapstructure:"resend_cooldown"`
}

// NotificationConfig selects and configures the outbound SMS/email gateway.
type NotificationConfig struct {
	Driver string       `mapstructure:"driver"` // log, live
	Twilio TwilioConfig `mapstructure:"twilio"`
	SMTP   SMTPConfig   `mapstructure:"smtp"`
}

type TwilioConfig struct {
	AccountSID string        `mapstructure:"account_sid"`
	AuthToken  string        `mapstructure:"auth_token"`
	FromNumber string        `mapstructure:"from_number"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type SMTPConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	FromName    string `mapstructure:"from_name"`
	FromAddress string `mapstructure:"from_address"`
}

// Addr returns the SMTP server address.
func (s SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Validate checks settings that have no safe default.
func (c *Config) Validate() error {
	var errs []error
	switch c.Server.Mode {
	case "", "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if c.Verification.CodeSecret == "" {
		errs = append(errs, errors.New("verification.code_secret is required"))
	}
	if len(c.Settlement.Currency) != 3 {
		errs = append(errs, fmt.Errorf("settlement.currency must be a 3-letter code, got %q", c.Settlement.Currency))
	}
	if c.Settlement.TxTimeout <= 0 {
		errs = append(errs, errors.New("settlement.tx_timeout must be positive"))
	}
	switch c.Notification.Driver {
	case "log":
	case "live":
		t := c.Notification.Twilio
		if t.AccountSID == "" || t.AuthToken == "" || t.FromNumber == "" {
			errs = append(errs, errors.New("notification.twilio credentials are required for the live driver"))
		}
		if c.Notification.SMTP.Host == "" || c.Notification.SMTP.FromAddress == "" {
			errs = append(errs, errors.New("notification.smtp host and from_address are required for the live driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("notification.driver must be log or live, got %q", c.Notification.Driver))
	}
	return errors.Join(errs...)
}

// LoadDotEnv loads KEY=VALUE pairs from a .env file into the process
// environment without overriding variables that are already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: SETTLE_.
// Nested keys use underscore: SETTLE_DATABASE_HOST, SETTLE_JWT_SECRET, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "wallet_settlement")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "wallet-settlement")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("settlement.currency", "USD")
	v.SetDefault("settlement.enforce_non_negative", true)
	v.SetDefault("settlement.tx_timeout", "5s")
	v.SetDefault("settlement.idempotency_ttl", "24h")
	v.SetDefault("verification.email_ttl", "10m")
	v.SetDefault("verification.sms_ttl", "30m")
	v.SetDefault("verification.code_secret", "")
	v.SetDefault("verification.resend_cooldown", "30s")
	v.SetDefault("notification.driver", "log")
	v.SetDefault("notification.twilio.account_sid", "")
	v.SetDefault("notification.twilio.auth_token", "")
	v.SetDefault("notification.twilio.from_number", "")
	v.SetDefault("notification.twilio.base_url", "https://api.twilio.com")
	v.SetDefault("notification.twilio.timeout", "10s")
	v.SetDefault("notification.smtp.host", "")
	v.SetDefault("notification.smtp.port", 587)
	v.SetDefault("notification.smtp.username", "")
	v.SetDefault("notification.smtp.password", "")
	v.SetDefault("notification.smtp.from_name", "Wallet Settlement")
	v.SetDefault("notification.smtp.from_address", "")

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: SETTLE_DATABASE_HOST -> database.host
	v.SetEnvPrefix("SETTLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Settlement.Currency = strings.ToUpper(cfg.Settlement.Currency)

	return &cfg, nil
}
