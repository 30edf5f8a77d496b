package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Provider   ProviderConfig   `mapstructure:"provider"`
	Settlement SettlementConfig `mapstructure:"settlement"`
	Monitor    MonitorConfig    `mapstructure:"monitor"`
	Retention  RetentionConfig  `mapstructure:"retention"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
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
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ProviderConfig configures the swap exchange provider client.
type ProviderConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	WebhookSecret string        `mapstructure:"webhook_secret"` // empty = signature check disabled
}

// SettlementConfig holds the merchant-side settlement parameters. The
// settle address is fixed per deployment and copied onto every order.
type SettlementConfig struct {
	Asset         string `mapstructure:"asset"`
	Network       string `mapstructure:"network"`
	Address       string `mapstructure:"address"`
	RefundAddress string `mapstructure:"refund_address"` // optional, passed to the provider at swap creation
}

// MonitorConfig tunes the expiry/stuck sweep.
type MonitorConfig struct {
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`   // 0 = no internal ticker, external trigger only
	ReminderWindow  time.Duration `mapstructure:"reminder_window"`  // quote expiring within this window -> reminder
	AbandonAge      time.Duration `mapstructure:"abandon_age"`      // pending older than this with no deposit -> expired
	StuckAge        time.Duration `mapstructure:"stuck_age"`        // in-flight not updated for this long -> poll
	SweepSecret     string        `mapstructure:"sweep_secret"`     // shared secret for the external trigger
	AmountTolerance float64       `mapstructure:"amount_tolerance"` // relative deposit amount tolerance, e.g. 0.01
}

// RetentionConfig bounds the webhook audit log lifespan.
type RetentionConfig struct {
	MaxAge        time.Duration `mapstructure:"max_age"`
	PurgeInterval time.Duration `mapstructure:"purge_interval"` // 0 = no internal ticker
}

type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	JWTExpiry       time.Duration `mapstructure:"jwt_expiry"`
	JWTIssuer       string        `mapstructure:"jwt_issuer"`
	OperatorKeyHash string        `mapstructure:"operator_key_hash"` // Argon2id encoded hash
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: SWG_.
// Nested keys use underscore: SWG_DATABASE_HOST, SWG_PROVIDER_API_KEY, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "swapgate")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.timeout", "15s")
	v.SetDefault("provider.webhook_secret", "")
	v.SetDefault("settlement.asset", "USDC")
	v.SetDefault("settlement.network", "ethereum")
	v.SetDefault("settlement.address", "")
	v.SetDefault("settlement.refund_address", "")
	v.SetDefault("monitor.sweep_interval", "5m")
	v.SetDefault("monitor.reminder_window", "2m")
	v.SetDefault("monitor.abandon_age", "24h")
	v.SetDefault("monitor.stuck_age", "1h")
	v.SetDefault("monitor.sweep_secret", "")
	v.SetDefault("monitor.amount_tolerance", 0.01)
	v.SetDefault("retention.max_age", "720h") // 30 days
	v.SetDefault("retention.purge_interval", "1h")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_expiry", "12h")
	v.SetDefault("auth.jwt_issuer", "swapgate")
	v.SetDefault("auth.operator_key_hash", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: SWG_DATABASE_HOST -> database.host
	v.SetEnvPrefix("SWG")
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

	return &cfg, nil
}
