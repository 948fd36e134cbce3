package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, loaded from the environment.
// Empty connection strings select the in-process implementation of that concern.
type Config struct {
	Server       Server
	Postgres     PostgresConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Servicing    ServicingConfig
	Sweep        SweepConfig
	Gateway      GatewayConfig
	Notification NotificationConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string `env:"HOMELOAN_ADDR" envDefault:":8080"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	JWTSigningKey  string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer      string `env:"JWT_ISSUER" envDefault:"homeloan"`
	ReviewerPolicy string `env:"REVIEWER_POLICY" envDefault:"strict"`
	AdminToken     string `env:"ADMIN_API_TOKEN" envDefault:"dev-admin-token"`
}

// PostgresConfig selects the Postgres stores and outbox. DSN empty means in-memory.
type PostgresConfig struct {
	DSN             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	TxTimeout       time.Duration `env:"DB_TX_TIMEOUT" envDefault:"5s"`
}

// RedisConfig selects distributed per-aggregate locks. URL empty means in-process locks.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	LockTTL      time.Duration `env:"REDIS_LOCK_TTL" envDefault:"10s"`
}

// KafkaConfig enables the outbox relay. Brokers empty means events stay in-process.
type KafkaConfig struct {
	Brokers       []string      `env:"KAFKA_BROKERS" envSeparator:","`
	Topic         string        `env:"KAFKA_TOPIC" envDefault:"homeloan.events"`
	Partitions    int32         `env:"KAFKA_TOPIC_PARTITIONS" envDefault:"3"`
	RelayInterval time.Duration `env:"KAFKA_RELAY_INTERVAL" envDefault:"1s"`
	RelayBatch    int           `env:"KAFKA_RELAY_BATCH" envDefault:"100"`
}

// ServicingConfig tunes overdue evaluation.
type ServicingConfig struct {
	GraceWindow      time.Duration `env:"SERVICING_GRACE_WINDOW" envDefault:"720h"`
	DefaultThreshold int           `env:"SERVICING_DEFAULT_THRESHOLD" envDefault:"3"`
}

// SweepConfig holds cron specs for the external triggers. Empty disables that sweep.
type SweepConfig struct {
	OverdueSpec     string `env:"SWEEP_OVERDUE_CRON" envDefault:"0 2 * * *"`
	AutoPaySpec     string `env:"SWEEP_AUTOPAY_CRON" envDefault:"0 6 * * *"`
	OriginationSpec string `env:"SWEEP_ORIGINATION_CRON" envDefault:"*/15 * * * *"`
	AutoPayParallel int    `env:"SWEEP_AUTOPAY_PARALLELISM" envDefault:"4"`
}

// GatewayConfig configures the outbound charge client. URL empty disables auto-pay charges.
type GatewayConfig struct {
	URL              string        `env:"PAYMENT_GATEWAY_URL"`
	APIKey           string        `env:"PAYMENT_GATEWAY_API_KEY"`
	Timeout          time.Duration `env:"PAYMENT_GATEWAY_TIMEOUT" envDefault:"10s"`
	FailureThreshold int           `env:"PAYMENT_GATEWAY_FAILURE_THRESHOLD" envDefault:"5"`
	Cooldown         time.Duration `env:"PAYMENT_GATEWAY_COOLDOWN" envDefault:"30s"`
}

// NotificationConfig configures the email notifier. Host empty disables email delivery.
type NotificationConfig struct {
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	From         string `env:"NOTIFY_FROM" envDefault:"Home Loans <no-reply@homeloan.local>"`
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Servicing.DefaultThreshold < 1 {
		return Config{}, fmt.Errorf("SERVICING_DEFAULT_THRESHOLD must be at least 1")
	}
	if cfg.Servicing.GraceWindow < 0 {
		return Config{}, fmt.Errorf("SERVICING_GRACE_WINDOW must not be negative")
	}
	return cfg, nil
}
