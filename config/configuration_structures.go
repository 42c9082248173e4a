package config

import (
	"time"
)

const (
	DocumentBackendMongo = "mongo"
	DocumentBackendS3    = "s3"
)

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

func (c ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return parseDurationOr(c.ShutdownTimeout, 5*time.Second)
}

type DatabaseConfig struct {
	DSN            string `yaml:"dsn"`
	MigrateOnStart bool   `yaml:"migrate_on_start"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DocumentStoreConfig struct {
	Backend string `yaml:"backend"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type S3Config struct {
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Local    bool   `yaml:"local"`
	// AccessKey/SecretKey используются только в local (MinIO) режиме
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Prefix    string `yaml:"prefix"`
}

// JWTConfig : секреты и время жизни токенов. Access и refresh подписываются разными ключами
type JWTConfig struct {
	AccessSecret    string `yaml:"access_secret"`
	RefreshSecret   string `yaml:"refresh_secret"`
	AccessTokenTTL  string `yaml:"access_token_ttl"`
	RefreshTokenTTL string `yaml:"refresh_token_ttl"`
	Algorithm       string `yaml:"algorithm"`
}

func (c JWTConfig) AccessLifetime() time.Duration {
	return parseDurationOr(c.AccessTokenTTL, 30*time.Minute)
}

func (c JWTConfig) RefreshLifetime() time.Duration {
	return parseDurationOr(c.RefreshTokenTTL, 7*24*time.Hour)
}

func (c JWTConfig) SigningAlgorithm() string {
	if c.Algorithm == "" {
		return "HS256"
	}
	return c.Algorithm
}

// TokensConfig : время жизни токенов активации и сброса пароля
type TokensConfig struct {
	ActivationTTL    string `yaml:"activation_ttl"`
	PasswordResetTTL string `yaml:"password_reset_ttl"`
}

func (c TokensConfig) ActivationLifetime() time.Duration {
	return parseDurationOr(c.ActivationTTL, 24*time.Hour)
}

func (c TokensConfig) PasswordResetLifetime() time.Duration {
	return parseDurationOr(c.PasswordResetTTL, time.Hour)
}

type WebhookConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

func (c WebhookConfig) TimeoutDuration() time.Duration {
	return parseDurationOr(c.Timeout, 5*time.Second)
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dev   bool   `yaml:"dev"`
	// File : путь к файлу лога. Пусто - только stdout
	File         string `yaml:"file"`
	MaxAge       string `yaml:"max_age"`
	RotationTime string `yaml:"rotation_time"`
}

type CleanupConfig struct {
	Interval string `yaml:"interval"`
}

func (c CleanupConfig) IntervalDuration() time.Duration {
	return parseDurationOr(c.Interval, time.Hour)
}

type RateLimitConfig struct {
	LoginPerMinute int `yaml:"login_per_minute"`
	LoginBurst     int `yaml:"login_burst"`
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
