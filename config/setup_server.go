package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	JWT           JWTConfig           `yaml:"jwt"`
	DocumentStore DocumentStoreConfig `yaml:"documentStore"`
	Mongo         MongoConfig         `yaml:"mongo"`
	S3            S3Config            `yaml:"s3"`
	Log           LogConfig           `yaml:"log"`
	Webhook       WebhookConfig       `yaml:"webhook"`
	Cleanup       CleanupConfig       `yaml:"cleanup"`
	RateLimit     RateLimitConfig     `yaml:"rateLimit"`
	Tokens        TokensConfig        `yaml:"tokens"`
}

// LoadConfig : читает yaml-конфиг, затем переопределяет секреты из окружения (.env подхватывается, если есть)
func LoadConfig(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("ошибка чтения .env: %w", err)
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return ParseConfig(file)
}

// ParseConfig : разбирает yaml, применяет переменные окружения и проверяет результат
func ParseConfig(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *AppConfig) applyEnv() {
	overrides := map[string]*string{
		"DATABASE_DSN":       &cfg.Database.DSN,
		"REDIS_PASSWORD":     &cfg.Redis.Password,
		"JWT_ACCESS_SECRET":  &cfg.JWT.AccessSecret,
		"JWT_REFRESH_SECRET": &cfg.JWT.RefreshSecret,
		"MONGO_URI":          &cfg.Mongo.URI,
	}
	for env, field := range overrides {
		if value, ok := os.LookupEnv(env); ok && value != "" {
			*field = value
		}
	}
}

func (cfg *AppConfig) Validate() error {
	if cfg.JWT.AccessSecret == "" || cfg.JWT.RefreshSecret == "" {
		return errors.New("jwt: access_secret и refresh_secret обязательны")
	}
	if cfg.JWT.AccessSecret == cfg.JWT.RefreshSecret {
		return errors.New("jwt: access_secret и refresh_secret должны различаться")
	}

	durations := map[string]string{
		"jwt.access_token_ttl":      cfg.JWT.AccessTokenTTL,
		"jwt.refresh_token_ttl":     cfg.JWT.RefreshTokenTTL,
		"tokens.activation_ttl":     cfg.Tokens.ActivationTTL,
		"tokens.password_reset_ttl": cfg.Tokens.PasswordResetTTL,
		"webhook.timeout":           cfg.Webhook.Timeout,
		"cleanup.interval":          cfg.Cleanup.Interval,
		"server.shutdown_timeout":   cfg.Server.ShutdownTimeout,
		"log.max_age":               cfg.Log.MaxAge,
		"log.rotation_time":         cfg.Log.RotationTime,
	}
	for name, value := range durations {
		if value == "" {
			continue
		}
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			return fmt.Errorf("%s: некорректная длительность %q", name, value)
		}
	}

	switch cfg.JWT.SigningAlgorithm() {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("jwt: неподдерживаемый алгоритм %q", cfg.JWT.Algorithm)
	}

	switch cfg.DocumentStore.Backend {
	case "":
		cfg.DocumentStore.Backend = DocumentBackendMongo
	case DocumentBackendMongo, DocumentBackendS3:
	default:
		return fmt.Errorf("documentStore: неизвестный backend %q", cfg.DocumentStore.Backend)
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}

	return nil
}

func SetupServer(serverAddress string) (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	server := &http.Server{
		Addr:              serverAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server, router
}

func SetupDatabase(dsn string) (*Database, error) {
	return NewDatabaseConnection("postgres", dsn)
}

func SetupRedis(cfg *RedisConfig) (*RedisClient, error) {
	return NewRedisClient(cfg)
}
