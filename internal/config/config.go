package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	SMTP         SMTPConfig
	RabbitMQ     RabbitMQConfig
	Kafka        KafkaConfig
	Storage      StorageConfig
	Chatbot      ChatbotConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	BodyLimitMB           int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables the
// catalogue cache.
type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	CacheTTLSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level    string
	Encoding string
	Service  string
	Version  string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// NotificationConfig controls outbound notification behavior.
type NotificationConfig struct {
	EmailFrom       string
	EmailQueueSize  int
	RealtimeEnabled bool
}

// SMTPConfig holds mail relay credentials. An empty Host disables SMTP delivery.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// RabbitMQConfig configures the email queue. An empty URL sends mail in-process.
type RabbitMQConfig struct {
	URL        string
	EmailQueue string
}

// KafkaConfig configures ticket event export. No brokers disables export.
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// StorageConfig configures attachment object storage.
type StorageConfig struct {
	Endpoint         string
	AccessKey        string
	SecretKey        string
	UseSSL           bool
	Bucket           string
	URLExpiryMinutes int
}

// ChatbotConfig configures the generative fallback provider.
type ChatbotConfig struct {
	LLMURL            string
	LLMModel          string
	LLMTimeoutSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			BodyLimitMB:           getEnvAsInt("HTTP_BODY_LIMIT_MB", 12),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:            os.Getenv("REDIS_ADDR"),
			Password:        os.Getenv("REDIS_PASSWORD"),
			DB:              redisDB,
			CacheTTLSeconds: getEnvAsInt("REDIS_CACHE_TTL_SECONDS", 300),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			EmailFrom:       getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			EmailQueueSize:  getEnvAsInt("NOTIFY_EMAIL_QUEUE_SIZE", 100),
			RealtimeEnabled: getEnvAsBool("NOTIFY_REALTIME_ENABLED", true),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     smtpPort,
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:        os.Getenv("RABBITMQ_URL"),
			EmailQueue: getEnv("RABBITMQ_EMAIL_QUEUE", "helpdesk.emails"),
		},
		Kafka: KafkaConfig{
			Brokers:  getEnvAsList("KAFKA_BROKERS"),
			Topic:    getEnv("KAFKA_TICKET_TOPIC", "helpdesk.ticket-events"),
			ClientID: getEnv("KAFKA_CLIENT_ID", "helpdesk-api"),
		},
		Storage: StorageConfig{
			Endpoint:         os.Getenv("MINIO_ENDPOINT"),
			AccessKey:        os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey:        os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:           getEnvAsBool("MINIO_USE_SSL", false),
			Bucket:           getEnv("MINIO_BUCKET", "ticket-files"),
			URLExpiryMinutes: getEnvAsInt("MINIO_URL_EXPIRY_MINUTES", 15),
		},
		Chatbot: ChatbotConfig{
			LLMURL:            os.Getenv("LLM_URL"),
			LLMModel:          getEnv("LLM_MODEL", "mistral"),
			LLMTimeoutSeconds: getEnvAsInt("LLM_TIMEOUT_SECONDS", 30),
		},
	}

	cfg.Logger.Service = cfg.App.Name
	cfg.Logger.Version = cfg.App.Version

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// CacheTTL returns how long cached catalogue reads stay valid.
func (r RedisConfig) CacheTTL() time.Duration {
	if r.CacheTTLSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(r.CacheTTLSeconds) * time.Second
}

// URLExpiry returns the lifetime of presigned download links.
func (s StorageConfig) URLExpiry() time.Duration {
	if s.URLExpiryMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.URLExpiryMinutes) * time.Minute
}

// Timeout returns the per-call deadline for the LLM provider.
func (c ChatbotConfig) Timeout() time.Duration {
	if c.LLMTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
