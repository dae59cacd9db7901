// Package config предоставляет структуры и функции для загрузки конфигурации
// из YAML‑файла (CONFIG_PATH) с переопределением через переменные окружения.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	Release                 string `yaml:"release" env:"RELEASE" env-default:"dev"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	SentryDSN               string `yaml:"sentry_dsn" env:"SENTRY_DSN"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	GRPCServer              `yaml:"grpc_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	SMSGateway              `yaml:"sms_gateway"`
	PushGateway             `yaml:"push_gateway"`
	OTP                     `yaml:"otp"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	// Лимит запросов в секунду для открытых маршрутов аутентификации.
	AuthRateLimit float64 `yaml:"auth_rate_limit" env-default:"1"`
	AuthRateBurst int     `yaml:"auth_rate_burst" env-default:"5"`
}

// GRPCServer — адрес gRPC health‑сервиса.
type GRPCServer struct {
	AddressGRPC string `yaml:"addressgrpc" env:"GRPC_ADDRESS" env-default:":50051"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
	CacheTTL     time.Duration `yaml:"cache_ttl" env-default:"1h"`
}

// JWTToken структура для работы с jwt-токенами
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	AccessTTL    time.Duration `yaml:"access_ttl" env-default:"1h"`
	RefreshTTL   time.Duration `yaml:"refresh_ttl" env-default:"720h"`
}

// RabbitMQ — подключение к брокеру очереди доставки уведомлений.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// SMTP — параметры почтового сервера.
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"password" env:"SMTP_PASSWORD"`
}

// SMSGateway — HTTP‑провайдер SMS.
type SMSGateway struct {
	SMSURL     string        `yaml:"url" env:"SMS_URL"`
	SMSToken   string        `yaml:"token" env:"SMS_TOKEN"`
	SMSSender  string        `yaml:"sender" env-default:"SCHOOL"`
	SMSTimeout time.Duration `yaml:"timeout" env-default:"10s"`
}

// PushGateway — HTTP‑провайдер push‑уведомлений.
type PushGateway struct {
	PushURL       string        `yaml:"url" env:"PUSH_URL"`
	PushServerKey string        `yaml:"server_key" env:"PUSH_SERVER_KEY"`
	PushTimeout   time.Duration `yaml:"timeout" env-default:"10s"`
}

// OTP — параметры одноразовых кодов сброса пароля.
type OTP struct {
	OTPTTL time.Duration `yaml:"ttl" env-default:"5m"`
	// OTPChannel — канал доставки кода: email или sms.
	OTPChannel       string `yaml:"channel" env-default:"email"`
	OTPPurgeSchedule string `yaml:"purge_schedule" env-default:"@every 10m"`
}

// Load читает конфиг из файла path и переменных окружения.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	if path == "" {
		return nil, fmt.Errorf("%s: CONFIG_PATH is not set", op)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: file: %s - does not exist", op, path)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: cannot read config: %w", op, err)
	}
	if cfg.OTPChannel != "email" && cfg.OTPChannel != "sms" {
		return nil, fmt.Errorf("%s: unknown otp channel %q", op, cfg.OTPChannel)
	}
	return &cfg, nil
}

// MustLoad загружает .env (если есть) и конфиг из CONFIG_PATH, завершает
// процесс при ошибке.
func MustLoad() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("cannot load .env: %s", err)
	}
	cfg, err := Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\nRelease: %s\nHTTP: %s\nGRPC: %s\nRedis: %s\nRabbitMQ retries: %d\nSMTP: %s:%s\nOTP: ttl=%s channel=%s\n",
		c.Env, c.Release, c.AddressHTTP, c.AddressGRPC, c.AddressRedis,
		c.RabbitMQMaxRetries, c.SMTPHost, c.SMTPPort, c.OTPTTL, c.OTPChannel,
	)
}
