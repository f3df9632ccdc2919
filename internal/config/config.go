// Package config предоставляет структуры и функции для загрузки конфига сервиса генераций
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwt_token"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	Uploads                 `yaml:"uploads"`
	Generation              `yaml:"generation"`
	RateLimit               `yaml:"rate_limit"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:3000"`
	TimeoutHTTP     time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"secret" env:"JWT_SECRET"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"168h"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой адрес отключает кэш.
type RedisConnection struct {
	AddressRedis string        `yaml:"address" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeout" env-default:"3s"`
}

// RabbitMQ структура для подключения к брокеру. Пустой url отключает события.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	Retries    int           `yaml:"retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// Uploads настройки хранения загруженных изображений
type Uploads struct {
	Dir         string `yaml:"dir" env:"UPLOADS_DIR" env-default:"uploads"`
	MaxFileSize int64  `yaml:"max_file_size" env-default:"5242880"`
	URLPrefix   string `yaml:"url_prefix" env-default:"/uploads"`
}

// Generation настройки фоновой обработки заданий
type Generation struct {
	MinDelay    time.Duration `yaml:"min_delay" env-default:"2s"`
	MaxDelay    time.Duration `yaml:"max_delay" env-default:"5s"`
	FailureRate float64       `yaml:"failure_rate" env-default:"0.2"`
	Workers     int           `yaml:"workers" env-default:"10"`
	RecentLimit int           `yaml:"recent_limit" env-default:"5"`
	ResultTTL   time.Duration `yaml:"result_ttl" env-default:"10m"`
}

// RateLimit ограничение частоты запросов к публичным эндпоинтам авторизации
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"5"`
	Burst int     `yaml:"burst" env-default:"10"`
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает конфиг из файла, применяет переменные окружения и проверяет значения
func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	var errs []error
	if c.StorageConnectionString == "" {
		errs = append(errs, errors.New("storage_connection_string is required"))
	}
	if c.JWTSecretKey == "" {
		errs = append(errs, errors.New("jwt_token.secret is required"))
	}
	if c.MinDelay < 0 || c.MinDelay > c.MaxDelay {
		errs = append(errs, fmt.Errorf("generation delays are inconsistent: min %s, max %s", c.MinDelay, c.MaxDelay))
	}
	if c.FailureRate < 0 || c.FailureRate > 1 {
		errs = append(errs, fmt.Errorf("generation.failure_rate must be within [0, 1], got %v", c.FailureRate))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("generation.workers must be positive, got %d", c.Workers))
	}
	if c.RecentLimit <= 0 {
		errs = append(errs, fmt.Errorf("generation.recent_limit must be positive, got %d", c.RecentLimit))
	}
	if c.MaxFileSize <= 0 {
		errs = append(errs, fmt.Errorf("uploads.max_file_size must be positive, got %d", c.MaxFileSize))
	}
	return errors.Join(errs...)
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"MigrationsPath: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"  ShutdownTimeout: %s\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ enabled: %t\n"+
			"Uploads:\n"+
			"  Dir: %s\n"+
			"  MaxFileSize: %d\n"+
			"Generation:\n"+
			"  Delay: %s..%s\n"+
			"  FailureRate: %.2f\n"+
			"  Workers: %d\n",
		c.Env,
		c.MigrationsPath,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.ShutdownTimeout,
		c.TokenTTL,
		c.AddressRedis,
		c.DB,
		c.RabbitMQ.URL != "",
		c.Dir,
		c.MaxFileSize,
		c.MinDelay,
		c.MaxDelay,
		c.FailureRate,
		c.Workers,
	)
}
