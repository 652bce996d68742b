package config

import (
	"fmt"
	"strconv"
	"time"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Payment  PaymentConfig
	Auth     AuthConfig
	Log      LogConfig
	Features FeatureFlags
}

type ServerConfig struct {
	Port         int           `env:"SERVER_PORT" envDefault:"8082"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
}

type DatabaseConfig struct {
	Host         string        `env:"DB_HOST" envDefault:"localhost"`
	Port         int           `env:"DB_PORT" envDefault:"5432"`
	User         string        `env:"DB_USER" envDefault:"freshfold"`
	Password     string        `env:"DB_PASSWORD" envDefault:"freshfold"`
	Name         string        `env:"DB_NAME" envDefault:"freshfold_orders"`
	SSLMode      string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	MaxLifetime  time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
}

func (d DatabaseConfig) ConnectionString() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string        `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int           `env:"REDIS_PORT" envDefault:"6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	TTL      time.Duration `env:"REDIS_CACHE_TTL" envDefault:"5m"`
}

type KafkaConfig struct {
	Brokers       []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	OrdersTopic   string   `env:"KAFKA_ORDERS_TOPIC" envDefault:"freshfold.orders"`
	UsersTopic    string   `env:"KAFKA_USERS_TOPIC" envDefault:"freshfold.users"`
	ConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"orders-service"`
}

type PaymentConfig struct {
	BaseURL  string        `env:"PAYMENT_SERVICE_URL" envDefault:"http://localhost:8083"`
	APIKey   string        `env:"PAYMENT_API_KEY"`
	Timeout  time.Duration `env:"PAYMENT_SERVICE_TIMEOUT" envDefault:"30s"`
	Currency string        `env:"PAYMENT_CURRENCY" envDefault:"usd"`
}

type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

type FeatureFlags struct {
	EnableOrderCaching bool `env:"ENABLE_ORDER_CACHING" envDefault:"true"`
	EnableOrderEvents  bool `env:"ENABLE_ORDER_EVENTS" envDefault:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth jwt secret is empty: set AUTH_JWT_SECRET")
	}
	return &cfg, nil
}
