package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Log     LogConfig
	Tracing TracingConfig
}

type AppConfig struct {
	Name    string
	Port    string
	BaseURL string // пустая строка - базовый адрес берётся из запроса
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	ConnectAttempts int
	ConnectDelay    time.Duration
	ConnectTimeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

type LogConfig struct {
	Level string
	File  string
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
}

// DSN собирает строку подключения к хранилищу из отдельных параметров
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// Enabled сообщает, настроен ли кэш
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8000")
	v.SetDefault("BASE_URL", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "shortener")
	v.SetDefault("DB_PASSWORD", "shortener")
	v.SetDefault("DB_NAME", "url_shortener")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_CONNECT_ATTEMPTS", 5)
	v.SetDefault("DB_CONNECT_DELAY", 5*time.Second)
	v.SetDefault("DB_CONNECT_TIMEOUT", 5*time.Second)

	v.SetDefault("REDIS_HOST", "")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", 24*time.Hour)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("SERVICE_NAME", "shortlink")
}

// Load читает конфигурацию из окружения и необязательного файла .env
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile как Load, но с явным путём к env-файлу. Отсутствие файла не ошибка.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	cfg.App.Name = v.GetString("SERVICE_NAME")
	cfg.App.Port = v.GetString("APP_PORT")
	cfg.App.BaseURL = v.GetString("BASE_URL")

	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetString("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.Name = v.GetString("DB_NAME")
	cfg.DB.SSLMode = v.GetString("DB_SSLMODE")
	cfg.DB.ConnectAttempts = v.GetInt("DB_CONNECT_ATTEMPTS")
	cfg.DB.ConnectDelay = v.GetDuration("DB_CONNECT_DELAY")
	cfg.DB.ConnectTimeout = v.GetDuration("DB_CONNECT_TIMEOUT")

	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetString("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.TTL = v.GetDuration("CACHE_TTL")

	cfg.Log.Level = v.GetString("LOG_LEVEL")
	cfg.Log.File = v.GetString("LOG_FILE")

	cfg.Tracing.Enabled = v.GetBool("TRACING_ENABLED")
	// одно имя сервиса для логов и спанов
	cfg.Tracing.ServiceName = cfg.App.Name

	if cfg.DB.ConnectAttempts < 1 {
		return nil, fmt.Errorf("DB_CONNECT_ATTEMPTS must be positive, got %d", cfg.DB.ConnectAttempts)
	}

	return &cfg, nil
}
