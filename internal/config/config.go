package config

import (
	"fmt"
	"time"

	wbfconfig "github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

type Config struct {
	Server   Server         `yaml:"server"`
	Database Database       `yaml:"database"`
	RabbitMQ RabbitMQ       `yaml:"rabbitmq"`
	Redis    Redis          `yaml:"redis"`
	Retry    retry.Strategy `yaml:"retry"`
	Email    Email          `yaml:"email"`
	SMS      SMS            `yaml:"sms"`
}

type Server struct {
	HTTPPort string `yaml:"http_port"`
}

type Database struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Pass            string        `yaml:"pass"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN builds the Postgres connection string.
func (d Database) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Pass, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

type RabbitMQ struct {
	Host           string        `yaml:"host"`
	Port           string        `yaml:"port"`
	User           string        `yaml:"user"`
	Pass           string        `yaml:"pass"`
	Queue          string        `yaml:"queue"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

// URL builds the AMQP connection string.
func (r RabbitMQ) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", r.User, r.Pass, r.Host, r.Port)
}

type Redis struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	Database int    `yaml:"database"`
}

type Email struct {
	Enabled  bool   `yaml:"enabled"`
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type SMS struct {
	Enabled    bool   `yaml:"enabled"`
	GatewayURL string `yaml:"gateway_url"`
	APIKey     string `yaml:"api_key"`
	From       string `yaml:"from"`
}

// Must loads config.yml and dies on any failure.
func Must() *Config {
	loader := wbfconfig.New()

	if err := loader.Load("config.yml"); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to load config")
	}

	var cfg Config
	if err := loader.Unmarshal(&cfg); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to unmarshal config")
	}

	return &cfg
}
