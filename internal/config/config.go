// Package config は環境変数から設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// メール送信プロバイダー
const (
	EmailProviderAPI = "api"
	EmailProviderSES = "ses"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL      string        `envconfig:"DATABASE_URL" required:"true"`
	DBMaxOpenConns   int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	DBMaxIdleConns   int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	DBConnectTimeout time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"2s"`

	// Server
	ServerHost  string `envconfig:"SERVER_HOST"`
	ServerPort  string `envconfig:"SERVER_PORT" default:"8080"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
	BaseURL     string `envconfig:"BASE_URL" required:"true"`

	// Email
	EmailProvider     string        `envconfig:"EMAIL_PROVIDER" default:"api"`
	EmailBaseURL      string        `envconfig:"EMAIL_BASE_URL"`
	EmailAuthToken    string        `envconfig:"EMAIL_AUTH_TOKEN"`
	EmailSender       string        `envconfig:"EMAIL_SENDER" required:"true"`
	EmailTimeout      time.Duration `envconfig:"EMAIL_TIMEOUT" default:"2s"`
	EmailMaxPerSecond int           `envconfig:"EMAIL_MAX_PER_SECOND" default:"10"`
	AWSRegion         string        `envconfig:"AWS_REGION" default:"us-east-1"`

	// CORS
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// Observability
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	OTelEnabled bool   `envconfig:"OTEL_ENABLED" default:"false"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"stakevault"`
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込むが、既存の環境変数は上書きしない。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv はpathが存在する場合のみ読み込む。
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	var missing []string

	// envconfigのrequiredは空文字を許すため、ここでも確認する
	required := []struct {
		key   string
		value string
	}{
		{"DATABASE_URL", c.DatabaseURL},
		{"BASE_URL", c.BaseURL},
		{"EMAIL_SENDER", c.EmailSender},
	}
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.key)
		}
	}

	switch c.EmailProvider {
	case EmailProviderAPI:
		if c.EmailBaseURL == "" {
			missing = append(missing, "EMAIL_BASE_URL")
		}
		if c.EmailAuthToken == "" {
			missing = append(missing, "EMAIL_AUTH_TOKEN")
		}
	case EmailProviderSES:
	default:
		return fmt.Errorf("EMAIL_PROVIDER must be %q or %q, got %q", EmailProviderAPI, EmailProviderSES, c.EmailProvider)
	}

	if len(missing) > 0 {
		return fmt.Errorf("required environment variables are not set: %v", missing)
	}
	if c.EmailTimeout <= 0 {
		return fmt.Errorf("EMAIL_TIMEOUT must be positive, got %s", c.EmailTimeout)
	}
	if c.EmailMaxPerSecond <= 0 {
		return fmt.Errorf("EMAIL_MAX_PER_SECOND must be positive, got %d", c.EmailMaxPerSecond)
	}
	return nil
}

// ServerAddr はAPIサーバーのlistenアドレスを返す。
func (c *Config) ServerAddr() string {
	return net.JoinHostPort(c.ServerHost, c.ServerPort)
}

// MetricsAddr はメトリクスサーバーのlistenアドレスを返す。
func (c *Config) MetricsAddr() string {
	return net.JoinHostPort(c.ServerHost, c.MetricsPort)
}
