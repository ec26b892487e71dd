// Package db はユーザースキーマを保存するリレーショナルデータベースへの接続を提供します。
package db

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// retryInterval は接続リトライの間隔です。
const retryInterval = 3 * time.Second

// Config holds connection settings for the relational user store.
type Config struct {
	Driver     string        `env:"DB_DRIVER" envDefault:"postgres"`
	User       string        `env:"DB_USER"`
	Password   string        `env:"DB_PASSWORD"`
	Name       string        `env:"DB_NAME" envDefault:"chatapp"`
	Host       string        `env:"DB_HOST" envDefault:"localhost"`
	Port       string        `env:"DB_PORT" envDefault:"5432"`
	SSLMode    string        `env:"DB_SSLMODE" envDefault:"disable"`
	SQLitePath string        `env:"DB_SQLITE_PATH" envDefault:"./chat.db"`
	Timeout    time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"60s"`
}

// LoadConfigFromEnv は環境変数からデータベース設定を読み込みます。
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse db env: %w", err)
	}
	return cfg, nil
}

// BuildDSN はPostgreSQL接続用のURL形式DSNを生成します。
func BuildDSN(cfg Config) string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		User:   url.UserPassword(cfg.User, cfg.Password),
		Path:   cfg.Name,
	}
	q := u.Query()
	q.Set("sslmode", cfg.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Opener opens a gorm connection for a DSN. It exists so tests can replace the driver.
type Opener func(dsn string) (*gorm.DB, error)

// ConnectWithRetry はタイムアウトまで一定間隔で接続をリトライします。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %v: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err, "interval", retryInterval)
		time.Sleep(retryInterval)
	}
}

// Open connects to the database selected by cfg.Driver ("postgres" or "sqlite").
func Open(cfg Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{TranslateError: true}

	switch cfg.Driver {
	case "postgres":
		return ConnectWithRetry(BuildDSN(cfg), cfg.Timeout, func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), gcfg)
		})
	case "sqlite":
		slog.Info("using sqlite", "path", cfg.SQLitePath)
		return gorm.Open(sqlite.Open(cfg.SQLitePath), gcfg)
	case "":
		return nil, errors.New("DB_DRIVER is empty")
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}
