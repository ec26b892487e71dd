// Package mongo connects to the MongoDB deployment holding the users collection.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Config holds MongoDB connection settings.
type Config struct {
	URI         string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	Database    string        `env:"MONGO_DB" envDefault:"chat_db"`
	PingTimeout time.Duration `env:"MONGO_PING_TIMEOUT" envDefault:"10s"`
}

// LoadConfig reads the MongoDB settings from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse mongo env: %w", err)
	}
	return cfg, nil
}

// NewClient connects and pings the primary. Callers own Disconnect.
func NewClient(ctx context.Context, cfg Config) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	// 接続確認
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		slog.Error("MongoDB connection failed", "database", cfg.Database, "error", err)
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	slog.Info("MongoDB connection successful", "database", cfg.Database)
	return client, nil
}
