package client

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config locates the chat backend.
type Config struct {
	BaseURL   string        `env:"CHAT_API_BASE_URL" envDefault:"http://localhost:5001/api"`
	SocketURL string        `env:"CHAT_SOCKET_URL" envDefault:"http://localhost:5001"`
	Timeout   time.Duration `env:"CHAT_HTTP_TIMEOUT" envDefault:"10s"`
}

// LoadConfig reads the CHAT_* variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse chat env: %w", err)
	}
	return cfg, nil
}
