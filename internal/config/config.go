package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port int `envconfig:"PORT" default:"8080"`
	// DatabaseURL selects the Postgres store; wells live in memory when empty.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	// JWTSecret enables bearer-token auth on /api and the websocket.
	JWTSecret      string `envconfig:"JWT_SECRET"`
	APIKeyHash     string `envconfig:"API_KEY_HASH"`
	StrictFields   bool   `envconfig:"STRICT_FIELDS" default:"true"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	RenderWidth    int    `envconfig:"RENDER_WIDTH" default:"400"`
	RenderHeight   int    `envconfig:"RENDER_HEIGHT" default:"800"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
