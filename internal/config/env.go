package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ServerEnv holds process settings read from the environment.
// Command-line flags override these values.
type ServerEnv struct {
	SSHAddr     string        `env:"REACTION_SSH_ADDR" envDefault:":23234"`
	HostKeyPath string        `env:"REACTION_HOST_KEY"`
	DBPath      string        `env:"REACTION_DB"`
	IdleTimeout time.Duration `env:"REACTION_IDLE_TIMEOUT" envDefault:"30m"`
	LogLevel    string        `env:"REACTION_LOG_LEVEL" envDefault:"info"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadServerEnv reads ServerEnv from the environment.
func LoadServerEnv() (ServerEnv, error) {
	var cfg ServerEnv
	if err := ParseEnv(&cfg); err != nil {
		return ServerEnv{}, err
	}
	return cfg, nil
}
