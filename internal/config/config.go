package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/menta2k/image-captioner/pkg/loader"
	"github.com/menta2k/image-captioner/pkg/types"
)

// Config holds the application configuration, populated from the
// environment. Command-line flags in cmd may override individual fields.
type Config struct {
	// Server
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"7860"`

	// Inference backend
	Backend    types.Backend `env:"CAPTION_BACKEND" envDefault:"ollama"`
	BackendURL string        `env:"CAPTION_BACKEND_URL"`
	Model      string        `env:"CAPTION_MODEL"`

	// Uploads
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"20971520"`

	// Per-request deadline for inference calls
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5m"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Model == "" {
		cfg.Model = loader.DefaultModel
	}
	if cfg.BackendURL == "" {
		cfg.BackendURL = DefaultBackendURL(cfg.Backend)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultBackendURL returns the conventional local server address for a backend.
func DefaultBackendURL(backend types.Backend) string {
	switch backend {
	case types.BackendLlamaCpp:
		return "http://localhost:8080"
	default:
		return "http://localhost:11434"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if !c.Backend.Valid() {
		return fmt.Errorf("unknown backend: %s (use 'ollama' or 'llamacpp')", c.Backend)
	}
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.MaxUploadBytes < 1 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	return nil
}

// Addr returns the host:port the server binds to.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
