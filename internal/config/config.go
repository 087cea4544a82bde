package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrMissingSecret is returned when PREVIEW_SECRET is not set.
var ErrMissingSecret = errors.New("PREVIEW_SECRET must be set")

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment  string `env:"PREVIEW_ENV" envDefault:"development"`
	HTTPPort     string `env:"PREVIEW_HTTP_PORT" envDefault:"3000"`
	DatabasePath string `env:"PREVIEW_DB_PATH" envDefault:"data/preview.db"`
	LogDir       string `env:"PREVIEW_LOG_DIR" envDefault:"data/logs"`
	Debug        bool   `env:"PREVIEW_DEBUG" envDefault:"false"`

	// PreviewSecret is the shared secret the CMS appends to preview links.
	PreviewSecret string `env:"PREVIEW_SECRET"`
	CookieSecure  bool   `env:"PREVIEW_COOKIE_SECURE" envDefault:"false"`

	// FrameAncestors are origins allowed to embed the preview pages. When
	// empty the CMS origin is used.
	FrameAncestors []string `env:"PREVIEW_FRAME_ANCESTORS" envSeparator:","`

	StrapiURL     string `env:"STRAPI_URL" envDefault:"http://localhost:1337"`
	StrapiToken   string `env:"STRAPI_API_TOKEN"`
	TemplatesPath string `env:"STRAPI_TEMPLATES_PATH" envDefault:"/api/templates"`

	// SampleFile optionally overrides the sample recipient values (YAML).
	SampleFile string `env:"PREVIEW_SAMPLE_FILE"`

	GateRate  float64 `env:"PREVIEW_GATE_RATE" envDefault:"1"`
	GateBurst int     `env:"PREVIEW_GATE_BURST" envDefault:"10"`

	HealthSchedule string `env:"PREVIEW_HEALTH_SCHEDULE" envDefault:"@every 1m"`
	AlertURL       string `env:"PREVIEW_ALERT_URL"`
}

// Load reads an optional .env file, then env vars with defaults.
func Load() (Config, error) {
	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg.StrapiURL = strings.TrimRight(cfg.StrapiURL, "/")

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings the HTTP server cannot run without. The
// preview secret is the only value without a default.
func (c Config) Validate() error {
	if c.PreviewSecret == "" {
		return ErrMissingSecret
	}
	return nil
}

// EmbedOrigins returns the origins allowed to frame the preview pages.
func (c Config) EmbedOrigins() []string {
	if len(c.FrameAncestors) > 0 {
		return c.FrameAncestors
	}
	return []string{c.StrapiURL}
}

// IsDevelopment reports whether the process runs in the development environment.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}
