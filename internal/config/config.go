package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Provider
	ProviderType string `envconfig:"PROVIDER_TYPE" default:"deepface"`
	DeepFaceURL  string `envconfig:"DEEPFACE_URL" default:"http://localhost:5000"`
	AWSRegion    string `envconfig:"AWS_REGION" default:"us-east-1"`

	// Security. SERVICE_KEYS is a comma-separated set of accepted
	// bearer keys issued to the attendance platform.
	ServiceKeys string `envconfig:"SERVICE_KEYS" required:"true"`

	// Matching thresholds
	HighThreshold float64 `envconfig:"HIGH_THRESHOLD" default:"0.85"`
	LowThreshold  float64 `envconfig:"LOW_THRESHOLD" default:"0.70"`

	// Enrollment
	MinImages        int     `envconfig:"MIN_IMAGES" default:"5"`
	MaxImages        int     `envconfig:"MAX_IMAGES" default:"10"`
	ConsistencyFloor float64 `envconfig:"CONSISTENCY_FLOOR" default:"0.4"`
	MaxImageBytes    int     `envconfig:"MAX_IMAGE_BYTES" default:"10485760"`
	BulkWorkers      int     `envconfig:"BULK_WORKERS" default:"4"`

	// Rate limiting
	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`

	// Webhooks
	WebhookWorkerIntervalSeconds int `envconfig:"WEBHOOK_WORKER_INTERVAL_SECONDS" default:"10"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.LowThreshold > cfg.HighThreshold {
		return nil, fmt.Errorf("load config: LOW_THRESHOLD %.2f above HIGH_THRESHOLD %.2f", cfg.LowThreshold, cfg.HighThreshold)
	}
	if cfg.MinImages < 1 || cfg.MaxImages < cfg.MinImages {
		return nil, fmt.Errorf("load config: image bounds %d..%d invalid", cfg.MinImages, cfg.MaxImages)
	}
	return &cfg, nil
}

// BodyLimit returns the transport-level request size cap: a full
// enrollment set of MaxImages images at MaxImageBytes each, plus one
// image worth of headroom for multipart framing and form fields. The
// per-image gate stays with the handlers; this only keeps Fiber from
// rejecting contract-valid uploads before they reach it.
func (c *Config) BodyLimit() int {
	return (c.MaxImages + 1) * c.MaxImageBytes
}

// ServiceKeyList splits the configured service keys, dropping empties.
func (c *Config) ServiceKeyList() []string {
	parts := strings.Split(c.ServiceKeys, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
