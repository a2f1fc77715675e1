// internal/engines/externalranker/config.go
package externalranker

import (
	"time"

	"caregiver-matching/internal/common/config"
)

type Config struct {
	BaseURL       string
	Path          string
	HealthPath    string
	APIKey        string
	Timeout       time.Duration
	MaxAttempts   int
	BaseBackoff   time.Duration
	MaxBackoff    time.Duration
	MaxCandidates int
	DefaultTopK   int
}

func LoadConfig(rc config.RankerConfig) *Config {
	cfg := &Config{
		BaseURL:       rc.BaseURL,
		Path:          rc.Path,
		HealthPath:    rc.HealthPath,
		APIKey:        rc.APIKey,
		Timeout:       config.GetDuration(rc.Timeout),
		MaxAttempts:   rc.MaxAttempts,
		BaseBackoff:   config.GetDuration(rc.BaseBackoff),
		MaxBackoff:    config.GetDuration(rc.MaxBackoff),
		MaxCandidates: rc.MaxCandidates,
		DefaultTopK:   5,
	}
	if cfg.Path == "" {
		cfg.Path = "/rank"
	}
	if cfg.HealthPath == "" {
		cfg.HealthPath = "/health"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 250 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 50
	}
	return cfg
}
