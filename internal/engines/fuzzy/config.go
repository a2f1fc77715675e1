// internal/engines/fuzzy/config.go
package fuzzy

import "time"

type Config struct {
	DefaultTopK   int
	MaxDistanceKm float64
	// Threshold is the minimum label similarity counted as a service match.
	Threshold float64
	Timeout   time.Duration
}

func LoadConfig() *Config {
	return &Config{
		DefaultTopK:   5,
		MaxDistanceKm: 50,
		Threshold:     0.6,
		Timeout:       30 * time.Second,
	}
}
