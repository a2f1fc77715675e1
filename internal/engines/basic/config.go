// internal/engines/basic/config.go
package basic

import "time"

type Config struct {
	DefaultTopK     int
	DefaultRadiusKm float64
	Timeout         time.Duration
}

func LoadConfig() *Config {
	return &Config{
		DefaultTopK:     5,
		DefaultRadiusKm: 25,
		Timeout:         30 * time.Second,
	}
}
