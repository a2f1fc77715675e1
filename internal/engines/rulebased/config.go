// internal/engines/rulebased/config.go
package rulebased

import "time"

type Config struct {
	DefaultTopK int
	Timeout     time.Duration
	// CheckEvery is how many candidates are scored between context checks.
	CheckEvery int
}

func LoadConfig() *Config {
	return &Config{
		DefaultTopK: 5,
		Timeout:     30 * time.Second,
		CheckEvery:  256,
	}
}
