// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig               `mapstructure:"app"`
	Server     ServerConfig            `mapstructure:"server"`
	Gateway    GatewayConfig           `mapstructure:"gateway"`
	Engines    map[string]EngineConfig `mapstructure:"engines"`
	Ranker     RankerConfig            `mapstructure:"ranker"`
	Candidates CandidatesConfig        `mapstructure:"candidates"`
	Database   DatabaseConfig          `mapstructure:"database"`
	Broker     BrokerConfig            `mapstructure:"broker"`
	Logging    LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port         int             `mapstructure:"port"`
	MetricsPort  int             `mapstructure:"metrics_port"`
	BodyLimit    int             `mapstructure:"body_limit"`    // bytes
	ReadTimeout  int             `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int             `mapstructure:"write_timeout"` // milliseconds
	CORSOrigins  string          `mapstructure:"cors_origins"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Max     int  `mapstructure:"max"`
	Window  int  `mapstructure:"window"` // milliseconds
}

// GatewayConfig holds engine selection and request bounds for POST /match.
type GatewayConfig struct {
	DefaultEngine  string `mapstructure:"default_engine"`
	MatchTimeout   int    `mapstructure:"match_timeout"` // milliseconds
	DefaultTopK    int    `mapstructure:"default_top_k"`
	MaxTopK        int    `mapstructure:"max_top_k"`
	HealthTimeout  int    `mapstructure:"health_timeout"`  // milliseconds, GET /health
	EnginesTimeout int    `mapstructure:"engines_timeout"` // milliseconds, GET /engines
}

// EngineConfig holds the settings applicable to every engine.
type EngineConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Timeout int  `mapstructure:"timeout"` // milliseconds, 0 means the gateway timeout
}

// RankerConfig configures the external black-box ranking service.
type RankerConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	Path          string `mapstructure:"path"`
	HealthPath    string `mapstructure:"health_path"`
	APIKey        string `mapstructure:"api_key"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds per attempt
	MaxAttempts   int    `mapstructure:"max_attempts"`
	BaseBackoff   int    `mapstructure:"base_backoff"` // milliseconds
	MaxBackoff    int    `mapstructure:"max_backoff"`  // milliseconds
	MaxCandidates int    `mapstructure:"max_candidates"`
}

// CandidatesConfig selects where the candidate pool is read from.
type CandidatesConfig struct {
	Source         string `mapstructure:"source"` // file | csv | postgres | elasticsearch
	Path           string `mapstructure:"path"`
	Table          string `mapstructure:"table"`
	Index          string `mapstructure:"index"`
	CacheKey       string `mapstructure:"cache_key"`
	CacheTTL       int    `mapstructure:"cache_ttl"` // milliseconds
	RefreshSubject string `mapstructure:"refresh_subject"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// BrokerConfig holds the NATS connection used for pool refresh notifications.
type BrokerConfig struct {
	URL  string `mapstructure:"url"`
	Name string `mapstructure:"name"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
