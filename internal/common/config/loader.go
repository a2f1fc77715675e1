// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"caregiver-matching/internal/common/validation"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	SourceFile          = "file"
	SourceCSV           = "csv"
	SourcePostgres      = "postgres"
	SourceElasticsearch = "elasticsearch"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// ENV override like GATEWAY_DEFAULT_ENGINE
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finalize(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finalize(v)
}

func finalize(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile looks for .env in the working directory, its parents, and the module root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env", // test/e2e
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	overrides := []struct {
		target *string
		env    string
	}{
		{&cfg.Ranker.APIKey, "RANKER_API_KEY"},
		{&cfg.Ranker.BaseURL, "RANKER_BASE_URL"},
		{&cfg.Database.Postgres.User, "DB_USER"},
		{&cfg.Database.Postgres.Password, "DB_PASSWORD"},
		{&cfg.Database.Redis.Password, "REDIS_PASSWORD"},
		{&cfg.Broker.URL, "NATS_URL"},
	}
	for _, o := range overrides {
		if *o.target == "" {
			if val := os.Getenv(o.env); val != "" {
				*o.target = val
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "matching-gateway"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.MetricsPort == 0 {
		cfg.Server.MetricsPort = 8080
	}
	if cfg.Server.BodyLimit == 0 {
		cfg.Server.BodyLimit = 1 << 20
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 100000
	}
	if cfg.Server.CORSOrigins == "" {
		cfg.Server.CORSOrigins = "*"
	}
	if cfg.Server.RateLimit.Max == 0 {
		cfg.Server.RateLimit.Max = 120
	}
	if cfg.Server.RateLimit.Window == 0 {
		cfg.Server.RateLimit.Window = 60000
	}

	if cfg.Gateway.DefaultEngine == "" {
		cfg.Gateway.DefaultEngine = "rule-based"
	}
	if cfg.Gateway.MatchTimeout == 0 {
		cfg.Gateway.MatchTimeout = 95000
	}
	if cfg.Gateway.DefaultTopK == 0 {
		cfg.Gateway.DefaultTopK = 5
	}
	if cfg.Gateway.MaxTopK == 0 {
		cfg.Gateway.MaxTopK = 100
	}
	if cfg.Gateway.HealthTimeout == 0 {
		cfg.Gateway.HealthTimeout = 1000
	}
	if cfg.Gateway.EnginesTimeout == 0 {
		cfg.Gateway.EnginesTimeout = 3000
	}

	if cfg.Ranker.Path == "" {
		cfg.Ranker.Path = "/rank"
	}
	if cfg.Ranker.HealthPath == "" {
		cfg.Ranker.HealthPath = "/health"
	}
	if cfg.Ranker.Timeout == 0 {
		cfg.Ranker.Timeout = 30000
	}
	if cfg.Ranker.MaxAttempts == 0 {
		cfg.Ranker.MaxAttempts = 5
	}
	if cfg.Ranker.BaseBackoff == 0 {
		cfg.Ranker.BaseBackoff = 250
	}
	if cfg.Ranker.MaxBackoff == 0 {
		cfg.Ranker.MaxBackoff = 5000
	}
	if cfg.Ranker.MaxCandidates == 0 {
		cfg.Ranker.MaxCandidates = 50
	}

	if cfg.Candidates.Source == "" {
		cfg.Candidates.Source = SourceFile
	}
	if cfg.Candidates.Path == "" && cfg.Candidates.Source == SourceFile {
		cfg.Candidates.Path = "data/candidates.json"
	}
	if cfg.Candidates.Table == "" {
		cfg.Candidates.Table = "candidates"
	}
	if cfg.Candidates.Index == "" {
		cfg.Candidates.Index = "candidates"
	}
	if cfg.Candidates.CacheKey == "" {
		cfg.Candidates.CacheKey = "candidates:snapshot"
	}
	if cfg.Candidates.CacheTTL == 0 {
		cfg.Candidates.CacheTTL = 600000
	}
	if cfg.Candidates.RefreshSubject == "" {
		cfg.Candidates.RefreshSubject = "candidates.refresh"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if cfg.Broker.Name == "" {
		cfg.Broker.Name = cfg.App.Name
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, engine := range cfg.Engines {
		if engine.Timeout == 0 {
			engine.Timeout = cfg.Gateway.MatchTimeout
		}
		cfg.Engines[key] = engine
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	if cfg.Gateway.DefaultTopK < 1 || cfg.Gateway.DefaultTopK > cfg.Gateway.MaxTopK {
		return fmt.Errorf("gateway.default_top_k must be within 1..%d", cfg.Gateway.MaxTopK)
	}
	if !IsEngineEnabled(cfg, cfg.Gateway.DefaultEngine) {
		return fmt.Errorf("gateway.default_engine %q is disabled", cfg.Gateway.DefaultEngine)
	}

	switch cfg.Candidates.Source {
	case SourceFile, SourceCSV:
		if cfg.Candidates.Path == "" {
			return fmt.Errorf("candidates.path is required for source %q", cfg.Candidates.Source)
		}
	case SourcePostgres:
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	case SourceElasticsearch:
		if cfg.Database.Elasticsearch.GetURL() == "" {
			return fmt.Errorf("database.elasticsearch.addresses or url is required")
		}
	default:
		return fmt.Errorf("unsupported candidates.source %q", cfg.Candidates.Source)
	}

	if cfg.Ranker.BaseURL != "" && !validation.ValidateURL(cfg.Ranker.BaseURL) {
		return fmt.Errorf("ranker.base_url is not a valid http(s) URL: %q", cfg.Ranker.BaseURL)
	}
	if IsEngineEnabled(cfg, "external-ranker") && cfg.Ranker.BaseURL == "" {
		if _, listed := cfg.Engines["external-ranker"]; listed {
			return fmt.Errorf("ranker.base_url is required when external-ranker is enabled")
		}
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetEngineConfig retrieves engine-specific configuration with fallback to defaults
func GetEngineConfig(cfg *Config, name string) EngineConfig {
	if engine, exists := cfg.Engines[name]; exists {
		return engine
	}
	return EngineConfig{
		Enabled: true,
		Timeout: cfg.Gateway.MatchTimeout,
	}
}

// IsEngineEnabled reports whether an engine is enabled. Engines not listed are enabled.
func IsEngineEnabled(cfg *Config, name string) bool {
	if engine, exists := cfg.Engines[name]; exists {
		return engine.Enabled
	}
	return true
}
