// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: matching-gateway
candidates:
  source: file
  path: data/candidates.json
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 8080, cfg.Server.MetricsPort)
	assert.Equal(t, "rule-based", cfg.Gateway.DefaultEngine)
	assert.Equal(t, 95000, cfg.Gateway.MatchTimeout)
	assert.Equal(t, 5, cfg.Gateway.DefaultTopK)
	assert.Equal(t, 100, cfg.Gateway.MaxTopK)
	assert.Equal(t, 5, cfg.Ranker.MaxAttempts)
	assert.Equal(t, 250, cfg.Ranker.BaseBackoff)
	assert.Equal(t, 5000, cfg.Ranker.MaxBackoff)
	assert.Equal(t, 50, cfg.Ranker.MaxCandidates)
	assert.Equal(t, 10*time.Minute, GetDuration(cfg.Candidates.CacheTTL))
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_RANKER_URL", "http://ranker.local")
	t.Setenv("TEST_RANKER_KEY", "sk-test")
	path := writeConfig(t, `
engines:
  external-ranker:
    enabled: true
ranker:
  base_url: ${TEST_RANKER_URL}
  api_key: ${TEST_RANKER_KEY}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://ranker.local", cfg.Ranker.BaseURL)
	assert.Equal(t, "sk-test", cfg.Ranker.APIKey)
	assert.Equal(t, 95000, GetEngineConfig(cfg, "external-ranker").Timeout)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"postgres without host", "candidates:\n  source: postgres\n"},
		{"elasticsearch without url", "candidates:\n  source: elasticsearch\n"},
		{"unknown source", "candidates:\n  source: ftp\n"},
		{"default engine disabled", "engines:\n  rule-based:\n    enabled: false\n"},
		{"listed ranker without url", "engines:\n  external-ranker:\n    enabled: true\n"},
		{"default topK above max", "gateway:\n  default_top_k: 200\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestIsEngineEnabled(t *testing.T) {
	cfg := &Config{Engines: map[string]EngineConfig{"fuzzy": {Enabled: false}}}
	assert.False(t, IsEngineEnabled(cfg, "fuzzy"))
	assert.True(t, IsEngineEnabled(cfg, "basic"))
}
