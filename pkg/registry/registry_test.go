// pkg/registry/registry_test.go
package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"caregiver-matching/internal/engines"
	"caregiver-matching/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct{ name string }

func (s stubEngine) Name() string { return s.name }

func (s stubEngine) Match(context.Context, *models.Query, []models.Candidate, engines.Options) (*engines.Result, error) {
	return engines.NewResult(nil, nil), nil
}

func (s stubEngine) Health(context.Context) engines.Health { return engines.Healthy() }

func TestRegistry_ResolveAndOrder(t *testing.T) {
	r := New("rule-based", nil)
	require.NoError(t, r.Register(stubEngine{"rule-based"}))
	require.NoError(t, r.Register(stubEngine{"basic"}))
	require.NoError(t, r.Register(stubEngine{"fuzzy"}))
	require.NoError(t, r.Validate())

	assert.Equal(t, []string{"rule-based", "basic", "fuzzy"}, r.Names())

	e, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "rule-based", e.Name())

	e, err = r.Resolve("fuzzy")
	require.NoError(t, err)
	assert.Equal(t, "fuzzy", e.Name())

	_, err = r.Resolve("gpt")
	assert.ErrorIs(t, err, ErrUnknownEngine)

	entries := r.Entries()
	require.Len(t, entries, 3)
	assert.True(t, entries[0].Default)
	assert.False(t, entries[1].Default)
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	r := New("basic", nil)
	require.NoError(t, r.Register(stubEngine{"basic"}))
	assert.ErrorIs(t, r.Register(stubEngine{"basic"}), ErrDuplicateEngine)
}

func TestRegistry_ValidateMissingDefault(t *testing.T) {
	r := New("rule-based", nil)
	require.NoError(t, r.Register(stubEngine{"basic"}))
	assert.ErrorIs(t, r.Validate(), ErrUnknownEngine)
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engines.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"version": "1.0.0",
		"engines": [{"name": "basic", "displayName": "Basic filter", "policy": "filter"}]
	}`), 0o600))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)

	r := New("basic", cat)
	require.NoError(t, r.Register(stubEngine{"basic"}))
	require.NoError(t, r.Register(stubEngine{"fuzzy"}))

	entries := r.Entries()
	assert.Equal(t, "Basic filter", entries[0].Descriptor.DisplayName)
	assert.Equal(t, "filter", entries[0].Descriptor.Policy)
	assert.Equal(t, "fuzzy", entries[1].Descriptor.DisplayName)
}

func TestCatalog_Validate(t *testing.T) {
	tests := []struct {
		name    string
		catalog Catalog
		wantErr string
	}{
		{"empty", Catalog{}, "no engines"},
		{"unnamed", Catalog{Engines: []Descriptor{{DisplayName: "x", Policy: PolicyFill}}}, "missing name"},
		{"duplicate", Catalog{Engines: []Descriptor{
			{Name: "basic", DisplayName: "Basic", Policy: PolicyFilter},
			{Name: "basic", DisplayName: "Basic", Policy: PolicyFilter},
		}}, "duplicate"},
		{"no display name", Catalog{Engines: []Descriptor{{Name: "basic", Policy: PolicyFilter}}}, "displayName"},
		{"bad policy", Catalog{Engines: []Descriptor{{Name: "basic", DisplayName: "Basic", Policy: "best"}}}, "unknown policy"},
		{"valid", Catalog{Engines: []Descriptor{{Name: "basic", DisplayName: "Basic", Policy: PolicyFilter}}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.catalog.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveCatalog_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engines.json")
	cat := &Catalog{Version: "1.0.0", Engines: []Descriptor{
		{Name: "rule-based", DisplayName: "Rule-based", Policy: PolicyFill},
	}}
	require.NoError(t, SaveCatalog(path, cat))
	assert.NotEmpty(t, cat.LastUpdated)

	loaded, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, cat.LastUpdated, loaded.LastUpdated)
	assert.Equal(t, []string{"fuzzy"}, loaded.Missing([]string{"rule-based", "fuzzy"}))
}
