// cmd/tools/registry-updater/main_test.go
package main

import (
	"os"
	"path/filepath"
	"testing"

	"caregiver-matching/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateDescriptor(t *testing.T) {
	cat := &registry.Catalog{Engines: []registry.Descriptor{
		{Name: "basic", DisplayName: "Basic", Policy: registry.PolicyFilter},
	}}

	require.NoError(t, updateDescriptor(cat, "basic", "tags", "fast, ,cheap"))
	assert.Equal(t, []string{"fast", "cheap"}, cat.Engines[0].Tags)

	require.NoError(t, updateDescriptor(cat, "basic", "external", "true"))
	assert.True(t, cat.Engines[0].External)

	assert.Error(t, updateDescriptor(cat, "basic", "external", "maybe"))
	assert.ErrorContains(t, updateDescriptor(cat, "basic", "weight", "1"), "unknown field")
	assert.ErrorContains(t, updateDescriptor(cat, "fuzzy", "version", "2"), "not found")
}

func TestShippedCatalogCoversBuiltinEngines(t *testing.T) {
	path := filepath.Join("..", "..", "..", "configs", "engines.json")
	if _, err := os.Stat(path); err != nil {
		t.Skip("catalog not present")
	}
	cat, err := registry.LoadCatalog(path)
	require.NoError(t, err)
	require.NoError(t, cat.Validate())
	assert.Empty(t, cat.Missing(builtinEngines))
}
