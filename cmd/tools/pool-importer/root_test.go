// cmd/tools/pool-importer/root_test.go
package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"caregiver-matching/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const export = "nurse_id,name,municipality,treatment_type,is_active,is_approved\n" +
	"n1,Dana,תל אביב,WOUND_CARE,true,true\n" +
	"n1,,חיפה,DEFAULT,true,true\n" +
	"n2,Avi,Haifa,MEDICATION,false,true\n"

func TestConvertRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "nurses.csv")
	out := filepath.Join(dir, "data", "candidates.json")
	require.NoError(t, os.WriteFile(in, []byte(export), 0o600))

	pool, err := readPool(context.Background(), in, true)
	require.NoError(t, err)
	require.NoError(t, writePool(out, pool))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var written []models.Candidate
	require.NoError(t, json.Unmarshal(data, &written))

	require.Len(t, written, 1)
	assert.Equal(t, "n1", written[0].ID)
	assert.Equal(t, "Tel Aviv", written[0].Locality)
	assert.Equal(t, []string{"WOUND_CARE", models.DefaultService}, written[0].Services)
	require.NotNil(t, written[0].Rating, "enrich fills the rating")
	assert.Positive(t, written[0].ReviewsCount)
}

func TestReadPool_WithoutEnrichment(t *testing.T) {
	in := filepath.Join(t.TempDir(), "nurses.csv")
	require.NoError(t, os.WriteFile(in, []byte(export), 0o600))

	pool, err := readPool(context.Background(), in, false)
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Nil(t, pool[0].Rating)
	assert.Zero(t, pool[0].ReviewsCount)
}
