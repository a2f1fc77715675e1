// internal/gateway/request_test.go
package gateway

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"caregiver-matching/internal/common/validation"

	"github.com/mitchellh/mapstructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceParam(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  interface{}
	}{
		{"topK", "7", 7.0},
		{"lat", "32.08", 32.08},
		{"topK", "seven", "seven"},
		{"urgent", "true", true},
		{"urgent", "1", true},
		{"urgent", "maybe", "maybe"},
		{"servicesQuery", "WOUND_CARE, ,MEDICATION", []interface{}{"WOUND_CARE", "MEDICATION"}},
		{"city", "Tel Aviv", "Tel Aviv"},
		{"engine", "basic", "basic"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, coerceParam(tt.key, tt.value))
		})
	}
}

func TestStringToTimeHook(t *testing.T) {
	timeType := reflect.TypeOf(time.Time{})
	strType := reflect.TypeOf("")

	got, err := stringToTimeHook(strType, timeType, "2024-01-15T08:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 6, 30, 0, 0, time.UTC), got.(time.Time).UTC())

	got, err = stringToTimeHook(strType, timeType, "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), got.(time.Time))

	_, err = stringToTimeHook(strType, timeType, "next week")
	assert.Error(t, err)

	passthrough, err := stringToTimeHook(strType, strType, "next week")
	require.NoError(t, err)
	assert.Equal(t, "next week", passthrough)
}

func TestDecodeErrors(t *testing.T) {
	errs := decodeErrors(&mapstructure.Error{Errors: []string{"error decoding 'start': bad"}})
	require.Len(t, errs, 1)
	assert.Equal(t, "start", errs[0].Field)

	errs = decodeErrors(errors.New("no field here"))
	assert.Equal(t, []validation.ValidationError{{Field: "body", Message: "no field here", Code: "INVALID_VALUE"}}, errs)
}

func TestMatchRequest_Query(t *testing.T) {
	lat, lng := 32.08, 34.78
	req := MatchRequest{
		City:          "  Haifa ",
		Lat:           &lat,
		Lng:           &lng,
		ServicesQuery: []string{"WOUND_CARE", " ", "WOUND_CARE", "MEDICATION"},
		Start:         time.Date(2024, 1, 15, 10, 0, 0, 0, time.FixedZone("IST", 2*3600)),
		End:           time.Date(2024, 1, 15, 12, 0, 0, 0, time.FixedZone("IST", 2*3600)),
		TopK:          4,
	}

	q := req.Query()
	assert.Equal(t, "Haifa", q.Locality)
	assert.Equal(t, []string{"WOUND_CARE", "MEDICATION"}, q.Services)
	require.NotNil(t, q.Coordinate)
	assert.Equal(t, 34.78, q.Coordinate.Lng)
	require.NotNil(t, q.Window)
	assert.Equal(t, time.UTC, q.Window.Start.Location())
	assert.Equal(t, 8, q.Window.Start.Hour())
	assert.Equal(t, 4, q.TopK)
	assert.Nil(t, q.Expertise)
}

func TestMatchRequest_Validate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Empty(t, (&MatchRequest{Text: "wound care in Haifa"}).validate())
	assert.Empty(t, (&MatchRequest{City: "Haifa", Start: start, End: start.Add(30 * 24 * time.Hour)}).validate())

	errs := (&MatchRequest{}).validate()
	require.Len(t, errs, 1)
	assert.Equal(t, "LOCATION_REQUIRED", errs[0].Code)

	errs = (&MatchRequest{City: "Haifa", Start: start, End: start}).validate()
	require.Len(t, errs, 1)
	assert.Equal(t, "WINDOW_ORDER", errs[0].Code)
}
