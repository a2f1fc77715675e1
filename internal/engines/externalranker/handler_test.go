// internal/engines/externalranker/handler_test.go
package externalranker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"caregiver-matching/internal/common/config"
	commonerrors "caregiver-matching/internal/common/errors"
	"caregiver-matching/internal/common/logger"
	"caregiver-matching/internal/engines"
	"caregiver-matching/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func rating(v float64) *float64 { return &v }

func createTestHandler(t *testing.T, baseURL string, tweak func(*config.RankerConfig)) *Handler {
	rc := config.RankerConfig{
		BaseURL:       baseURL,
		APIKey:        "sk-test-key-123456",
		Timeout:       2000,
		MaxAttempts:   5,
		BaseBackoff:   5,
		MaxBackoff:    20,
		MaxCandidates: 50,
	}
	if tweak != nil {
		tweak(&rc)
	}
	return NewHandler(LoadConfig(rc), logger.NewTestLogger(t))
}

func testPool() []models.Candidate {
	return []models.Candidate{
		{ID: "n-1", Name: "Dana", Locality: "Tel Aviv", Services: []string{"WOUND_CARE"}, Rating: rating(4.8), ReviewsCount: 50},
		{ID: "n-2", Name: "Noa", Locality: "Haifa", Services: []string{"GENERAL"}},
		{ID: "n-3", Name: "Yael", Locality: "Tel Aviv", Services: []string{"MEDICATION"}},
	}
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func requireCode(t *testing.T, err error, code commonerrors.ErrorCode) *commonerrors.StandardError {
	t.Helper()
	require.Error(t, err)
	stdErr, ok := commonerrors.AsStandardError(err)
	require.True(t, ok, "expected StandardError, got %v", err)
	assert.Equal(t, code, stdErr.Code)
	return stdErr
}

// ==========================
// Match
// ==========================

func TestMatch_Success(t *testing.T) {
	var received RankRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rank", r.URL.Path)
		assert.Equal(t, "Bearer sk-test-key-123456", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		jsonHandler(http.StatusOK, `{"results":[
			{"id":"n-3","score":0.40,"reason":"medication only"},
			{"id":"n-1","score":0.95,"reason":"wound care in Tel Aviv"},
			{"id":"ghost","score":0.60,"reason":"unknown"}
		]}`)(w, r)
	}))
	defer srv.Close()

	h := createTestHandler(t, srv.URL, nil)
	q := &models.Query{Locality: "Tel Aviv", Services: []string{"WOUND_CARE"}, TopK: 2}

	res, err := h.Match(context.Background(), q, testPool(), engines.Options{Timeout: time.Second})

	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "n-1", res.Results[0].ID)
	assert.Equal(t, "Dana", res.Results[0].Name)
	assert.Equal(t, 0.95, res.Results[0].Score)
	assert.Equal(t, "wound care in Tel Aviv", res.Results[0].Reason)
	assert.Equal(t, 1, res.Results[0].Rank)
	assert.Nil(t, res.Results[0].Breakdown)

	assert.Equal(t, "ghost", res.Results[1].ID)
	assert.Equal(t, "ghost", res.Results[1].Name, "unknown ids keep the id as name")
	assert.Equal(t, 2, res.Results[1].Rank)

	assert.Equal(t, "Tel Aviv", received.Query.City)
	assert.Equal(t, []string{"WOUND_CARE"}, received.Query.ServicesQuery)
	assert.Equal(t, 2, received.Query.TopK)
	assert.Len(t, received.Candidates, 3)
}

func TestMatch_ReducesPayload(t *testing.T) {
	var received RankRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		jsonHandler(http.StatusOK, `{"results":[]}`)(w, r)
	}))
	defer srv.Close()

	h := createTestHandler(t, srv.URL, func(rc *config.RankerConfig) { rc.MaxCandidates = 1 })

	res, err := h.Match(context.Background(), &models.Query{Locality: "Tel Aviv", Services: []string{"WOUND_CARE"}}, testPool(), engines.Options{})

	require.NoError(t, err)
	assert.Empty(t, res.Results)
	require.Len(t, received.Candidates, 1)
	assert.Equal(t, "n-1", received.Candidates[0].ID, "the best local match is sent")
}

func TestMatch_MalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `results: n-1`},
		{"missing results", `{"items":[]}`},
		{"score not a number", `{"results":[{"id":"n-1","score":"high"}]}`},
		{"score out of range", `{"results":[{"id":"n-1","score":95}]}`},
		{"empty id", `{"results":[{"id":"","score":0.5}]}`},
		{"duplicate id", `{"results":[{"id":"n-1","score":0.9},{"id":"n-3","score":0.5},{"id":"n-1","score":0.4}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(jsonHandler(http.StatusOK, tt.body))
			defer srv.Close()

			h := createTestHandler(t, srv.URL, nil)
			res, err := h.Match(context.Background(), &models.Query{Locality: "Haifa"}, testPool(), engines.Options{})

			assert.Nil(t, res)
			requireCode(t, err, commonerrors.ErrCodeRankerResponseInvalid)
		})
	}
}

func TestMatch_RetriesRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		jsonHandler(http.StatusOK, `{"results":[{"id":"n-2","score":0.7}]}`)(w, r)
	}))
	defer srv.Close()

	h := createTestHandler(t, srv.URL, nil)
	res, err := h.Match(context.Background(), &models.Query{Locality: "Haifa"}, testPool(), engines.Options{})

	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	require.Len(t, res.Results, 1)
	assert.Equal(t, "Noa", res.Results[0].Name)
}

func TestMatch_PersistentServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	h := createTestHandler(t, srv.URL, nil)
	_, err := h.Match(context.Background(), &models.Query{Locality: "Haifa"}, testPool(), engines.Options{})

	stdErr := requireCode(t, err, commonerrors.ErrCodeRankerUnavailable)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
	assert.Equal(t, 5, stdErr.Metadata["attempts"])
}

func TestMatch_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	h := createTestHandler(t, srv.URL, nil)
	_, err := h.Match(context.Background(), &models.Query{Locality: "Haifa"}, testPool(), engines.Options{})

	requireCode(t, err, commonerrors.ErrCodeRankerUnavailable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMatch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		jsonHandler(http.StatusOK, `{"results":[]}`)(w, r)
	}))
	defer srv.Close()

	h := createTestHandler(t, srv.URL, nil)
	start := time.Now()
	res, err := h.Match(context.Background(), &models.Query{Locality: "Haifa"}, testPool(), engines.Options{Timeout: 50 * time.Millisecond})

	assert.Nil(t, res, "partial results are discarded")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRankerTimeout))
	assert.True(t, commonerrors.IsTimeout(err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestMatch_NilQuery(t *testing.T) {
	h := createTestHandler(t, "http://127.0.0.1:1", nil)
	_, err := h.Match(context.Background(), nil, testPool(), engines.Options{})
	assert.ErrorIs(t, err, ErrNilQuery)
}

// ==========================
// Health
// ==========================

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	h := createTestHandler(t, srv.URL, nil)
	assert.Equal(t, EngineName, h.Name())
	assert.Equal(t, engines.StatusHealthy, h.Health(context.Background()).Status)

	degraded := createTestHandler(t, srv.URL, func(rc *config.RankerConfig) { rc.HealthPath = "/missing" })
	assert.Equal(t, engines.StatusDegraded, degraded.Health(context.Background()).Status)

	srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	assert.Equal(t, engines.StatusUnhealthy, h.Health(ctx).Status)
}
