package grata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestEnrichByDomain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/enrich/", r.URL.Path)
		assert.Equal(t, "Token test-key", r.Header.Get("Authorization"))

		var req enrichRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "acme.com", req.Domain)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"company": {
				"company_uid": "uid-1",
				"name": "Acme Corp",
				"domain": "acme.com",
				"employees_on_professional_networks": 250,
				"year_founded": 1998
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	co, err := client.EnrichByDomain(context.Background(), "acme.com")

	require.NoError(t, err)
	require.NotNil(t, co)
	assert.Equal(t, "Acme Corp", co.Name)
	assert.Equal(t, 250, co.EmployeeCount)
	assert.Equal(t, 1998, co.YearFounded)
}

func TestEnrichByDomainUnknownDomain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	co, err := client.EnrichByDomain(context.Background(), "nobody.example")

	require.NoError(t, err)
	assert.Nil(t, co)
}

func TestEnrichByDomainServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.EnrichByDomain(context.Background(), "acme.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
}

func TestNewClientDefaults(t *testing.T) {
	t.Parallel()
	hc := NewClient("my-key").(*httpClient)
	assert.Equal(t, "my-key", hc.apiKey)
	assert.Equal(t, defaultBaseURL, hc.baseURL)
	require.NotNil(t, hc.limiter)
	assert.Equal(t, rate.Limit(5), hc.limiter.Limit())
}

func TestWithRateLimit(t *testing.T) {
	t.Parallel()
	hc := NewClient("k", WithRateLimit(1)).(*httpClient)
	require.NotNil(t, hc.limiter)
	assert.Equal(t, rate.Limit(1), hc.limiter.Limit())

	off := NewClient("k", WithRateLimit(-1)).(*httpClient)
	assert.Nil(t, off.limiter)
}

func TestRateLimitHonorsContext(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"company":null}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.EnrichByDomain(ctx, "acme.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	assert.Equal(t, int32(0), calls.Load())
}
