package vs30

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justinschembri/isprs/internal/observability"
)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    testMetrics(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Vs30_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "37.040000", r.URL.Query().Get("lat"))
		assert.Equal(t, "-121.800000", r.URL.Query().Get("lon"))

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(response{Vs30: 423.5, Units: "m/s"}))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	v, err := c.Vs30(context.Background(), 37.04, -121.80)
	require.NoError(t, err)
	assert.Equal(t, 423.5, v)
}

func TestClient_Vs30_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "grid unavailable", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Vs30(context.Background(), 37.04, -121.80)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestClient_Vs30_NoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(response{Vs30: 0}))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Vs30(context.Background(), 0, -160.0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no vs30 data")
}

func TestClient_Vs30_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, "not json")
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Vs30(context.Background(), 37.04, -121.80)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}
