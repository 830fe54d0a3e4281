// Package vs30 looks up site conditions (top-30m shear-wave velocity) from a
// gridded vs30 web service, with an in-memory cache decorator.
package vs30

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/justinschembri/isprs/internal/observability"
)

// Client implements pipeline.Vs30Provider against a vs30 grid HTTP service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a vs30 grid client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
		metrics: metrics,
	}
}

// Vs30 queries the grid service for the shear-wave velocity at a coordinate.
func (c *Client) Vs30(ctx context.Context, lat, lon float64) (float64, error) {
	v, err := c.doRequest(ctx, lat, lon)
	if err != nil {
		c.metrics.Vs30Requests.WithLabelValues("error").Inc()
		return 0, err
	}
	c.metrics.Vs30Requests.WithLabelValues("success").Inc()
	return v, nil
}

func (c *Client) doRequest(ctx context.Context, lat, lon float64) (float64, error) {
	params := url.Values{
		"lat": {fmt.Sprintf("%.6f", lat)},
		"lon": {fmt.Sprintf("%.6f", lon)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("vs30 request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("vs30 service error: status %d: %s", resp.StatusCode, body)
	}

	var gridResp response
	if err := json.NewDecoder(resp.Body).Decode(&gridResp); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}

	if gridResp.Vs30 <= 0 {
		return 0, fmt.Errorf("no vs30 data at %.4f,%.4f", lat, lon)
	}
	return gridResp.Vs30, nil
}

// Grid service response type.

type response struct {
	Vs30  float64 `json:"vs30"`
	Units string  `json:"units"`
}
