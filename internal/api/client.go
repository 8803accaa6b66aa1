// Package api talks to the metrics and plot backend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/verte-zerg/gnssview/internal/logging"
	"github.com/verte-zerg/gnssview/internal/model"
)

// DefaultBaseURL is used when no API URL is configured.
const DefaultBaseURL = "http://localhost:5000"

const (
	metricsPath        = "/api/metrics"
	plotsPath          = "/api/plots/"
	healthPath         = "/api/health"
	datasetsPath       = "/api/datasets"
	availablePlotsPath = "/api/available-plots"
	predictionsPath    = "/api/predictions/"
)

// Client fetches documents from the backend. It applies no timeout or retry of
// its own; callers bound requests through the context.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL using http.DefaultClient.
func NewClient(baseURL string) *Client {
	return NewClientWithHTTP(baseURL, http.DefaultClient)
}

// NewClientWithHTTP returns a client that sends requests through hc.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: baseURL, http: hc}
}

// BaseURL returns the normalized backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchMetrics performs one GET of the metrics document. Every failure is a
// *NetworkError.
func (c *Client) FetchMetrics(ctx context.Context) (model.MetricsDocument, error) {
	endpoint := c.baseURL + metricsPath
	var doc model.MetricsDocument
	if err := c.getJSON(ctx, "fetch metrics", endpoint, &doc); err != nil {
		return model.MetricsDocument{}, err
	}
	return doc, nil
}

// PlotURL returns the served location of a plot file.
func (c *Client) PlotURL(filename string) string {
	return c.baseURL + plotsPath + url.PathEscape(filename)
}

// ResolvePlot checks that the backend serves filename and returns its URL.
// Failures are *PlotResolutionError.
func (c *Client) ResolvePlot(ctx context.Context, filename string) (string, error) {
	endpoint := c.PlotURL(filename)
	resp, err := c.do(ctx, endpoint)
	if err != nil {
		return "", &PlotResolutionError{Filename: filename, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &PlotResolutionError{Filename: filename, StatusCode: resp.StatusCode}
	}
	return endpoint, nil
}

// Health reports whether the backend answers its health check.
func (c *Client) Health(ctx context.Context) error {
	var payload struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, "health check", c.baseURL+healthPath, &payload); err != nil {
		return err
	}
	if payload.Status != "ok" {
		return fmt.Errorf("backend unhealthy: status %q", payload.Status)
	}
	return nil
}

// Datasets lists the dataset ids the backend knows about.
func (c *Client) Datasets(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.getJSON(ctx, "list datasets", c.baseURL+datasetsPath, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Predictions returns the exported validation samples of a dataset keyed by
// lower-case model name. The backend truncates each series.
func (c *Client) Predictions(ctx context.Context, dataset string) (map[string][]model.PredictionPoint, error) {
	out := map[string][]model.PredictionPoint{}
	endpoint := c.baseURL + predictionsPath + url.PathEscape(dataset)
	if err := c.getJSON(ctx, "fetch predictions", endpoint, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AvailablePlots lists plot files grouped by dataset, comparison and other.
func (c *Client) AvailablePlots(ctx context.Context) (map[string][]string, error) {
	out := map[string][]string{}
	if err := c.getJSON(ctx, "list plots", c.baseURL+availablePlotsPath, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, op, endpoint string, target any) error {
	resp, err := c.do(ctx, endpoint)
	if err != nil {
		return &NetworkError{Op: op, URL: endpoint, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &NetworkError{Op: op, URL: endpoint, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty response body")
		}
		return &NetworkError{Op: op, URL: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, endpoint string) (*http.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, image/png;q=0.9")
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logging.LogRequest(http.MethodGet, endpoint, 0, time.Since(start), err)
		return nil, err
	}
	logging.LogRequest(http.MethodGet, endpoint, resp.StatusCode, time.Since(start), nil)
	return resp, nil
}
