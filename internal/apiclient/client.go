package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"toolroom-console/config"
	"toolroom-console/internal/model"
)

const apiPrefix = "/api/v1"

// Client talks to the custody API of record. It keeps no state of its own beyond
// the connection pool and an outbound rate limiter.
type Client struct {
	baseURL string
	headers map[string]string
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.SugaredLogger
}

// New creates a client for the configured API.
func New(cfg config.APIConfig, logger *zap.SugaredLogger) *Client {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			logger.Warnf("invalid proxy URL %q: %v; API calls will not use a proxy", cfg.HTTPProxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	burst := cfg.RequestBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/") + apiPrefix,
		headers: cfg.Headers,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Summary fetches GET /dashboard/summary.
func (c *Client) Summary(ctx context.Context) (model.SummaryMetrics, error) {
	var out model.SummaryMetrics
	err := c.do(ctx, http.MethodGet, "/dashboard/summary", nil, nil, &out)
	return out, err
}

// ActiveCustody fetches GET /dashboard/active-custody.
func (c *Client) ActiveCustody(ctx context.Context) ([]model.CustodyRecord, error) {
	var out []model.CustodyRecord
	err := c.do(ctx, http.MethodGet, "/dashboard/active-custody", nil, nil, &out)
	return out, err
}

// Alerts fetches GET /alerts with an optional status filter.
func (c *Client) Alerts(ctx context.Context, status string, limit int) ([]model.Alert, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []model.Alert
	err := c.do(ctx, http.MethodGet, "/alerts", q, nil, &out)
	return out, err
}

// Assets fetches GET /assets and unwraps the items envelope.
func (c *Client) Assets(ctx context.Context, limit int) ([]model.Asset, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var page model.AssetPage
	if err := c.do(ctx, http.MethodGet, "/assets", q, nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Kits fetches GET /kits.
func (c *Client) Kits(ctx context.Context) ([]model.Kit, error) {
	var out []model.Kit
	err := c.do(ctx, http.MethodGet, "/kits", nil, nil, &out)
	return out, err
}

// Workers fetches GET /workers.
func (c *Client) Workers(ctx context.Context) ([]model.Worker, error) {
	var out []model.Worker
	err := c.do(ctx, http.MethodGet, "/workers", nil, nil, &out)
	return out, err
}

// History fetches GET /custody/history.
func (c *Client) History(ctx context.Context, limit int) ([]model.HistoryRecord, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []model.HistoryRecord
	err := c.do(ctx, http.MethodGet, "/custody/history", q, nil, &out)
	return out, err
}

// Checkout posts a checkout scan.
func (c *Client) Checkout(ctx context.Context, req model.ScanRequest) (*model.ScanResult, error) {
	var out model.ScanResult
	if err := c.do(ctx, http.MethodPost, "/custody/checkout", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Return posts a return scan.
func (c *Client) Return(ctx context.Context, req model.ScanRequest) (*model.ScanResult, error) {
	var out model.ScanResult
	if err := c.do(ctx, http.MethodPost, "/custody/return", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AcknowledgeAlert asks the server to move an alert to ACKNOWLEDGED.
func (c *Client) AcknowledgeAlert(ctx context.Context, id, workerID string) error {
	body := model.AlertAction{WorkerID: workerID}
	return c.do(ctx, http.MethodPost, "/alerts/"+url.PathEscape(id)+"/acknowledge", nil, body, nil)
}

// ResolveAlert asks the server to move an alert to RESOLVED.
func (c *Client) ResolveAlert(ctx context.Context, id, workerID string, note *string) error {
	body := model.AlertAction{WorkerID: workerID, ResolutionNote: note}
	return c.do(ctx, http.MethodPost, "/alerts/"+url.PathEscape(id)+"/resolve", nil, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		jsonBody, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request payload: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return &TimeoutError{Method: method, Path: path, Err: err}
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Detail: extractDetail(raw)}
		c.logger.Debugf("%s %s rejected: %v", method, path, apiErr)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s response: %w", path, err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
