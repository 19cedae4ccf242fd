// Package climate is the HTTP client for the Guajira climate data API.
// All calls go through a shared retry/backoff/circuit-breaker pipeline.
package climate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// UserAgent identifies windops to the climate API.
const UserAgent = "GuajiraWindOps/1.0 (Academic Research)"

// Options configures a Client.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryInitial time.Duration
	RetryMax     time.Duration

	// RunID is sent as X-Run-Id on every request; a UUID is generated
	// when empty.
	RunID  string
	Logger *zap.Logger
}

// Client talks to the climate API.
type Client struct {
	baseURL  string
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
	validate *validator.Validate
	runID    string
	log      *zap.Logger
}

// New builds a Client. Zero option fields get defaults, except
// MaxRetries where zero means no retries.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.RetryInitial <= 0 {
		opts.RetryInitial = 500 * time.Millisecond
	}
	if opts.RetryMax <= 0 {
		opts.RetryMax = 5 * time.Second
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "climate-api",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client: &http.Client{Timeout: opts.Timeout},
			Backoff: BackoffConfig{
				MaxRetries:      opts.MaxRetries,
				InitialInterval: opts.RetryInitial,
				MaxInterval:     opts.RetryMax,
			},
		},
		circuit:  cb,
		validate: validator.New(),
		runID:    opts.RunID,
		log:      opts.Logger,
	}
}

// RunID returns the identifier attached to this client's requests.
func (c *Client) RunID() string {
	return c.runID
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	err := c.getJSON(ctx, "/health", nil, &out)
	return out, err
}

// ListFiles calls GET /files.
func (c *Client) ListFiles(ctx context.Context) (FilesResponse, error) {
	var out FilesResponse
	err := c.getJSON(ctx, "/files", nil, &out)
	return out, err
}

// Stats calls GET /stats for one city.
func (c *Client) Stats(ctx context.Context, city string) (StatsResponse, error) {
	var out StatsResponse
	q := url.Values{}
	q.Set("city", city)
	err := c.getJSON(ctx, "/stats", q, &out)
	return out, err
}

// BulkDownload calls POST /download/bulk.
func (c *Client) BulkDownload(ctx context.Context, req BulkRequest) (BulkResponse, error) {
	var out BulkResponse
	err := c.postJSON(ctx, "/download/bulk", req, &out)
	return out, err
}

// SingleDownload calls POST /download/single.
func (c *Client) SingleDownload(ctx context.Context, req SingleRequest) (SingleResponse, error) {
	var out SingleResponse
	err := c.postJSON(ctx, "/download/single", req, &out)
	return out, err
}

// UpdateHourly calls POST /update/hourly.
func (c *Client) UpdateHourly(ctx context.Context, req UpdateRequest) (UpdateResponse, error) {
	var out UpdateResponse
	err := c.postJSON(ctx, "/update/hourly", req, &out)
	return out, err
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	if err := c.validate.Struct(body); err != nil {
		return fmt.Errorf("invalid request for %s: %w", path, err)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		c.setHeaders(req)
		return req, nil
	}
	return c.do(ctx, path, buildRequest, out)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	buildRequest := func() (*http.Request, error) {
		u := c.baseURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		c.setHeaders(req)
		return req, nil
	}
	return c.do(ctx, path, buildRequest, out)
}

func (c *Client) do(ctx context.Context, path string, buildRequest func() (*http.Request, error), out interface{}) error {
	start := time.Now()
	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("api call",
		zap.String("path", path),
		zap.String("run_id", c.runID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-Run-Id", c.runID)
	req.Header.Set("Accept", "application/json")
}
