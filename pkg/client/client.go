package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/rmax-ai/mrpconf/pkg/model"
)

// DefaultEndpoint is used when NewClient is given an empty endpoint.
const DefaultEndpoint = "http://127.0.0.1:8090"

// Client talks to a config source over its REST contract.
type Client struct {
	endpoint string
	http     *http.Client
	retries  int
	backoff  Backoff
	logger   *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRetries sets how many times a failed read is retried. Writes are never
// retried.
func WithRetries(n int, b Backoff) Option {
	return func(c *Client) {
		c.retries = n
		if b != nil {
			c.backoff = b
		}
	}
}

// WithLogger sets the logger used for retry diagnostics. A nil logger is
// ignored.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a new config source client.
// endpoint defaults to DefaultEndpoint if empty.
func NewClient(endpoint string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		backoff: DefaultReadBackoff(),
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the base URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Ping checks the health of the source.
func (c *Client) Ping(ctx context.Context) (Status, error) {
	var status Status
	if err := c.getJSON(ctx, "ping", "/v1/health", &status); err != nil {
		return Status{}, err
	}
	return status, nil
}

// GetScenarios loads all available scenarios.
func (c *Client) GetScenarios(ctx context.Context) ([]model.Scenario, error) {
	var scenarios []model.Scenario
	if err := c.getJSON(ctx, "get scenarios", "/config/scenarios", &scenarios); err != nil {
		return nil, err
	}
	if scenarios == nil {
		return nil, &DecodeError{Op: "get scenarios", Err: errors.New("null payload")}
	}
	return scenarios, nil
}

// GetTechnicalConfig loads the global technical configuration set.
func (c *Client) GetTechnicalConfig(ctx context.Context) ([]model.ConfigItem, error) {
	return c.getItems(ctx, "get technical config", "/config/technical")
}

// GetOperationalConfig loads the operational configuration of one scenario.
func (c *Client) GetOperationalConfig(ctx context.Context, scenarioID string) ([]model.ConfigItem, error) {
	return c.getItems(ctx, "get operational config", operationalPath(scenarioID))
}

// SaveTechnicalConfig replaces the technical configuration set.
func (c *Client) SaveTechnicalConfig(ctx context.Context, items []model.ConfigItem) error {
	return c.send(ctx, "save technical config", http.MethodPut, "/config/technical", items, is2xx)
}

// SaveOperationalConfig replaces the operational configuration of one scenario.
func (c *Client) SaveOperationalConfig(ctx context.Context, scenarioID string, items []model.ConfigItem) error {
	return c.send(ctx, "save operational config", http.MethodPut, operationalPath(scenarioID), items, is2xx)
}

// CreateScenario creates a scenario. Only 201 Created counts as success.
func (c *Client) CreateScenario(ctx context.Context, scenario model.Scenario) error {
	return c.send(ctx, "create scenario", http.MethodPost, "/config/scenarios", scenario, func(code int) bool {
		return code == http.StatusCreated
	})
}

func operationalPath(scenarioID string) string {
	return "/config/operational/" + url.PathEscape(scenarioID)
}

func is2xx(code int) bool {
	return code >= 200 && code < 300
}

func (c *Client) getItems(ctx context.Context, op, path string) ([]model.ConfigItem, error) {
	var items []model.ConfigItem
	if err := c.getJSON(ctx, op, path, &items); err != nil {
		return nil, err
	}
	if items == nil {
		return nil, &DecodeError{Op: op, Err: errors.New("null payload")}
	}
	return items, nil
}

// getJSON performs a GET, retrying transport errors and 5xx responses.
func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = c.getOnce(ctx, op, path, out)
		if err == nil || !retryable(err) || attempt >= c.retries {
			return err
		}

		wait := c.backoff.Delay(attempt)
		c.logger.Debug("retrying read", "op", op, "attempt", attempt+1, "wait", wait, "error", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return unavailable(op, ctx.Err())
		}
	}
}

func (c *Client) getOnce(ctx context.Context, op, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return unavailable(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(op, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}

func (c *Client) send(ctx context.Context, op, method, path string, payload any, ok func(int) bool) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", op, err)
	}

	req, err := c.newRequest(ctx, method, path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return unavailable(op, err)
	}
	defer resp.Body.Close()

	if !ok(resp.StatusCode) {
		return statusError(op, resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Trace-ID", uuid.NewString())
	return req, nil
}

func statusError(op string, resp *http.Response) error {
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrSourceUnavailable) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode >= 500
}
