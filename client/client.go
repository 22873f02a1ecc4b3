package client

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/consoleclient/errors"
	"github.com/c360/consoleclient/logging"
	"github.com/c360/consoleclient/metric"
	"github.com/c360/consoleclient/pkg/retry"
	"github.com/c360/consoleclient/platform"
)

// FaultSink receives terminal API failures for out-of-band reporting.
// The collector package implements it.
type FaultSink interface {
	CollectAPIError(apiErr *errors.APIError)
}

// ConstructorConfig holds everything needed to construct a Client.
type ConstructorConfig struct {
	Host               platform.Host       // Frontend origin, drives base-URL resolution
	APIBaseOverride    string              // Optional injected backend origin
	Timeout            time.Duration       // Per-attempt timeout (default 30s)
	Retry              retry.Config        // Default backoff policy
	Tokens             platform.TokenStore // Session token source
	Notifier           platform.Notifier   // Presentation surface
	Navigator          platform.Navigator  // Login redirect target
	Logger             *logging.Logger     // Structured logger (required in practice, defaulted if nil)
	Faults             FaultSink           // Optional fault collector
	Metrics            *metric.Metrics     // Optional instrumentation
	HTTPClient         *http.Client        // Optional transport override
	LoginRedirectDelay time.Duration       // Delay before the login redirect (default 1.5s)
}

// DefaultConstructorConfig returns sensible defaults for Client construction.
func DefaultConstructorConfig() ConstructorConfig {
	return ConstructorConfig{
		Host:               platform.HostFromOrigin("http://localhost:5173"),
		Timeout:            30 * time.Second,
		Retry:              retry.DefaultConfig(),
		LoginRedirectDelay: 1500 * time.Millisecond,
	}
}

// Client is the HTTP client core.
type Client struct {
	baseURL            string
	httpClient         *http.Client
	timeout            time.Duration
	retryCfg           retry.Config
	tokens             platform.TokenStore
	notifier           platform.Notifier
	navigator          platform.Navigator
	logger             *logging.Logger
	faults             FaultSink
	metrics            *metric.Metrics
	loginRedirectDelay time.Duration
}

// New creates a Client. Zero-value fields fall back to the defaults from
// DefaultConstructorConfig; a nil Notifier or Navigator gets a headless
// slog-backed surface.
func New(cfg ConstructorConfig) *Client {
	defaults := DefaultConstructorConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.Retry == (retry.Config{}) {
		cfg.Retry = defaults.Retry
	}
	if cfg.LoginRedirectDelay <= 0 {
		cfg.LoginRedirectDelay = defaults.LoginRedirectDelay
	}
	if cfg.Tokens == nil {
		cfg.Tokens = platform.NewMemoryTokenStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New(nil)
	}
	surface := platform.NewLogSurface(nil)
	if cfg.Notifier == nil {
		cfg.Notifier = surface
	}
	if cfg.Navigator == nil {
		cfg.Navigator = surface
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	c := &Client{
		baseURL:            platform.ResolveBaseURL(cfg.Host, cfg.APIBaseOverride),
		httpClient:         cfg.HTTPClient,
		timeout:            cfg.Timeout,
		retryCfg:           cfg.Retry,
		tokens:             cfg.Tokens,
		notifier:           cfg.Notifier,
		navigator:          cfg.Navigator,
		logger:             cfg.Logger,
		faults:             cfg.Faults,
		metrics:            cfg.Metrics,
		loginRedirectDelay: cfg.LoginRedirectDelay,
	}

	c.logger.Info("API", "API client created with base URL: "+c.baseURL, nil)
	return c
}

// BaseURL returns the resolved backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Send performs a request through the full pipeline with the client's
// default retry policy and returns the unwrapped response data. For
// envelope responses the returned bytes are the envelope's data field (or
// the whole body when data is absent); legacy non-envelope bodies are
// returned as-is.
func (c *Client) Send(ctx context.Context, req Request) (json.RawMessage, error) {
	return c.send(ctx, req, c.retryCfg)
}

// SendWithRetry is Send with a caller-supplied backoff policy.
func (c *Client) SendWithRetry(ctx context.Context, req Request, retryCfg retry.Config) (json.RawMessage, error) {
	return c.send(ctx, req, retryCfg)
}

// BatchResult is the outcome of one request in a batch.
type BatchResult struct {
	Data json.RawMessage
	Err  error
}

// SendBatch dispatches all requests concurrently under a sliding admission
// window of at most concurrency in-flight requests, in submission order.
// Each result is independent; one failure never aborts the rest.
func (c *Client) SendBatch(ctx context.Context, reqs []Request, concurrency int) []BatchResult {
	if concurrency <= 0 {
		concurrency = 3
	}

	results := make([]BatchResult, len(reqs))
	g := &errgroup.Group{}
	g.SetLimit(concurrency)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			data, err := c.send(ctx, req, c.retryCfg)
			results[i] = BatchResult{Data: data, Err: err}
			return nil
		})
	}

	_ = g.Wait()
	return results
}
