package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/c360/consoleclient/errors"
	"github.com/c360/consoleclient/logging"
	"github.com/c360/consoleclient/metric"
	"github.com/c360/consoleclient/platform"
)

// ConstructorConfig holds everything needed to construct a Collector.
type ConstructorConfig struct {
	Enabled       bool
	Endpoint      string        // Full report URL, e.g. base URL + "/system/error-report"
	DedupeWindow  time.Duration // Repeat-signature suppression window (default 60s)
	BatchInterval time.Duration // Delay before a pending batch is flushed (default 5s)
	MaxBatchSize  int           // Queue depth that triggers an immediate flush (default 10)
	AppName       string        // Deployment identity for report metadata
	Hostname      string        // Used to infer the environment tag
	PageURL       string        // Default fault URL
	UserAgent     string
	Tokens        platform.TokenStore
	Logger        *logging.Logger
	Metrics       *metric.Metrics
	HTTPClient    *http.Client
}

// DefaultConstructorConfig returns the production constants.
func DefaultConstructorConfig() ConstructorConfig {
	return ConstructorConfig{
		Enabled:       true,
		DedupeWindow:  60 * time.Second,
		BatchInterval: 5 * time.Second,
		MaxBatchSize:  10,
		AppName:       "app-management-console",
	}
}

// Collector deduplicates, batches, and ships fault reports.
type Collector struct {
	cfg        ConstructorConfig
	httpClient *http.Client
	logger     *logging.Logger
	metrics    *metric.Metrics
	now        func() time.Time

	mu          sync.Mutex
	initialized bool
	queue       []Fault
	sent        map[string]time.Time // dedupe key -> last accepted
	flushTimer  *time.Timer
}

// New creates a Collector. Call Init before collecting.
func New(cfg ConstructorConfig) *Collector {
	defaults := DefaultConstructorConfig()
	if cfg.DedupeWindow <= 0 {
		cfg.DedupeWindow = defaults.DedupeWindow
	}
	if cfg.BatchInterval <= 0 {
		cfg.BatchInterval = defaults.BatchInterval
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = defaults.MaxBatchSize
	}
	if cfg.AppName == "" {
		cfg.AppName = defaults.AppName
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New(nil)
	}

	return &Collector{
		cfg:        cfg,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		now:        time.Now,
		sent:       make(map[string]time.Time),
	}
}

// Init marks the collector ready. Calling it again is a no-op.
func (c *Collector) Init() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return
	}
	c.initialized = true
	c.logger.Info("ErrorCollector", "Initialized", nil)
}

// CollectAPIError converts a terminal API failure into a fault report.
// It implements the HTTP client core's FaultSink.
func (c *Collector) CollectAPIError(apiErr *errors.APIError) {
	if apiErr == nil {
		return
	}
	c.Collect(Fault{
		Type:       TypeAPIError,
		Method:     apiErr.Method,
		URL:        apiErr.URL,
		Status:     apiErr.Status,
		StatusText: http.StatusText(apiErr.Status),
		Message:    apiErr.Message,
		ErrorCode:  int(apiErr.EnvelopeCode),
		Request:    sanitize(apiErr.RequestBody),
		Response:   apiErr.ResponseBody,
	})
}

// Report is the manual entry point, feeding the same pipeline as automatic
// collection.
func (c *Collector) Report(message string, extra map[string]any) {
	c.Collect(Fault{Type: TypeManualReport, Message: message, Extra: extra})
}

// Collect assigns identity to a fault, applies the dedupe window, enqueues
// it, and arms the flush timer. A full queue flushes immediately instead of
// waiting.
func (c *Collector) Collect(fault Fault) {
	if !c.cfg.Enabled {
		return
	}

	fault.ID = uuid.NewString()
	fault.Timestamp = c.now()
	if fault.URL == "" {
		fault.URL = c.cfg.PageURL
	}
	if fault.UserAgent == "" {
		fault.UserAgent = c.cfg.UserAgent
	}

	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return
	}

	key := fault.dedupeKey()
	if last, ok := c.sent[key]; ok && c.now().Sub(last) < c.cfg.DedupeWindow {
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.FaultsDeduped.Inc()
		}
		return
	}
	c.pruneSentLocked()
	c.sent[key] = c.now()
	c.queue = append(c.queue, fault)
	depth := len(c.queue)

	flushNow := depth >= c.cfg.MaxBatchSize
	if !flushNow && c.flushTimer == nil {
		c.flushTimer = time.AfterFunc(c.cfg.BatchInterval, func() {
			_ = c.Flush(context.Background())
		})
	}
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.FaultsCollected.Inc()
		c.metrics.FaultQueueDepth.Set(float64(depth))
	}
	if flushNow {
		_ = c.Flush(context.Background())
	}
}

// pruneSentLocked drops expired dedupe signatures so the map stays bounded
// by the fault rate within one window.
func (c *Collector) pruneSentLocked() {
	if len(c.sent) < 256 {
		return
	}
	cutoff := c.now().Add(-c.cfg.DedupeWindow)
	for key, last := range c.sent {
		if last.Before(cutoff) {
			delete(c.sent, key)
		}
	}
}

// reportPayload is the wire format of a batch flush.
type reportPayload struct {
	Errors   []Fault        `json:"errors"`
	Metadata reportMetadata `json:"metadata"`
}

type reportMetadata struct {
	AppName     string    `json:"appName"`
	Environment string    `json:"environment"`
	Timestamp   time.Time `json:"timestamp"`
	TotalErrors int       `json:"totalErrors"`
}

// Flush sends up to one batch of queued faults. On delivery failure the
// batch is requeued at the front in its original order and the flush timer
// is rearmed.
func (c *Collector) Flush(ctx context.Context) error {
	c.mu.Lock()
	if c.flushTimer != nil {
		c.flushTimer.Stop()
		c.flushTimer = nil
	}
	if len(c.queue) == 0 {
		c.mu.Unlock()
		return nil
	}

	size := c.cfg.MaxBatchSize
	if size > len(c.queue) {
		size = len(c.queue)
	}
	batch := make([]Fault, size)
	copy(batch, c.queue[:size])
	c.queue = append([]Fault(nil), c.queue[size:]...)
	c.mu.Unlock()

	err := c.deliver(ctx, batch)

	c.mu.Lock()
	if err != nil {
		c.queue = append(batch, c.queue...)
	}
	remaining := len(c.queue)
	if remaining > 0 && c.flushTimer == nil {
		c.flushTimer = time.AfterFunc(c.cfg.BatchInterval, func() {
			_ = c.Flush(context.Background())
		})
	}
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.FaultQueueDepth.Set(float64(remaining))
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		c.metrics.FlushesTotal.WithLabelValues(outcome).Inc()
	}

	if err != nil {
		c.logger.Warn("ErrorCollector", "Failed to send errors: "+err.Error(), nil)
		return err
	}
	c.logger.Info("ErrorCollector", fmt.Sprintf("Sent %d errors", len(batch)), nil)
	return nil
}

// deliver posts one batch to the report endpoint.
func (c *Collector) deliver(ctx context.Context, batch []Fault) error {
	payload := reportPayload{
		Errors: batch,
		Metadata: reportMetadata{
			AppName:     c.cfg.AppName,
			Environment: c.environment(),
			Timestamp:   c.now(),
			TotalErrors: len(batch),
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "collector", "deliver", "payload encoding")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "collector", "deliver", "request construction")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Tokens != nil {
		if token, ok := c.cfg.Tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "collector", "deliver", "report delivery")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Wrap(
			fmt.Errorf("report endpoint returned status %d", resp.StatusCode),
			"collector", "deliver", "report delivery")
	}
	return nil
}

func (c *Collector) environment() string {
	if strings.Contains(c.cfg.Hostname, "localhost") {
		return "development"
	}
	return "production"
}

// Errors returns a snapshot of the pending queue.
func (c *Collector) Errors() []Fault {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Fault(nil), c.queue...)
}

// Clear drops all pending faults and dedupe state.
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = nil
	c.sent = make(map[string]time.Time)
}

// Close stops the flush timer and drains the queue with best-effort
// flushes, stopping at the first delivery failure.
func (c *Collector) Close(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.flushTimer != nil {
			c.flushTimer.Stop()
			c.flushTimer = nil
		}
		pending := len(c.queue)
		c.mu.Unlock()

		if pending == 0 {
			return nil
		}
		if err := c.Flush(ctx); err != nil {
			return err
		}
	}
}
