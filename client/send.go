package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/c360/consoleclient/errors"
	"github.com/c360/consoleclient/logging"
	"github.com/c360/consoleclient/metric"
	"github.com/c360/consoleclient/pkg/retry"
	"github.com/c360/consoleclient/platform"
)

// retryStatuses are the HTTP statuses worth retrying. 429 is deliberately
// absent: throttling gets an immediate notice and rejection instead of
// hammering the backend harder (see DESIGN.md).
var retryStatuses = map[int]struct{}{
	http.StatusRequestTimeout:      {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// retryState is the mutable per-logical-request retry bookkeeping. One
// value lives for the whole Send call; attempts are strictly sequential.
type retryState struct {
	attempts int
}

func (c *Client) send(ctx context.Context, req Request, retryCfg retry.Config) (json.RawMessage, error) {
	if err := checkAdmission(req); err != nil {
		c.logger.Warn("API", fmt.Sprintf("Request blocked: empty app_id for %s", req.Path), nil)
		if c.metrics != nil {
			c.metrics.AdmissionRejects.Inc()
		}
		return nil, errors.Silent(err)
	}

	start := time.Now()
	state := &retryState{}
	for {
		data, err := c.attempt(ctx, req, state.attempts)
		if err == nil {
			c.observe(req.Method, metric.OutcomeSuccess, start)
			return data, nil
		}

		// Business errors from a 2xx envelope present themselves inside
		// attempt and are never retried.
		if retry.IsNonRetryable(err) {
			c.observe(req.Method, metric.OutcomeBusiness, start)
			return nil, err
		}

		apiErr, ok := errors.AsAPIError(err)
		if !ok {
			return nil, err
		}
		apiErr.Attempts = state.attempts

		if c.shouldRetry(ctx, apiErr, state, retryCfg) {
			state.attempts++
			delay := retryCfg.Delay(state.attempts - 1)

			c.logger.Warn("API",
				fmt.Sprintf("Retrying request (%d/%d) after %s", state.attempts, retryCfg.MaxRetries, delay),
				map[string]any{"url": req.Path, "status": apiErr.Status})
			c.notifier.Toast(platform.ToastInfo,
				fmt.Sprintf("Network issue, retrying (%d/%d)...", state.attempts, retryCfg.MaxRetries))
			if c.metrics != nil {
				c.metrics.RetriesTotal.Inc()
			}

			if sleepErr := retry.Sleep(ctx, delay); sleepErr != nil {
				// Caller cancelled during backoff: terminal, no presentation.
				apiErr.Err = sleepErr
				return nil, apiErr
			}
			continue
		}

		c.observe(req.Method, outcomeFor(apiErr), start)
		return nil, c.handleTerminal(req, apiErr)
	}
}

// attempt performs one transmission. The returned error is either a
// retry.NonRetryable-wrapped business error (already presented) or an
// *errors.APIError awaiting retry evaluation.
func (c *Client) attempt(ctx context.Context, req Request, attempts int) (json.RawMessage, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	fullURL := c.baseURL + req.Path
	if len(req.Params) > 0 {
		query := url.Values{}
		for k, v := range req.Params {
			query.Set(k, v)
		}
		fullURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, retry.NonRetryable(errors.Wrap(err, "client", "attempt", "body encoding"))
		}
		bodyReader = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, fullURL, bodyReader)
	if err != nil {
		return nil, retry.NonRetryable(errors.Wrap(err, "client", "attempt", "request construction"))
	}

	headers := map[string]string{}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
		headers[k] = v
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
		headers["Content-Type"] = "application/json"
	}
	if token, ok := c.tokens.Token(); ok {
		httpReq.Header.Set("Authorization", "Bearer "+token)
		headers["Authorization"] = "Bearer " + token
	}

	requestEntry := c.logger.LogRequest(logging.RequestRecord{
		Method:     req.Method,
		URL:        req.Path,
		FullURL:    fullURL,
		Params:     req.Params,
		Body:       req.Body,
		RetryCount: attempts,
		Headers:    headers,
	})

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportError(ctx, attemptCtx, req, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, attemptCtx, req, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return c.handleSuccess(req, resp, body, &requestEntry)
	}

	apiErr := &errors.APIError{
		Method:      req.Method,
		URL:         req.Path,
		Status:      resp.StatusCode,
		Message:     http.StatusText(resp.StatusCode),
		RequestBody: req.Body,
	}
	if env, ok := parseEnvelope(body); ok {
		apiErr.EnvelopeCode = *env.Code
		if env.Message != "" {
			apiErr.Message = env.Message
		}
		apiErr.ResponseBody = json.RawMessage(body)
	} else if len(body) > 0 {
		apiErr.ResponseBody = string(body)
	}
	return nil, apiErr
}

// handleSuccess processes a 2xx response: unwrap the envelope, or classify
// and present a business failure.
func (c *Client) handleSuccess(
	req Request, resp *http.Response, body []byte, requestEntry *logging.RequestEntry,
) (json.RawMessage, error) {
	env, isEnvelope := parseEnvelope(body)

	code := 0
	if isEnvelope {
		code = int(*env.Code)
	}
	c.logger.LogResponse(logging.ResponseRecord{
		Method:       req.Method,
		URL:          req.Path,
		Status:       resp.StatusCode,
		StatusText:   resp.Status,
		EnvelopeCode: code,
		DataSize:     len(body),
	}, requestEntry)

	// Legacy responses without the envelope shape pass through untouched.
	if !isEnvelope {
		return body, nil
	}

	if *env.Code == errors.Success {
		if env.Data != nil {
			return env.Data, nil
		}
		return body, nil
	}

	errorCode := *env.Code
	message := env.Message
	if message == "" {
		message = errors.Message(errorCode)
	}

	apiErr := &errors.APIError{
		Method:       req.Method,
		URL:          req.Path,
		Status:       resp.StatusCode,
		EnvelopeCode: errorCode,
		Message:      message,
		RequestBody:  req.Body,
		ResponseBody: json.RawMessage(body),
	}

	switch {
	case errors.IsAuthCode(errorCode):
		c.handleAuthError(errorCode, message)
	case errors.IsRateLimitCode(errorCode):
		c.notifier.Toast(platform.ToastWarning, errors.Message(errors.RateLimited))
	default:
		c.notifier.Toast(platform.ToastError, message)
	}
	return nil, retry.NonRetryable(apiErr)
}

// transportError classifies a failure that produced no HTTP response.
func (c *Client) transportError(ctx, attemptCtx context.Context, req Request, err error) *errors.APIError {
	message := errors.Message(errors.NetworkError)
	cause := err
	switch {
	case ctx.Err() != nil:
		message = errors.ErrRequestCancelled.Error()
		cause = fmt.Errorf("%w: %w", errors.ErrRequestCancelled, err)
	case attemptCtx.Err() == context.DeadlineExceeded:
		message = errors.Message(errors.TimeoutError)
	}
	return &errors.APIError{
		Method:      req.Method,
		URL:         req.Path,
		Message:     message,
		RequestBody: req.Body,
		Err:         cause,
	}
}

// shouldRetry implements the retry-eligibility policy over one failed
// attempt.
func (c *Client) shouldRetry(ctx context.Context, apiErr *errors.APIError, state *retryState, cfg retry.Config) bool {
	if state.attempts >= cfg.MaxRetries {
		return false
	}
	if ctx.Err() != nil || errors.Is(apiErr.Err, errors.ErrRequestCancelled) {
		return false
	}
	// Network-level failure with no response at all.
	if !apiErr.HasResponse() {
		return true
	}
	if _, ok := retryStatuses[apiErr.Status]; ok {
		return true
	}
	return errors.IsRetryableCode(apiErr.EnvelopeCode)
}

// handleTerminal runs once per terminal failure: log, report, present, and
// hand the original error back to the caller.
func (c *Client) handleTerminal(req Request, apiErr *errors.APIError) error {
	// Caller cancellation is surfaced without presentation or reporting.
	if errors.Is(apiErr.Err, errors.ErrRequestCancelled) {
		return apiErr
	}

	errorEntry := c.logger.LogAPIError(logging.APIErrorRecord{
		Method:       apiErr.Method,
		URL:          apiErr.URL,
		Status:       apiErr.Status,
		Message:      apiErr.Message,
		EnvelopeCode: int(apiErr.EnvelopeCode),
		ResponseBody: apiErr.ResponseBody,
		RetryCount:   apiErr.Attempts,
	})

	if c.faults != nil {
		c.faults.CollectAPIError(apiErr)
	}

	message := apiErr.Message
	if message == "" {
		if apiErr.EnvelopeCode != errors.Success {
			message = errors.Message(apiErr.EnvelopeCode)
		} else {
			message = "request failed"
		}
	}

	switch {
	case apiErr.Status == http.StatusUnauthorized || errors.IsAuthCode(apiErr.EnvelopeCode):
		code := apiErr.EnvelopeCode
		if !errors.IsAuthCode(code) {
			code = errors.Unauthorized
		}
		c.handleAuthError(code, message)
		return apiErr

	case apiErr.Status == http.StatusForbidden:
		c.notifier.Toast(platform.ToastError, errors.Message(errors.PermissionDenied))

	case apiErr.Status == http.StatusNotFound:
		c.notifier.Toast(platform.ToastError, "API endpoint not found")

	case apiErr.Status == http.StatusTooManyRequests:
		c.notifier.Toast(platform.ToastWarning, errors.Message(errors.RateLimited))

	case apiErr.Status >= http.StatusInternalServerError:
		c.notifier.Notify("System Error", message, errorEntry.ID)

	case !apiErr.HasResponse() && errors.Is(apiErr.Err, context.DeadlineExceeded):
		c.notifier.Notify("System Error", errors.Message(errors.TimeoutError), errorEntry.ID)

	case !apiErr.HasResponse():
		c.notifier.Notify("System Error", message, errorEntry.ID)

	default:
		c.notifier.Toast(platform.ToastError, message)
	}

	return apiErr
}

// handleAuthError implements the auth-error procedure. Permission denial
// presents a message and returns; session faults clear the token and
// schedule the login redirect after a short delay so the user can read the
// message.
func (c *Client) handleAuthError(code errors.Code, message string) {
	switch code {
	case errors.TokenExpired, errors.TokenInvalid, errors.Unauthorized:
		message = errors.Message(code)
	case errors.PermissionDenied:
		c.notifier.Toast(platform.ToastError, errors.Message(errors.PermissionDenied))
		return
	}

	c.notifier.Toast(platform.ToastError, message)
	c.tokens.ClearToken()

	time.AfterFunc(c.loginRedirectDelay, c.navigator.NavigateToLogin)
}

func outcomeFor(apiErr *errors.APIError) string {
	if !apiErr.HasResponse() {
		return metric.OutcomeNetwork
	}
	return metric.OutcomeHTTP
}

func (c *Client) observe(method, outcome string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.RequestsTotal.WithLabelValues(method, outcome).Inc()
	c.metrics.RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
