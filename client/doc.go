// Package client implements the HTTP client core of the console pipeline.
//
// Send wraps an outbound request with the full interception chain: the
// admission guard (empty app_id is rejected silently before transmission),
// bearer-token attachment, request/response logging, envelope unwrapping,
// error-code classification, and a bounded retry loop with exponential
// backoff. Terminal failures are logged, forwarded to the fault sink, and
// presented to the user exactly once — as a transient toast for routine
// failures, a persistent notification with a correlation id for server
// errors and timeouts, or the auth-error procedure (token clear plus a
// delayed login redirect) for session faults.
//
// SendWithRetry overrides the backoff policy per call; SendBatch dispatches
// a slice of requests under a sliding concurrency window and reports one
// outcome per request without short-circuiting.
package client
