// Package errors defines the error-code taxonomy shared with the console
// backend and the classified error types produced by the request pipeline.
//
// Codes are partitioned by range: 0 is success, 1000s are generic faults,
// 2000s are authentication faults, 3000s are generic business faults, and
// 4000s and above are domain-specific (apps, users, modules). Predicates
// over a code (IsAuthCode, IsRetryableCode, IsRateLimitCode) drive the
// client's retry and presentation decisions.
//
// APIError carries everything known about a failed request — method, URL,
// HTTP status, envelope code, server message, attempt count — so callers and
// the fault collector can inspect terminal failures. Silent marks an error
// as suppressed: it is never logged, never presented, and never retried.
package errors
