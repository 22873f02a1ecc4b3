// Package consoleclient is the Go client SDK for the application-management
// console backend. It reproduces the console's request pipeline: base-URL
// resolution per deployment environment, bearer-token attachment, response
// envelope unwrapping, error-code classification, retry with exponential
// backoff, structured request/response logging, batched fault reporting, and
// a reconnecting heartbeating realtime channel for server-pushed events.
//
// # Architecture
//
// The module is organized as small composable packages:
//
//   - errors: the error-code taxonomy shared with the backend, plus the
//     classified error types the pipeline produces
//   - platform: capability interfaces for the ambient environment (host
//     identity, token store, notification surface, navigation) and the
//     base-URL resolver
//   - logging: bounded in-memory ring buffers of log/request/error entries,
//     mirrored to slog and exportable as a JSON document
//   - client: the HTTP client core (admission guard, envelope unwrap,
//     classification, retry loop, presentation routing)
//   - collector: deduplicating, batching fault reporter
//   - realtime: the reconnecting WebSocket channel with typed event fan-out
//   - metric: optional Prometheus metrics registry
//   - config: defaults, environment overrides, and YAML file loading
//
// Every component is an explicitly constructed service object with a
// documented lifecycle; nothing is reached through ambient globals, so the
// whole pipeline is testable against httptest servers.
package consoleclient
