// Package logging provides the pipeline's structured in-memory logger:
// three bounded ring buffers (all entries, errors only, requests only),
// each capped at 200 entries with oldest-first eviction, mirrored to a
// slog handler. The buffers exist so a failing deployment can be diagnosed
// from an exported JSON document without server-side tooling; entry ids
// double as correlation ids in user-facing error notifications.
//
// Logging never returns an error and never blocks the caller beyond a
// buffer mutex.
package logging
