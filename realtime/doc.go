// Package realtime implements the console's server-push channel: a
// reconnecting, heartbeating WebSocket client that fans typed events
// (monitor samples, alerts, notifications, log lines) out to subscribers.
//
// The channel moves through disconnected, connecting, connected,
// reconnecting, and given-up states. A lost connection is retried at a
// fixed interval up to a maximum attempt count; exceeding it emits
// maxReconnectReached once and leaves the channel idle until Connect is
// called again. Inbound frames may carry several newline-delimited JSON
// messages; each is parsed and dispatched independently and in order, and
// a panicking subscriber never prevents delivery to the rest.
package realtime
