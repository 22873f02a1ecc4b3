// Package ring provides a small thread-safe bounded FIFO buffer that drops
// the oldest entry on overflow. The logging package uses it for its capped
// log, error, and request histories.
package ring
