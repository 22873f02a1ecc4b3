// Package collector implements the client-side fault reporter: it accepts
// fault records (API failures forwarded by the HTTP client core, runtime
// faults, manual reports), deduplicates them by signature within a rolling
// window, batches them, and flushes batches to the console backend's
// error-report endpoint. A failed flush requeues the batch at the front so
// no accepted fault is dropped while the process lives; unflushed faults do
// not survive process exit.
package collector
