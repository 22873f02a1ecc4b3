// Package retry provides the exponential backoff policy used by the HTTP
// client core and the fault collector. The client owns its retry loop
// (eligibility depends on HTTP status and envelope code per attempt) and
// uses Config only to compute delays; Do is the generic loop for callers
// with a simple retry-everything-transient policy.
package retry
