package collector

import (
	"strings"
	"time"
)

// FaultType tags the origin of a collected fault.
type FaultType string

// Fault origins
const (
	TypeJSError          FaultType = "js_error"
	TypePromiseRejection FaultType = "promise_rejection"
	TypeResourceError    FaultType = "resource_error"
	TypeConsoleError     FaultType = "console_error"
	TypeAPIError         FaultType = "api_error"
	TypeManualReport     FaultType = "manual_report"
)

// Fault is one collected fault report. For API faults URL carries the
// request URL rather than the page URL.
type Fault struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	URL        string         `json:"url"`
	UserAgent  string         `json:"userAgent"`
	Type       FaultType      `json:"type"`
	Message    string         `json:"message"`
	Filename   string         `json:"filename,omitempty"`
	Stack      string         `json:"stack,omitempty"`
	Method     string         `json:"method,omitempty"`
	Status     int            `json:"status,omitempty"`
	StatusText string         `json:"statusText,omitempty"`
	ErrorCode  int            `json:"errorCode,omitempty"`
	Request    map[string]any `json:"requestData,omitempty"`
	Response   any            `json:"responseData,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// dedupeKey is the composite signature used to suppress repeats.
func (f Fault) dedupeKey() string {
	return string(f.Type) + ":" + f.Message + ":" + f.URL + ":" + f.Filename
}

// sensitiveFields are redacted from request bodies before a fault leaves
// the process.
var sensitiveFields = map[string]struct{}{
	"password":      {},
	"token":         {},
	"secret":        {},
	"key":           {},
	"authorization": {},
}

// sanitize returns a copy of data with sensitive field values replaced by a
// redaction marker.
func sanitize(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		if _, sensitive := sensitiveFields[strings.ToLower(k)]; sensitive {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = v
	}
	return out
}
