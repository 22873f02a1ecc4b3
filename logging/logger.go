package logging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360/consoleclient/pkg/ring"
)

// MaxEntries is the capacity of each ring buffer.
const MaxEntries = 200

// Environment is the metadata attached to exported log documents.
type Environment struct {
	UserAgent string `json:"userAgent"`
	URL       string `json:"url"`
}

// Logger collects structured entries into bounded ring buffers and mirrors
// every entry to slog.
type Logger struct {
	logs     *ring.Buffer[Entry]
	errors   *ring.Buffer[Entry]
	requests *ring.Buffer[RequestEntry]
	sink     *slog.Logger
	env      Environment
	now      func() time.Time
}

// Option configures a Logger.
type Option func(*Logger)

// WithEnvironment sets the metadata included in exported documents.
func WithEnvironment(env Environment) Option {
	return func(l *Logger) {
		l.env = env
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		l.now = now
	}
}

// New creates a Logger mirroring to the given slog logger. A nil sink uses
// slog.Default.
func New(sink *slog.Logger, opts ...Option) *Logger {
	if sink == nil {
		sink = slog.Default()
	}
	l := &Logger{
		logs:     ring.New[Entry](MaxEntries),
		errors:   ring.New[Entry](MaxEntries),
		requests: ring.New[RequestEntry](MaxEntries),
		sink:     sink,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log appends an entry at the given level. Error entries are additionally
// copied into the errors buffer.
func (l *Logger) Log(level Level, module, message string, data any) Entry {
	entry := Entry{
		ID:        newEntryID(l.now()),
		Timestamp: l.now(),
		Level:     level,
		Module:    module,
		Message:   message,
		Data:      data,
	}

	l.logs.Append(entry)
	if level == LevelError {
		l.errors.Append(entry)
	}

	attrs := []any{"module", module, "entry_id", entry.ID}
	if data != nil {
		attrs = append(attrs, "data", data)
	}
	switch level {
	case LevelError:
		l.sink.Error(message, attrs...)
	case LevelWarn:
		l.sink.Warn(message, attrs...)
	case LevelDebug:
		l.sink.Debug(message, attrs...)
	default:
		l.sink.Info(message, attrs...)
	}

	return entry
}

// Debug logs at debug level.
func (l *Logger) Debug(module, message string, data any) Entry {
	return l.Log(LevelDebug, module, message, data)
}

// Info logs at info level.
func (l *Logger) Info(module, message string, data any) Entry {
	return l.Log(LevelInfo, module, message, data)
}

// Warn logs at warn level.
func (l *Logger) Warn(module, message string, data any) Entry {
	return l.Log(LevelWarn, module, message, data)
}

// Error logs at error level.
func (l *Logger) Error(module, message string, data any) Entry {
	return l.Log(LevelError, module, message, data)
}

// LogRequest records an outbound request. The Authorization header value is
// replaced with a redaction marker before storage.
func (l *Logger) LogRequest(rec RequestRecord) RequestEntry {
	if rec.Headers != nil {
		if _, ok := rec.Headers["Authorization"]; ok {
			headers := make(map[string]string, len(rec.Headers))
			for k, v := range rec.Headers {
				headers[k] = v
			}
			headers["Authorization"] = "[REDACTED]"
			rec.Headers = headers
		}
	}

	entry := RequestEntry{
		ID:            newEntryID(l.now()),
		Timestamp:     l.now(),
		Type:          "request",
		RequestRecord: rec,
	}
	l.requests.Append(entry)

	retryInfo := ""
	if rec.RetryCount > 0 {
		retryInfo = fmt.Sprintf(" (retry #%d)", rec.RetryCount)
	}
	l.Info("API", fmt.Sprintf("Request: %s %s%s", rec.Method, rec.URL, retryInfo), map[string]any{"params": rec.Params})

	return entry
}

// LogResponse records an inbound response, computing duration against the
// matching request entry when provided.
func (l *Logger) LogResponse(rec ResponseRecord, requestEntry *RequestEntry) Entry {
	var duration time.Duration
	if requestEntry != nil {
		duration = l.now().Sub(requestEntry.Timestamp)
	}

	return l.Info("API",
		fmt.Sprintf("Response: %s %s - %d [code:%d] (%dms)",
			rec.Method, rec.URL, rec.Status, rec.EnvelopeCode, duration.Milliseconds()),
		map[string]any{
			"status":   rec.Status,
			"code":     rec.EnvelopeCode,
			"dataSize": rec.DataSize,
			"duration": duration.Milliseconds(),
		})
}

// LogAPIError records a terminal request failure.
func (l *Logger) LogAPIError(rec APIErrorRecord) Entry {
	return l.Error("API",
		fmt.Sprintf("Error: %s %s - %d: %s", rec.Method, rec.URL, rec.Status, rec.Message),
		rec)
}

// Logs returns all buffered entries, oldest first.
func (l *Logger) Logs() []Entry {
	return l.logs.Snapshot()
}

// Errors returns buffered error entries, oldest first.
func (l *Logger) Errors() []Entry {
	return l.errors.Snapshot()
}

// Requests returns buffered request entries, oldest first.
func (l *Logger) Requests() []RequestEntry {
	return l.requests.Snapshot()
}

// RecentErrors returns up to n of the newest error entries.
func (l *Logger) RecentErrors(n int) []Entry {
	return l.errors.Recent(n)
}

// RecentRequests returns up to n of the newest request entries.
func (l *Logger) RecentRequests(n int) []RequestEntry {
	return l.requests.Recent(n)
}

// exportDocument is the serialized form produced by Export.
type exportDocument struct {
	ExportTime time.Time      `json:"exportTime"`
	UserAgent  string         `json:"userAgent"`
	URL        string         `json:"url"`
	Logs       []Entry        `json:"logs"`
	Errors     []Entry        `json:"errors"`
	Requests   []RequestEntry `json:"requests"`
}

// Export serializes all three buffers plus environment metadata as an
// indented JSON document. Entries whose Data cannot be marshalled are
// exported with the data replaced by its string form; Export itself never
// fails.
func (l *Logger) Export() []byte {
	doc := exportDocument{
		ExportTime: l.now(),
		UserAgent:  l.env.UserAgent,
		URL:        l.env.URL,
		Logs:       sanitizeEntries(l.logs.Snapshot()),
		Errors:     sanitizeEntries(l.errors.Snapshot()),
		Requests:   l.requests.Snapshot(),
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		fallback := exportDocument{ExportTime: doc.ExportTime, UserAgent: doc.UserAgent, URL: doc.URL}
		out, _ = json.MarshalIndent(fallback, "", "  ")
	}
	return out
}

func sanitizeEntries(entries []Entry) []Entry {
	for i, e := range entries {
		if e.Data == nil {
			continue
		}
		if _, err := json.Marshal(e.Data); err != nil {
			entries[i].Data = fmt.Sprintf("%v", e.Data)
		}
	}
	return entries
}

// Clear empties all buffers and records the fact.
func (l *Logger) Clear() {
	l.logs.Clear()
	l.errors.Clear()
	l.requests.Clear()
	l.Info("System", "Logs cleared", nil)
}
