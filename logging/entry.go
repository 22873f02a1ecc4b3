package logging

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log entry.
type Level string

// Log levels
const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Entry is a single structured log record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Module    string    `json:"module"`
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
}

// RequestRecord describes an outbound request for logging. Headers carries
// only what is safe to retain; the logger redacts Authorization itself.
type RequestRecord struct {
	Method     string            `json:"method"`
	URL        string            `json:"url"`
	FullURL    string            `json:"fullUrl"`
	Params     map[string]string `json:"params,omitempty"`
	Body       any               `json:"body,omitempty"`
	RetryCount int               `json:"retryCount"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// RequestEntry is a stored request record with identity and timing.
type RequestEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	RequestRecord
}

// ResponseRecord describes an inbound response for logging.
type ResponseRecord struct {
	Method       string `json:"method"`
	URL          string `json:"url"`
	Status       int    `json:"status"`
	StatusText   string `json:"statusText"`
	EnvelopeCode int    `json:"code"`
	DataSize     int    `json:"dataSize"`
}

// APIErrorRecord describes a terminal request failure for logging.
type APIErrorRecord struct {
	Method       string `json:"method"`
	URL          string `json:"url"`
	Status       int    `json:"status,omitempty"`
	StatusText   string `json:"statusText,omitempty"`
	Message      string `json:"message"`
	EnvelopeCode int    `json:"errorCode,omitempty"`
	ResponseBody any    `json:"responseData,omitempty"`
	RetryCount   int    `json:"retryCount"`
}

const idSuffixLen = 9

var (
	idRandMu sync.Mutex
	idRand   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// newEntryID builds a time-ordered unique id: epoch millis plus a random
// base-36 suffix. The id appears in user-facing notifications, so it stays
// short and copy-pasteable.
func newEntryID(now time.Time) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

	var sb strings.Builder
	sb.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	sb.WriteByte('-')

	idRandMu.Lock()
	for i := 0; i < idSuffixLen; i++ {
		sb.WriteByte(alphabet[idRand.Intn(len(alphabet))])
	}
	idRandMu.Unlock()

	return sb.String()
}
