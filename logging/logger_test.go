package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(opts ...Option) *Logger {
	sink := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(sink, opts...)
}

func TestLog_AppendsAndAssignsIdentity(t *testing.T) {
	l := newTestLogger()

	entry := l.Info("API", "hello", map[string]any{"k": "v"})
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, LevelInfo, entry.Level)
	assert.Equal(t, "API", entry.Module)

	logs := l.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, entry.ID, logs[0].ID)
	assert.Empty(t, l.Errors())
}

func TestLog_ErrorsMirroredToErrorBuffer(t *testing.T) {
	l := newTestLogger()

	l.Info("API", "fine", nil)
	entry := l.Error("API", "broken", nil)

	require.Len(t, l.Logs(), 2)
	errs := l.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, entry.ID, errs[0].ID)
}

func TestLog_BuffersCappedFIFO(t *testing.T) {
	l := newTestLogger()

	for i := 0; i < MaxEntries+50; i++ {
		l.Error("Test", fmt.Sprintf("message-%d", i), nil)
	}

	logs := l.Logs()
	errs := l.Errors()
	require.Len(t, logs, MaxEntries)
	require.Len(t, errs, MaxEntries)
	// Oldest entries were evicted first.
	assert.Equal(t, "message-50", logs[0].Message)
	assert.Equal(t, fmt.Sprintf("message-%d", MaxEntries+49), logs[MaxEntries-1].Message)
}

func TestLogRequest_RedactsAuthorization(t *testing.T) {
	l := newTestLogger()

	entry := l.LogRequest(RequestRecord{
		Method:  "POST",
		URL:     "/apps",
		FullURL: "https://api.example.com/api/v1/apps",
		Headers: map[string]string{
			"Authorization": "Bearer secret-token",
			"Content-Type":  "application/json",
		},
	})

	assert.Equal(t, "[REDACTED]", entry.Headers["Authorization"])
	assert.Equal(t, "application/json", entry.Headers["Content-Type"])
	assert.Equal(t, "request", entry.Type)

	stored := l.Requests()
	require.Len(t, stored, 1)
	assert.Equal(t, "[REDACTED]", stored[0].Headers["Authorization"])
}

func TestLogResponse_ComputesDuration(t *testing.T) {
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newTestLogger(WithClock(func() time.Time { return current }))

	req := l.LogRequest(RequestRecord{Method: "GET", URL: "/apps"})
	current = current.Add(250 * time.Millisecond)

	entry := l.LogResponse(ResponseRecord{Method: "GET", URL: "/apps", Status: 200}, &req)
	data, ok := entry.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(250), data["duration"])
	assert.Contains(t, entry.Message, "(250ms)")
}

func TestLogAPIError_StoredInBothBuffers(t *testing.T) {
	l := newTestLogger()

	entry := l.LogAPIError(APIErrorRecord{
		Method: "GET", URL: "/apps", Status: 502, Message: "bad gateway",
	})

	assert.Equal(t, LevelError, entry.Level)
	require.Len(t, l.Errors(), 1)
	rec, ok := l.Errors()[0].Data.(APIErrorRecord)
	require.True(t, ok)
	assert.Equal(t, 502, rec.Status)
}

func TestExport_Document(t *testing.T) {
	l := newTestLogger(WithEnvironment(Environment{
		UserAgent: "consoleclient-test",
		URL:       "https://console.example.com/apps",
	}))

	l.Info("System", "started", nil)
	l.Error("API", "failed", nil)
	l.LogRequest(RequestRecord{Method: "GET", URL: "/apps"})

	var doc map[string]any
	require.NoError(t, json.Unmarshal(l.Export(), &doc))

	assert.Equal(t, "consoleclient-test", doc["userAgent"])
	assert.Equal(t, "https://console.example.com/apps", doc["url"])
	assert.NotEmpty(t, doc["exportTime"])
	// Request logging emits an info entry too.
	assert.Len(t, doc["logs"], 3)
	assert.Len(t, doc["errors"], 1)
	assert.Len(t, doc["requests"], 1)
}

func TestExport_UnmarshalableDataDowngradedToString(t *testing.T) {
	l := newTestLogger()
	l.Info("Test", "bad payload", func() {})

	var doc map[string]any
	require.NoError(t, json.Unmarshal(l.Export(), &doc))
}

func TestClear_EmptiesAllBuffers(t *testing.T) {
	l := newTestLogger()
	l.Error("API", "x", nil)
	l.LogRequest(RequestRecord{Method: "GET", URL: "/x"})

	l.Clear()

	// Clear itself logs one entry.
	require.Len(t, l.Logs(), 1)
	assert.Equal(t, "Logs cleared", l.Logs()[0].Message)
	assert.Empty(t, l.Errors())
	assert.Empty(t, l.Requests())
}

func TestRecentAccessors(t *testing.T) {
	l := newTestLogger()
	for i := 0; i < 5; i++ {
		l.Error("Test", fmt.Sprintf("e%d", i), nil)
	}

	recent := l.RecentErrors(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "e3", recent[0].Message)
	assert.Equal(t, "e4", recent[1].Message)
}

func TestEntryIDs_Unique(t *testing.T) {
	l := newTestLogger()
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		entry := l.Info("Test", "m", nil)
		assert.False(t, seen[entry.ID], "duplicate id %s", entry.ID)
		seen[entry.ID] = true
	}
}
