package platform

import (
	"log/slog"
	"strings"
	"sync"
)

// Host identifies the origin the application is served from. It is the
// input to base-URL resolution and realtime channel URL construction.
type Host struct {
	Scheme   string // "http" or "https"
	Hostname string // e.g. "console.example.com"
	Port     string // empty when the origin carries no explicit port
}

// HostPort returns hostname[:port].
func (h Host) HostPort() string {
	if h.Port == "" {
		return h.Hostname
	}
	return h.Hostname + ":" + h.Port
}

// Origin returns scheme://hostname[:port].
func (h Host) Origin() string {
	scheme := h.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + h.HostPort()
}

// IsLoopback reports whether the host is a local development origin.
func (h Host) IsLoopback() bool {
	return h.Hostname == "localhost" || h.Hostname == "127.0.0.1"
}

// IsSecure reports whether the origin uses TLS.
func (h Host) IsSecure() bool {
	return h.Scheme == "https"
}

// HostFromOrigin parses "scheme://hostname[:port]" into a Host. Malformed
// input yields a best-effort result rather than an error; resolution always
// has to produce some URL.
func HostFromOrigin(origin string) Host {
	h := Host{Scheme: "http"}
	rest := origin
	if i := strings.Index(rest, "://"); i >= 0 {
		h.Scheme = rest[:i]
		rest = rest[i+3:]
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.LastIndex(rest, ":"); i >= 0 {
		h.Hostname = rest[:i]
		h.Port = rest[i+1:]
	} else {
		h.Hostname = rest
	}
	return h
}

// TokenStore holds the session bearer token. Absence means unauthenticated.
type TokenStore interface {
	Token() (string, bool)
	SetToken(token string)
	ClearToken()
}

// MemoryTokenStore is the default in-process TokenStore.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
	set   bool
}

// NewMemoryTokenStore creates an empty token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// Token returns the stored token, if any.
func (s *MemoryTokenStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set || s.token == "" {
		return "", false
	}
	return s.token, true
}

// SetToken stores a token.
func (s *MemoryTokenStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.set = token != ""
}

// ClearToken removes the stored token. Clearing an absent token is a no-op.
func (s *MemoryTokenStore) ClearToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.set = false
}

// ToastLevel is the severity of a transient toast message.
type ToastLevel string

// Toast severities
const (
	ToastInfo    ToastLevel = "info"
	ToastWarning ToastLevel = "warning"
	ToastError   ToastLevel = "error"
)

// Notifier is the user-visible presentation surface. Toast shows a
// transient message; Notify shows a persistent notification carrying a
// correlation id for log lookup; SystemNotification raises an OS-level
// notification (realtime alerts), silently dropped when permission is
// absent.
type Notifier interface {
	Toast(level ToastLevel, message string)
	Notify(title, message, correlationID string)
	SystemNotification(title, body, tag string)
}

// Navigator redirects the user, used by the auth-error procedure to reach
// the login entry point after a session fault.
type Navigator interface {
	NavigateToLogin()
}

// LogSurface is a headless Notifier and Navigator backed by slog. It is the
// default for embeddings without a UI (CLIs, tests, services).
type LogSurface struct {
	Logger *slog.Logger
}

// NewLogSurface creates a LogSurface. A nil logger uses slog.Default.
func NewLogSurface(logger *slog.Logger) *LogSurface {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSurface{Logger: logger}
}

// Toast logs a transient message at the matching level.
func (s *LogSurface) Toast(level ToastLevel, message string) {
	switch level {
	case ToastError:
		s.Logger.Error("toast", "message", message)
	case ToastWarning:
		s.Logger.Warn("toast", "message", message)
	default:
		s.Logger.Info("toast", "message", message)
	}
}

// Notify logs a persistent notification.
func (s *LogSurface) Notify(title, message, correlationID string) {
	s.Logger.Error("notification", "title", title, "message", message, "correlation_id", correlationID)
}

// SystemNotification logs an OS-level notification.
func (s *LogSurface) SystemNotification(title, body, tag string) {
	s.Logger.Info("system notification", "title", title, "body", body, "tag", tag)
}

// NavigateToLogin logs the redirect request.
func (s *LogSurface) NavigateToLogin() {
	s.Logger.Warn("navigation to login requested")
}
