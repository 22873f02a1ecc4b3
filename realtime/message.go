package realtime

import "encoding/json"

// State is the channel's connection state.
type State string

// Channel states
const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateGivenUp      State = "given-up"
)

// Event names emitted to subscribers. Message types from the server map
// onto the equally-named events; unrecognized types fall back to
// EventMessage.
const (
	EventConnected           = "connected"
	EventDisconnected        = "disconnected"
	EventError               = "error"
	EventMaxReconnectReached = "maxReconnectReached"
	EventMonitor             = "monitor"
	EventAlert               = "alert"
	EventNotification        = "notification"
	EventLog                 = "log"
	EventMessage             = "message"
)

// Message is one server frame entry: {type, data, timestamp}.
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

// outbound is the wire shape of client-to-server messages.
type outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// alertPayload is the subset of an alert event used for system
// notifications.
type alertPayload struct {
	ID      json.Number `json:"id"`
	Level   string      `json:"level"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
}

// notificationPayload is the subset of a notification event used for
// system notifications.
type notificationPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// levelIcons maps alert severity to the icon prefixed to system
// notification titles.
var levelIcons = map[string]string{
	"critical": "\U0001F534", // red circle
	"warning":  "\U0001F7E1", // yellow circle
	"info":     "\U0001F535", // blue circle
}

const defaultLevelIcon = "⚪" // white circle

func alertIcon(level string) string {
	if icon, ok := levelIcons[level]; ok {
		return icon
	}
	return defaultLevelIcon
}
