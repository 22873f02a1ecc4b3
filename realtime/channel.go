package realtime

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c360/consoleclient/errors"
	"github.com/c360/consoleclient/logging"
	"github.com/c360/consoleclient/metric"
	"github.com/c360/consoleclient/platform"
)

// ConstructorConfig holds everything needed to construct a Channel.
type ConstructorConfig struct {
	Host                 platform.Host      // Origin the channel connects through
	Path                 string             // Endpoint path under the API prefix (default "/ws")
	HeartbeatInterval    time.Duration      // Ping cadence while connected (default 30s)
	ReconnectInterval    time.Duration      // Fixed delay between reconnect attempts (default 3s)
	MaxReconnectAttempts int                // Consecutive failures before giving up (default 5)
	Logger               *logging.Logger    // Structured logger
	Notifier             platform.Notifier  // System notification surface
	Metrics              *metric.Metrics    // Optional instrumentation
	Dialer               *websocket.Dialer  // Optional dialer override
}

// DefaultConstructorConfig returns the production constants.
func DefaultConstructorConfig() ConstructorConfig {
	return ConstructorConfig{
		Path:                 "/ws",
		HeartbeatInterval:    30 * time.Second,
		ReconnectInterval:    3 * time.Second,
		MaxReconnectAttempts: 5,
	}
}

// Channel is the reconnecting realtime client.
type Channel struct {
	host                 platform.Host
	path                 string
	heartbeatInterval    time.Duration
	reconnectInterval    time.Duration
	maxReconnectAttempts int
	logger               *logging.Logger
	notifier             platform.Notifier
	metrics              *metric.Metrics
	dialer               *websocket.Dialer
	listeners            *registry

	mu                sync.Mutex
	state             State
	conn              *websocket.Conn
	url               string
	reconnectAttempts int
	manual            bool
	generation        int // invalidates goroutines and timers from superseded connections
	reconnectTimer    *time.Timer
	heartbeatStop     chan struct{}

	writeMu sync.Mutex
}

// New creates a Channel in the disconnected state.
func New(cfg ConstructorConfig) *Channel {
	defaults := DefaultConstructorConfig()
	if cfg.Path == "" {
		cfg.Path = defaults.Path
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = defaults.HeartbeatInterval
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = defaults.ReconnectInterval
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = defaults.MaxReconnectAttempts
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New(nil)
	}
	if cfg.Notifier == nil {
		cfg.Notifier = platform.NewLogSurface(nil)
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}

	return &Channel{
		host:                 cfg.Host,
		path:                 cfg.Path,
		heartbeatInterval:    cfg.HeartbeatInterval,
		reconnectInterval:    cfg.ReconnectInterval,
		maxReconnectAttempts: cfg.MaxReconnectAttempts,
		logger:               cfg.Logger,
		notifier:             cfg.Notifier,
		metrics:              cfg.Metrics,
		dialer:               cfg.Dialer,
		listeners:            newRegistry(),
		state:                StateDisconnected,
	}
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// On subscribes a handler to an event and returns its subscription id.
func (c *Channel) On(event string, fn Handler) int {
	return c.listeners.add(event, fn)
}

// Off removes the subscription with the given id.
func (c *Channel) Off(event string, id int) bool {
	return c.listeners.remove(event, id)
}

// Connect opens the channel for the given app. An empty appID mirrors the
// HTTP client's admission guard: the connection is refused silently. The
// dial itself happens synchronously; failures surface as error events and
// reconnect attempts, not as a return value.
func (c *Channel) Connect(appID, userID string) error {
	if appID == "" {
		c.logger.Warn("WebSocket", "app_id is empty, skipping connection", nil)
		return errors.Silent(errors.Wrap(errors.ErrEmptyAppID, "realtime", "Connect", "admission"))
	}

	scheme := "ws"
	if c.host.IsSecure() {
		scheme = "wss"
	}
	query := url.Values{}
	query.Set("app_id", appID)
	query.Set("user_id", userID)

	c.mu.Lock()
	c.url = fmt.Sprintf("%s://%s%s%s?%s", scheme, c.host.HostPort(), platform.APIPrefix, c.path, query.Encode())
	c.manual = false
	c.reconnectAttempts = 0
	c.generation++
	gen := c.generation
	target := c.url
	c.mu.Unlock()

	c.logger.Info("WebSocket", "Connecting to: "+target, nil)
	c.establish(gen)
	return nil
}

// establish performs one dial attempt for the given connection generation.
func (c *Channel) establish(gen int) {
	c.mu.Lock()
	if gen != c.generation || c.manual {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	target := c.url
	c.mu.Unlock()

	conn, resp, err := c.dialer.Dial(target, nil)
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	if err != nil {
		c.logger.Error("WebSocket", "Connection error: "+err.Error(), nil)
		c.emitError(err)
		c.scheduleReconnect(gen)
		return
	}

	c.mu.Lock()
	if gen != c.generation || c.manual {
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.state = StateConnected
	c.reconnectAttempts = 0
	stop := make(chan struct{})
	c.heartbeatStop = stop
	c.mu.Unlock()

	c.logger.Info("WebSocket", "Connected", nil)
	if c.metrics != nil {
		c.metrics.ChannelConnected.Set(1)
	}
	c.emit(EventConnected, nil)

	go c.heartbeatLoop(stop)
	go c.readLoop(conn, gen)
}

// readLoop consumes frames until the connection drops, then runs the close
// handling for its generation.
func (c *Channel) readLoop(conn *websocket.Conn, gen int) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(gen, err)
			return
		}
		c.handleFrame(payload)
	}
}

// handleFrame splits a frame into newline-delimited messages and
// dispatches each independently: a parse failure on one is logged and
// skipped without aborting the rest.
func (c *Channel) handleFrame(payload []byte) {
	for _, line := range strings.Split(string(payload), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var msg Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			c.logger.Error("WebSocket", "Parse error: "+err.Error(), nil)
			continue
		}
		c.dispatch(msg)
	}
}

// dispatch routes one message to its event, raising system notifications
// for alerts and notifications.
func (c *Channel) dispatch(msg Message) {
	if c.metrics != nil {
		c.metrics.EventsDispatched.WithLabelValues(msg.Type).Inc()
	}

	switch msg.Type {
	case "pong":
		// Heartbeat ack.
	case EventMonitor, EventLog:
		c.emit(msg.Type, msg.Data)
	case EventAlert:
		c.emit(EventAlert, msg.Data)
		c.showAlertNotification(msg.Data)
	case EventNotification:
		c.emit(EventNotification, msg.Data)
		c.showNotification(msg.Data)
	default:
		raw, err := json.Marshal(msg)
		if err != nil {
			raw = msg.Data
		}
		c.emit(EventMessage, raw)
	}
}

func (c *Channel) showAlertNotification(data json.RawMessage) {
	var alert alertPayload
	if err := json.Unmarshal(data, &alert); err != nil {
		return
	}
	title := alertIcon(alert.Level) + " " + alert.Title
	c.notifier.SystemNotification(title, alert.Message, "alert-"+alert.ID.String())
}

func (c *Channel) showNotification(data json.RawMessage) {
	var note notificationPayload
	if err := json.Unmarshal(data, &note); err != nil {
		return
	}
	c.notifier.SystemNotification(note.Title, note.Message, "")
}

// handleClose tears down a dropped connection and schedules a reconnect
// unless the drop was an explicit disconnect or belongs to a superseded
// generation.
func (c *Channel) handleClose(gen int, err error) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	manual := c.manual
	if c.heartbeatStop != nil {
		close(c.heartbeatStop)
		c.heartbeatStop = nil
	}
	c.conn = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.ChannelConnected.Set(0)
	}
	c.logger.Info("WebSocket", "Disconnected", nil)

	if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.emitError(err)
	}
	c.emit(EventDisconnected, nil)

	if !manual {
		c.scheduleReconnect(gen)
	}
}

// scheduleReconnect arms the fixed-interval reconnect timer or, past the
// attempt ceiling, emits maxReconnectReached exactly once and goes
// terminal.
func (c *Channel) scheduleReconnect(gen int) {
	c.mu.Lock()
	if gen != c.generation || c.manual {
		c.mu.Unlock()
		return
	}
	if c.reconnectAttempts < c.maxReconnectAttempts {
		c.reconnectAttempts++
		attempt := c.reconnectAttempts
		c.state = StateReconnecting
		c.reconnectTimer = time.AfterFunc(c.reconnectInterval, func() { c.establish(gen) })
		c.mu.Unlock()

		c.logger.Info("WebSocket",
			fmt.Sprintf("Reconnecting... (%d/%d)", attempt, c.maxReconnectAttempts), nil)
		if c.metrics != nil {
			c.metrics.ChannelReconnects.Inc()
		}
		return
	}
	c.state = StateGivenUp
	c.mu.Unlock()

	c.logger.Warn("WebSocket", "Max reconnect attempts reached", nil)
	c.emit(EventMaxReconnectReached, nil)
}

// Send transmits one typed message. Sends on a channel that is not
// connected are dropped, reported by ErrChannelNotConnected.
func (c *Channel) Send(msgType string, data any) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected || conn == nil {
		return errors.ErrChannelNotConnected
	}

	payload, err := json.Marshal(outbound{Type: msgType, Data: data})
	if err != nil {
		return errors.Wrap(err, "realtime", "Send", "message encoding")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// heartbeatLoop sends a ping frame at a fixed cadence until stopped.
func (c *Channel) heartbeatLoop(stop chan struct{}) {
	ticker := time.NewTicker(c.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_ = c.Send("ping", nil)
		}
	}
}

// Disconnect closes the channel without triggering reconnects. The channel
// can be reopened with Connect.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.manual = true
	c.generation++
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	if c.heartbeatStop != nil {
		close(c.heartbeatStop)
		c.heartbeatStop = nil
	}
	conn := c.conn
	c.conn = nil
	wasConnected := c.state == StateConnected
	c.state = StateDisconnected
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}
	if c.metrics != nil {
		c.metrics.ChannelConnected.Set(0)
	}
	if wasConnected {
		c.emit(EventDisconnected, nil)
	}
}

// emit delivers an event to all subscribers in registration order. A
// panicking handler is logged and skipped; delivery to the remaining
// handlers continues.
func (c *Channel) emit(event string, data json.RawMessage) {
	for _, fn := range c.listeners.handlers(event) {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error("WebSocket", fmt.Sprintf("Listener error: %v", r), nil)
				}
			}()
			fn(data)
		}()
	}
}

func (c *Channel) emitError(err error) {
	detail, marshalErr := json.Marshal(err.Error())
	if marshalErr != nil {
		detail = []byte(`"error"`)
	}
	c.emit(EventError, detail)
}
