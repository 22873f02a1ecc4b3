package realtime

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/consoleclient/errors"
	"github.com/c360/consoleclient/logging"
	"github.com/c360/consoleclient/platform"
)

// wsServer accepts websocket upgrades, records inbound client messages,
// and can be told to reject handshakes.
type wsServer struct {
	upgrader websocket.Upgrader
	server   *httptest.Server

	mu       sync.Mutex
	rejectMu sync.Mutex
	reject   bool
	queries  []url.Values
	inbound  []Message

	connCh chan *websocket.Conn
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	ws := &wsServer{connCh: make(chan *websocket.Conn, 8)}
	ws.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws.rejectMu.Lock()
		reject := ws.reject
		ws.rejectMu.Unlock()
		if reject {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}

		conn, err := ws.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ws.mu.Lock()
		ws.queries = append(ws.queries, r.URL.Query())
		ws.mu.Unlock()
		ws.connCh <- conn

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg Message
			if err := json.Unmarshal(payload, &msg); err != nil {
				continue
			}
			ws.mu.Lock()
			ws.inbound = append(ws.inbound, msg)
			ws.mu.Unlock()
		}
	}))
	t.Cleanup(ws.server.Close)
	return ws
}

func (ws *wsServer) setReject(reject bool) {
	ws.rejectMu.Lock()
	defer ws.rejectMu.Unlock()
	ws.reject = reject
}

func (ws *wsServer) waitConn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-ws.connCh:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for websocket connection")
		return nil
	}
}

func (ws *wsServer) connCount() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.queries)
}

func (ws *wsServer) inboundTypes() []string {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	out := make([]string, len(ws.inbound))
	for i, msg := range ws.inbound {
		out[i] = msg.Type
	}
	return out
}

type systemNote struct {
	title, body, tag string
}

// fakeNotifier records system notifications.
type fakeNotifier struct {
	mu     sync.Mutex
	system []systemNote
}

func (n *fakeNotifier) Toast(platform.ToastLevel, string) {}
func (n *fakeNotifier) Notify(title, message, id string)  {}
func (n *fakeNotifier) SystemNotification(title, body, tag string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.system = append(n.system, systemNote{title: title, body: body, tag: tag})
}

func (n *fakeNotifier) notes() []systemNote {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]systemNote(nil), n.system...)
}

func newTestChannel(t *testing.T, origin string, mutate func(*ConstructorConfig)) (*Channel, *fakeNotifier) {
	t.Helper()
	notifier := &fakeNotifier{}
	cfg := DefaultConstructorConfig()
	cfg.Host = platform.HostFromOrigin(origin)
	cfg.HeartbeatInterval = 20 * time.Millisecond
	cfg.ReconnectInterval = 15 * time.Millisecond
	cfg.Logger = logging.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	cfg.Notifier = notifier
	if mutate != nil {
		mutate(&cfg)
	}
	ch := New(cfg)
	t.Cleanup(ch.Disconnect)
	return ch, notifier
}

func TestConnect_EstablishesAndHeartbeats(t *testing.T) {
	ws := newWSServer(t)
	ch, _ := newTestChannel(t, ws.server.URL, nil)

	connected := make(chan struct{}, 1)
	ch.On(EventConnected, func(json.RawMessage) { connected <- struct{}{} })

	require.NoError(t, ch.Connect("app-1", "user-7"))

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("connected event never fired")
	}
	assert.Equal(t, StateConnected, ch.State())

	ws.waitConn(t)
	ws.mu.Lock()
	query := ws.queries[0]
	ws.mu.Unlock()
	assert.Equal(t, "app-1", query.Get("app_id"))
	assert.Equal(t, "user-7", query.Get("user_id"))

	require.Eventually(t, func() bool {
		for _, typ := range ws.inboundTypes() {
			if typ == "ping" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConnect_EmptyAppID(t *testing.T) {
	ws := newWSServer(t)
	ch, _ := newTestChannel(t, ws.server.URL, nil)

	err := ch.Connect("", "user-7")
	require.Error(t, err)
	assert.True(t, errors.IsSilent(err))
	assert.Equal(t, StateDisconnected, ch.State())
	assert.Zero(t, ws.connCount())
}

func TestSend_RoundTrip(t *testing.T) {
	ws := newWSServer(t)
	ch, _ := newTestChannel(t, ws.server.URL, nil)

	require.NoError(t, ch.Connect("app-1", ""))
	ws.waitConn(t)

	require.Eventually(t, func() bool { return ch.State() == StateConnected }, time.Second, 5*time.Millisecond)
	require.NoError(t, ch.Send("subscribe", map[string]any{"topic": "monitor"}))

	require.Eventually(t, func() bool {
		for _, typ := range ws.inboundTypes() {
			if typ == "subscribe" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSend_WhenDisconnected(t *testing.T) {
	ch, _ := newTestChannel(t, "http://console.example.com", nil)

	err := ch.Send("subscribe", nil)
	assert.ErrorIs(t, err, errors.ErrChannelNotConnected)
}

func TestHandleFrame_MultiMessageParseIsolation(t *testing.T) {
	ch, _ := newTestChannel(t, "http://console.example.com", nil)

	var mu sync.Mutex
	var got []string
	record := func(name string) Handler {
		return func(json.RawMessage) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, name)
		}
	}
	ch.On(EventMonitor, record("monitor"))
	ch.On(EventLog, record("log"))

	frame := `{"type":"monitor","data":{"cpu":0.5}}` + "\n" +
		`this is not json` + "\n" +
		`{"type":"log","data":{"line":"ok"}}`
	ch.handleFrame([]byte(frame))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"monitor", "log"}, got)
}

func TestDispatch_UnknownTypeFallsBackToMessage(t *testing.T) {
	ch, _ := newTestChannel(t, "http://console.example.com", nil)

	var mu sync.Mutex
	var payloads []string
	ch.On(EventMessage, func(data json.RawMessage) {
		mu.Lock()
		defer mu.Unlock()
		payloads = append(payloads, string(data))
	})

	ch.handleFrame([]byte(`{"type":"telemetry","data":{"v":1}}`))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, payloads, 1)
	assert.Contains(t, payloads[0], `"telemetry"`)
}

func TestDispatch_AlertRaisesSystemNotification(t *testing.T) {
	ch, notifier := newTestChannel(t, "http://console.example.com", nil)

	ch.handleFrame([]byte(`{"type":"alert","data":{"id":7,"level":"critical","title":"Disk full","message":"Volume /data is at 98%"}}`))

	notes := notifier.notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "\U0001F534 Disk full", notes[0].title)
	assert.Equal(t, "Volume /data is at 98%", notes[0].body)
	assert.Equal(t, "alert-7", notes[0].tag)

	// Unknown severities get the neutral icon.
	ch.handleFrame([]byte(`{"type":"alert","data":{"id":8,"level":"odd","title":"Hm","message":"?"}}`))
	notes = notifier.notes()
	require.Len(t, notes, 2)
	assert.Equal(t, "⚪ Hm", notes[1].title)
}

func TestDispatch_NotificationRaisesSystemNotification(t *testing.T) {
	ch, notifier := newTestChannel(t, "http://console.example.com", nil)

	ch.handleFrame([]byte(`{"type":"notification","data":{"title":"Deploy done","message":"app-1 is live"}}`))

	notes := notifier.notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "Deploy done", notes[0].title)
	assert.Empty(t, notes[0].tag)
}

func TestEmit_PanickingListenerIsIsolated(t *testing.T) {
	ch, _ := newTestChannel(t, "http://console.example.com", nil)

	var delivered atomic.Int32
	ch.On(EventMonitor, func(json.RawMessage) { panic("listener bug") })
	ch.On(EventMonitor, func(json.RawMessage) { delivered.Add(1) })

	ch.handleFrame([]byte(`{"type":"monitor","data":{}}`))
	assert.Equal(t, int32(1), delivered.Load())
}

func TestOff_RemovesBySubscriptionID(t *testing.T) {
	ch, _ := newTestChannel(t, "http://console.example.com", nil)

	var first, second atomic.Int32
	id := ch.On(EventLog, func(json.RawMessage) { first.Add(1) })
	ch.On(EventLog, func(json.RawMessage) { second.Add(1) })

	assert.True(t, ch.Off(EventLog, id))
	assert.False(t, ch.Off(EventLog, id))

	ch.handleFrame([]byte(`{"type":"log","data":{}}`))
	assert.Equal(t, int32(0), first.Load())
	assert.Equal(t, int32(1), second.Load())
}

func TestReconnect_AfterServerDrop(t *testing.T) {
	ws := newWSServer(t)
	ch, _ := newTestChannel(t, ws.server.URL, nil)

	var connects atomic.Int32
	ch.On(EventConnected, func(json.RawMessage) { connects.Add(1) })
	disconnected := make(chan struct{}, 8)
	ch.On(EventDisconnected, func(json.RawMessage) { disconnected <- struct{}{} })

	require.NoError(t, ch.Connect("app-1", ""))
	first := ws.waitConn(t)
	first.Close()

	select {
	case <-disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("disconnected event never fired")
	}

	ws.waitConn(t)
	require.Eventually(t, func() bool { return connects.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, StateConnected, ch.State())
}

func TestReconnect_GivesUpExactlyOnce(t *testing.T) {
	ws := newWSServer(t)
	ws.setReject(true)
	ch, _ := newTestChannel(t, ws.server.URL, func(cfg *ConstructorConfig) {
		cfg.MaxReconnectAttempts = 2
	})

	var gaveUp atomic.Int32
	ch.On(EventMaxReconnectReached, func(json.RawMessage) { gaveUp.Add(1) })

	require.NoError(t, ch.Connect("app-1", ""))

	require.Eventually(t, func() bool { return gaveUp.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, StateGivenUp, ch.State())

	// No further timers fire after giving up.
	time.Sleep(5 * ch.reconnectInterval)
	assert.Equal(t, int32(1), gaveUp.Load())

	// A fresh Connect starts over once the server recovers.
	ws.setReject(false)
	require.NoError(t, ch.Connect("app-1", ""))
	require.Eventually(t, func() bool { return ch.State() == StateConnected }, 2*time.Second, 10*time.Millisecond)
}

func TestDisconnect_SuppressesReconnect(t *testing.T) {
	ws := newWSServer(t)
	ch, _ := newTestChannel(t, ws.server.URL, nil)

	require.NoError(t, ch.Connect("app-1", ""))
	ws.waitConn(t)
	require.Eventually(t, func() bool { return ch.State() == StateConnected }, time.Second, 5*time.Millisecond)

	ch.Disconnect()
	assert.Equal(t, StateDisconnected, ch.State())

	time.Sleep(5 * ch.reconnectInterval)
	assert.Equal(t, 1, ws.connCount())
	assert.Equal(t, StateDisconnected, ch.State())
}
