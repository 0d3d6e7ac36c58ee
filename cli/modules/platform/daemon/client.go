package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/accounts"
	"github.com/fpokrzywa/weaver-live/cli/modules/core/navigation"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/eventbus"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/system"
	"github.com/fpokrzywa/weaver-live/cli/modules/ui/widgets"

	"github.com/gorilla/websocket"
)

// ErrNotConnected is returned by stream operations before Connect
var ErrNotConnected = errors.New("not connected")

// APIError is a non-2xx answer from the daemon
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("daemon returned %d: %s", e.Status, e.Message)
}

// Session is the answer to a successful sign-in
type Session struct {
	User      accounts.User `json:"user"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// Status describes the running daemon
type Status struct {
	Version string          `json:"version"`
	Uptime  string          `json:"uptime"`
	Clients int             `json:"ws_clients"`
	Pages   int             `json:"pages"`
	Metrics *system.Metrics `json:"metrics,omitempty"`
}

// Client talks to weaverd over REST and the /ws event stream
type Client struct {
	baseURL string
	http    *http.Client

	// Callbacks
	onEvent      func(*eventbus.Event)
	onState      func(widgets.PageView)
	onError      func(string)
	onDisconnect func()

	// Buffered state (received before the handler was set)
	pendingState *widgets.PageView

	// State
	mu        sync.Mutex
	token     string
	conn      *websocket.Conn
	connected bool
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewClient creates a client for the daemon at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken sets the bearer token used by authenticated calls
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.Lock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.Unlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Health checks that the daemon answers
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// Login signs in and keeps the token for later calls
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, &session)
	if err != nil {
		return nil, err
	}
	c.SetToken(session.Token)
	return &session, nil
}

// Status returns the daemon status
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var st Status
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// View returns the caller's page
func (c *Client) View(ctx context.Context) (*widgets.PageView, error) {
	var view widgets.PageView
	if err := c.do(ctx, http.MethodGet, "/api/navigation", nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Dispatch posts an intent and returns the resulting page
func (c *Client) Dispatch(ctx context.Context, in navigation.Intent) (*widgets.PageView, error) {
	var view widgets.PageView
	if err := c.do(ctx, http.MethodPost, "/api/navigation/intents", in, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Connect opens the event stream
func (c *Client) Connect(ctx context.Context) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid daemon url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"

	c.mu.Lock()
	q := u.Query()
	q.Set("token", c.token)
	c.mu.Unlock()
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return &APIError{Status: resp.StatusCode, Message: "websocket handshake refused"}
		}
		return fmt.Errorf("failed to connect to daemon: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.done = make(chan struct{})
	c.mu.Unlock()

	// Start message receiver
	c.wg.Add(1)
	go c.receiveLoop(conn)

	return nil
}

// Disconnect closes the event stream
func (c *Client) Disconnect() {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return
	}
	c.connected = false
	conn := c.conn
	close(c.done)
	c.mu.Unlock()

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	conn.Close()

	c.wg.Wait()
}

// IsConnected returns true while the event stream is open
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// SetEventHandler sets the callback for bus events
func (c *Client) SetEventHandler(handler func(*eventbus.Event)) {
	c.mu.Lock()
	c.onEvent = handler
	c.mu.Unlock()
}

// SetStateHandler sets the callback for page views.
// Also flushes a view that was received before the handler was set.
func (c *Client) SetStateHandler(handler func(widgets.PageView)) {
	c.mu.Lock()
	c.onState = handler
	pending := c.pendingState
	c.pendingState = nil
	c.mu.Unlock()

	if handler != nil && pending != nil {
		handler(*pending)
	}
}

// SetErrorHandler sets the callback for error replies
func (c *Client) SetErrorHandler(handler func(string)) {
	c.mu.Lock()
	c.onError = handler
	c.mu.Unlock()
}

// SetDisconnectHandler sets the callback for a lost connection
func (c *Client) SetDisconnectHandler(handler func()) {
	c.mu.Lock()
	c.onDisconnect = handler
	c.mu.Unlock()
}

func (c *Client) send(msgType MessageType, payload interface{}) error {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected || c.conn == nil {
		return ErrNotConnected
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(msg)
}

// SendIntent dispatches an intent over the stream
func (c *Client) SendIntent(in navigation.Intent) error {
	return c.send(MsgIntent, in)
}

// Subscribe restricts the pushed events to types. No types means all.
func (c *Client) Subscribe(types ...eventbus.EventType) error {
	return c.send(MsgSubscribe, SubscribePayload{Types: types})
}

// RequestState asks for the page view
func (c *Client) RequestState() error {
	return c.send(MsgGetState, nil)
}

// RequestHistory asks for the recent navigation events
func (c *Client) RequestHistory(limit int) error {
	return c.send(MsgGetHistory, HistoryRequest{Limit: limit})
}

// Ping sends a keepalive
func (c *Client) Ping() error {
	return c.send(MsgPing, nil)
}

// receiveLoop receives messages from the daemon
func (c *Client) receiveLoop(conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			wasConnected := c.connected
			c.connected = false
			handler := c.onDisconnect
			c.mu.Unlock()

			if wasConnected && handler != nil {
				handler()
			}
			return
		}

		c.handleMessage(data)
	}
}

func (c *Client) handleMessage(data []byte) {
	msg, err := DecodeMessage(data)
	if err != nil {
		return
	}

	switch msg.Type {
	case MsgState:
		var view StatePayload
		if err := msg.Decode(&view); err != nil {
			return
		}
		c.mu.Lock()
		handler := c.onState
		if handler == nil {
			c.pendingState = &view
		}
		c.mu.Unlock()
		if handler != nil {
			handler(view)
		}

	case MsgHistory:
		var hist HistoryPayload
		if err := msg.Decode(&hist); err != nil {
			return
		}
		c.mu.Lock()
		handler := c.onEvent
		c.mu.Unlock()
		if handler != nil {
			for _, e := range hist.Events {
				handler(e)
			}
		}

	case MsgError:
		var e ErrorPayload
		msg.Decode(&e)
		c.mu.Lock()
		handler := c.onError
		c.mu.Unlock()
		if handler != nil {
			handler(e.Message)
		}

	case MsgPong:

	default:
		var event eventbus.Event
		if err := json.Unmarshal(data, &event); err != nil {
			return
		}
		c.mu.Lock()
		handler := c.onEvent
		c.mu.Unlock()
		if handler != nil {
			handler(&event)
		}
	}
}
