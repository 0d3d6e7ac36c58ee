package server

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/fpokrzywa/weaver-live/backend/modules/platform/api"
	"github.com/fpokrzywa/weaver-live/backend/modules/platform/logger"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/auth"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/daemon"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/eventbus"
	"github.com/fpokrzywa/weaver-live/cli/modules/ui/widgets"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// PageSource hands out the widget page of a signed-in user
type PageSource interface {
	For(identity *auth.Identity) *widgets.Page
}

// WSClient represents a WebSocket client
type WSClient struct {
	id       string
	conn     *websocket.Conn
	send     chan []byte
	hub      *WSHub
	identity *auth.Identity

	mu      sync.Mutex
	page    *widgets.Page
	pageSub string
	filters map[eventbus.EventType]bool
	closed  bool
}

// WSHub manages all WebSocket connections. Navigation events travel on the
// caller's page bus; account events on the daemon bus go to admins.
type WSHub struct {
	mu       sync.RWMutex
	clients  map[string]*WSClient
	bus      *eventbus.Bus
	busSub   string
	pages    PageSource
	upgrader websocket.Upgrader
}

// NewWSHub creates a hub and subscribes it to bus
func NewWSHub(bus *eventbus.Bus, pages PageSource, allowedOrigins []string) *WSHub {
	h := &WSHub{
		clients: make(map[string]*WSClient),
		bus:     bus,
		pages:   pages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
	h.busSub = bus.Subscribe([]eventbus.EventType{eventbus.EventAccountsUpdated, eventbus.EventNotification}, h.broadcastToAdmins)
	return h
}

// originChecker allows same-origin requests plus the configured origins
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}

func (h *WSHub) broadcastToAdmins(event *eventbus.Event) {
	data, err := event.JSON()
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.identity.IsAdmin {
			client.enqueue(event.Type, data)
		}
	}
}

// ClientCount returns the number of connected clients
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and leaves the bus
func (h *WSHub) Close() {
	h.bus.Unsubscribe(h.busSub)

	h.mu.Lock()
	clients := make([]*WSClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}
}

// ServeWS upgrades an authenticated request
func (h *WSHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.RequireIdentity(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("WebSocket upgrade error: %v", err)
		return
	}

	client := &WSClient{
		id:       uuid.NewString(),
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		hub:      h,
		identity: identity,
		page:     h.pages.For(identity),
	}
	client.pageSub = client.page.Bus().Subscribe(eventbus.NavigationEvents, client.deliver)

	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()
	logger.Info("WebSocket client connected: %s (%s)", client.id, identity.Email)

	client.reply(daemon.MsgState, client.page.View())

	go client.writePump()
	go client.readPump()
}

func (h *WSHub) unregister(c *WSClient) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()
	if !ok {
		return
	}

	c.mu.Lock()
	c.closed = true
	page, sub := c.page, c.pageSub
	close(c.send)
	c.mu.Unlock()

	page.Bus().Unsubscribe(sub)
	logger.Info("WebSocket client disconnected: %s", c.id)
}

// currentPage returns the client's page, moving to a new one when the user
// signed out and the old page was closed
func (c *WSClient) currentPage() *widgets.Page {
	c.mu.Lock()
	page := c.page
	c.mu.Unlock()
	if page.Closed() {
		return c.rebind(page)
	}
	return page
}

// rebind subscribes to the user's live page and sends its state
func (c *WSClient) rebind(stale *widgets.Page) *widgets.Page {
	page := c.hub.pages.For(c.identity)
	sub := page.Bus().Subscribe(eventbus.NavigationEvents, c.deliver)

	c.mu.Lock()
	if c.closed || c.page != stale {
		current := c.page
		c.mu.Unlock()
		page.Bus().Unsubscribe(sub)
		return current
	}
	oldSub := c.pageSub
	c.page, c.pageSub = page, sub
	c.mu.Unlock()

	stale.Bus().Unsubscribe(oldSub)
	logger.Debug("WebSocket client %s moved to a new page", c.id)
	c.reply(daemon.MsgState, page.View())
	return page
}

// deliver forwards a page bus event
func (c *WSClient) deliver(event *eventbus.Event) {
	data, err := event.JSON()
	if err != nil {
		return
	}
	c.enqueue(event.Type, data)
}

// enqueue drops the message when the client is gone, filtered out or too slow
func (c *WSClient) enqueue(eventType eventbus.EventType, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if eventType != "" && len(c.filters) > 0 && !c.filters[eventType] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// reply sends a protocol message
func (c *WSClient) reply(msgType daemon.MessageType, payload interface{}) {
	msg, err := daemon.NewMessage(msgType, payload)
	if err != nil {
		return
	}
	data, err := msg.Encode()
	if err != nil {
		return
	}
	c.enqueue("", data)
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *WSClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *WSClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket error: %v", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// handleMessage handles messages from clients
func (c *WSClient) handleMessage(data []byte) {
	msg, err := daemon.DecodeMessage(data)
	if err != nil {
		c.sendError("invalid message")
		return
	}

	switch msg.Type {
	case daemon.MsgIntent:
		var in daemon.IntentPayload
		if err := msg.Decode(&in); err != nil {
			c.sendError("invalid intent")
			return
		}
		// The resulting event comes back through the page bus subscription
		page := c.currentPage()
		err := page.Dispatch(in, "ws")
		if errors.Is(err, widgets.ErrPageClosed) {
			err = c.rebind(page).Dispatch(in, "ws")
		}
		if err != nil {
			c.sendError(err.Error())
		}

	case daemon.MsgGetState:
		c.reply(daemon.MsgState, c.currentPage().View())

	case daemon.MsgSubscribe:
		var req daemon.SubscribePayload
		if err := msg.Decode(&req); err != nil {
			c.sendError("invalid subscribe payload")
			return
		}
		c.mu.Lock()
		c.filters = make(map[eventbus.EventType]bool, len(req.Types))
		for _, t := range req.Types {
			c.filters[t] = true
		}
		c.mu.Unlock()

	case daemon.MsgPing:
		c.reply(daemon.MsgPong, daemon.PongPayload{Timestamp: time.Now().UnixMilli()})

	case daemon.MsgGetHistory:
		req := daemon.HistoryRequest{Limit: 100}
		if err := msg.Decode(&req); err != nil || req.Limit <= 0 {
			req.Limit = 100
		}
		c.reply(daemon.MsgHistory, daemon.HistoryPayload{
			Events: c.currentPage().Bus().GetHistoryByType(eventbus.NavigationEvents, req.Limit),
		})

	default:
		c.sendError("unknown message type: " + string(msg.Type))
	}
}

func (c *WSClient) sendError(message string) {
	c.reply(daemon.MsgError, daemon.ErrorPayload{Message: message})
}
