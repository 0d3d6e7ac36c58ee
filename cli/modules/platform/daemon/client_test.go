package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/navigation"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/eventbus"
	"github.com/fpokrzywa/weaver-live/cli/modules/ui/widgets"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// fakeDaemon answers the handful of routes the client uses
func fakeDaemon(t *testing.T) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"healthy"}`))
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid email or password"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"token": "tok",
			"user":  map[string]interface{}{"id": 1, "email": req["email"], "role_name": "Admin"},
		})
	})
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"version":"0.3.0","uptime":"1m0s","ws_clients":2,"pages":1}`))
	})
	mux.HandleFunc("POST /api/navigation/intents", func(w http.ResponseWriter, r *http.Request) {
		var in navigation.Intent
		json.NewDecoder(r.Body).Decode(&in)
		json.NewEncoder(w).Encode(widgets.PageView{MainContent: widgets.MainContentView{Active: in.Section}})
	})
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		state, _ := NewMessage(MsgState, widgets.PageView{Sidebar: widgets.SidebarView{Active: "admin"}})
		conn.WriteJSON(state)

		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			switch msg.Type {
			case MsgIntent:
				var in IntentPayload
				msg.Decode(&in)
				conn.WriteJSON(eventbus.NewEvent(eventbus.EventSectionChanged).
					WithSource("ws").
					WithData("section", string(in.Section)))
			default:
				reply, _ := NewMessage(MsgError, ErrorPayload{Message: "unknown message type: " + string(msg.Type)})
				conn.WriteJSON(reply)
			}
		}
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestClientREST(t *testing.T) {
	ts := fakeDaemon(t)
	c := NewClient(ts.URL + "/")
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	_, err := c.Status(ctx)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)

	_, err = c.Login(ctx, "admin@example.com", "wrong")
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "invalid email or password", apiErr.Message)

	session, err := c.Login(ctx, "admin@example.com", "pw")
	require.NoError(t, err)
	require.Equal(t, "Admin", session.User.RoleName)

	st, err := c.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, st.Clients)
	require.Nil(t, st.Metrics)

	view, err := c.Dispatch(ctx, navigation.Intent{Kind: navigation.IntentSelect, Section: "time-off"})
	require.NoError(t, err)
	require.Equal(t, "time-off", string(view.MainContent.Active))
}

func TestClientUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	err := c.Health(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "not reachable")
}

func TestClientStream(t *testing.T) {
	ts := fakeDaemon(t)
	c := NewClient(ts.URL)
	ctx := context.Background()

	require.ErrorIs(t, c.Ping(), ErrNotConnected)

	err := c.Connect(ctx)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))

	_, err = c.Login(ctx, "admin@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, c.Connect(ctx))
	require.True(t, c.IsConnected())

	states := make(chan widgets.PageView, 1)
	events := make(chan *eventbus.Event, 1)
	errs := make(chan string, 1)

	// The first state arrives before the handler exists and is replayed
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.pendingState != nil
	}, 2*time.Second, 10*time.Millisecond)
	c.SetStateHandler(func(v widgets.PageView) { states <- v })
	c.SetEventHandler(func(e *eventbus.Event) { events <- e })
	c.SetErrorHandler(func(msg string) { errs <- msg })

	select {
	case v := <-states:
		require.Equal(t, "admin", string(v.Sidebar.Active))
	case <-time.After(2 * time.Second):
		t.Fatal("no state")
	}

	require.NoError(t, c.SendIntent(navigation.Intent{Kind: navigation.IntentSelect, Section: "email-groups"}))
	select {
	case e := <-events:
		require.Equal(t, eventbus.EventSectionChanged, e.Type)
		require.Equal(t, "email-groups", e.String("section"))
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
	}

	require.NoError(t, c.Ping())
	select {
	case msg := <-errs:
		require.Contains(t, msg, "ping")
	case <-time.After(2 * time.Second):
		t.Fatal("no error reply")
	}

	c.Disconnect()
	require.False(t, c.IsConnected())
	require.ErrorIs(t, c.RequestState(), ErrNotConnected)
}

func TestProtocolMessage(t *testing.T) {
	msg, err := NewMessage(MsgSubscribe, SubscribePayload{Types: []eventbus.EventType{eventbus.EventCollapseAll}})
	require.NoError(t, err)

	data, err := msg.Encode()
	require.NoError(t, err)
	decoded, err := DecodeMessage(data)
	require.NoError(t, err)
	require.Equal(t, MsgSubscribe, decoded.Type)

	var sub SubscribePayload
	require.NoError(t, decoded.Decode(&sub))
	require.Equal(t, []eventbus.EventType{eventbus.EventCollapseAll}, sub.Types)
}
