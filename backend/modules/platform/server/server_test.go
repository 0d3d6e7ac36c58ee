package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/fpokrzywa/weaver-live/backend/modules/platform/config"
	"github.com/fpokrzywa/weaver-live/backend/modules/platform/logger"
	"github.com/fpokrzywa/weaver-live/cli/modules/core/accounts"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/auth"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/database"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/eventbus"
	"github.com/fpokrzywa/weaver-live/cli/modules/ui/widgets"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-pw"
)

type testEnv struct {
	srv      *Server
	http     *httptest.Server
	accounts *accounts.Service
	bus      *eventbus.Bus
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger.SetGlobalLogger(logger.NewLogger(logger.ERROR, []io.Writer{io.Discard}))

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{URL: filepath.Join(t.TempDir(), "weaver.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := accounts.NewService(accounts.NewRepository(db))
	svc.SetPasswordCost(bcrypt.MinCost)
	require.NoError(t, svc.SeedDefaults(ctx, &accounts.BootstrapAdmin{
		Email:     adminEmail,
		Password:  adminPassword,
		FirstName: "Ada",
		LastName:  "Admin",
	}))

	authn, err := auth.New(svc, auth.Config{Secret: "test-secret", Issuer: "weaver", ExpiryHours: 1})
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: "0"},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://app.example.com"},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Authorization"},
		},
	}
	bus := eventbus.NewBus()
	srv, err := NewServer(cfg, Deps{Accounts: svc, Auth: authn, Bus: bus})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})

	return &testEnv{srv: srv, http: ts, accounts: svc, bus: bus}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.http.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.http.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()

	resp, body := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var session struct {
		Token string        `json:"token"`
		User  accounts.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(body, &session))
	require.NotEmpty(t, session.Token)
	require.Equal(t, email, session.User.Email)
	return session.Token
}

func (e *testEnv) createUser(t *testing.T, token, email, role string) accounts.User {
	t.Helper()

	roles, err := e.accounts.ListRoles(context.Background())
	require.NoError(t, err)
	var roleID int64
	for _, r := range roles {
		if r.Name == role {
			roleID = r.ID
		}
	}
	require.NotZero(t, roleID)

	resp, body := e.do(t, http.MethodPost, "/api/users", token, accounts.NewUser{
		Email:     email,
		Password:  "secret-pw",
		FirstName: "Test",
		LastName:  "User",
		RoleID:    roleID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var user accounts.User
	require.NoError(t, json.Unmarshal(body, &user))
	return user
}

func TestHealthAndHeaders(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "healthy")
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp, _ = env.do(t, http.MethodGet, "/api/sections", "", nil)
	require.Contains(t, resp.Header.Get("Cache-Control"), "no-store")
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodOptions, env.http.URL+"/api/users", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://app.example.com")
	resp, err := env.http.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "http://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "GET, POST", resp.Header.Get("Access-Control-Allow-Methods"))

	req.Header.Set("Origin", "http://evil.example.com")
	resp, err = env.http.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, adminEmail, adminPassword)

	resp, body := env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var identity auth.Identity
	require.NoError(t, json.Unmarshal(body, &identity))
	require.Equal(t, adminEmail, identity.Email)
	require.True(t, identity.IsAdmin)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": adminEmail, "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "", "password": ""})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/login", "", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAccessControl(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, adminEmail, adminPassword)
	env.createUser(t, admin, "user@example.com", "User")
	user := env.login(t, "user@example.com", "secret-pw")

	resp, _ := env.do(t, http.MethodGet, "/api/users", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/users", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := env.do(t, http.MethodGet, "/api/users", user, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Contains(t, string(body), "admin access required")

	resp, _ = env.do(t, http.MethodGet, "/api/navigation", user, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUsersCRUD(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, adminEmail, adminPassword)

	user := env.createUser(t, token, "jane@example.com", "Manager")
	require.Equal(t, "Manager", user.RoleName)
	require.True(t, user.IsActive)

	resp, body := env.do(t, http.MethodGet, "/api/users?search=jane", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []accounts.User
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)

	// Duplicate email
	resp, _ = env.do(t, http.MethodPost, "/api/users", token, accounts.NewUser{
		Email: "JANE@example.com", Password: "x", FirstName: "J", LastName: "D", RoleID: user.RoleID,
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// Missing fields
	resp, _ = env.do(t, http.MethodPost, "/api/users", token, accounts.NewUser{Email: "x@example.com"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	path := "/api/users/" + itoa(user.ID)
	resp, body = env.do(t, http.MethodPut, path, token, map[string]interface{}{"first_name": "Janet", "is_active": false})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &user))
	require.Equal(t, "Janet", user.FirstName)
	require.False(t, user.IsActive)

	// Disabled accounts cannot sign in
	resp, _ = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "jane@example.com", "password": "secret-pw"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/users/abc", token, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCannotRemoveOwnAccount(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, adminEmail, adminPassword)

	admin, err := env.accounts.ListUsers(context.Background(), accounts.UserFilter{Query: adminEmail})
	require.NoError(t, err)
	require.Len(t, admin, 1)
	path := "/api/users/" + itoa(admin[0].ID)

	resp, _ := env.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPut, path, token, map[string]interface{}{"is_active": false})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRolesCRUD(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, adminEmail, adminPassword)

	resp, body := env.do(t, http.MethodGet, "/api/roles", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var roles []accounts.Role
	require.NoError(t, json.Unmarshal(body, &roles))
	require.Len(t, roles, 3)

	resp, body = env.do(t, http.MethodGet, "/api/permissions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var perms []string
	require.NoError(t, json.Unmarshal(body, &perms))
	require.Contains(t, perms, accounts.PermUserManagement)

	resp, body = env.do(t, http.MethodPost, "/api/roles", token, accounts.NewRole{
		Name:        "Auditor",
		Description: "Read-only reviewer",
		Permissions: []string{perms[0]},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var role accounts.Role
	require.NoError(t, json.Unmarshal(body, &role))

	resp, _ = env.do(t, http.MethodPost, "/api/roles", token, accounts.NewRole{Name: "auditor", Description: "dup"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/roles", token, accounts.NewRole{Name: "Bogus", Description: "x", Permissions: []string{"fly"}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	path := "/api/roles/" + itoa(role.ID)
	resp, body = env.do(t, http.MethodPut, path, token, map[string]interface{}{"description": "Reviewer"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &role))
	require.Equal(t, "Reviewer", role.Description)

	// A role with users cannot be deleted
	env.createUser(t, token, "audit@example.com", "Auditor")
	resp, _ = env.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, "/api/roles/9999", token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAccountChangesPublishEvents(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, adminEmail, adminPassword)

	got := make(chan *eventbus.Event, 4)
	env.bus.Subscribe([]eventbus.EventType{eventbus.EventAccountsUpdated}, func(e *eventbus.Event) { got <- e })

	env.createUser(t, token, "bob@example.com", "User")

	select {
	case e := <-got:
		require.Equal(t, "api", e.Source)
	case <-time.After(time.Second):
		t.Fatal("no accounts_updated event")
	}
}

func TestSections(t *testing.T) {
	env := newTestEnv(t)

	var anon struct {
		Groups []struct {
			Category string `json:"category"`
		} `json:"groups"`
		Models       []json.RawMessage `json:"models"`
		DefaultModel string            `json:"default_model"`
	}
	resp, body := env.do(t, http.MethodGet, "/api/sections", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &anon))
	require.NotEmpty(t, anon.Models)
	require.Equal(t, "GPT-4o", anon.DefaultModel)
	for _, g := range anon.Groups {
		require.NotEqual(t, "admin", g.Category)
	}

	token := env.login(t, adminEmail, adminPassword)
	_, body = env.do(t, http.MethodGet, "/api/sections", token, nil)
	require.NoError(t, json.Unmarshal(body, &anon))
	require.Equal(t, "admin", anon.Groups[len(anon.Groups)-1].Category)
}

func TestNavigationIntents(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, adminEmail, adminPassword)

	var view widgets.PageView
	resp, body := env.do(t, http.MethodGet, "/api/navigation", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &view))
	require.Equal(t, "admin", string(view.Sidebar.Active))
	require.True(t, view.MainContent.AdminVisible)

	resp, body = env.do(t, http.MethodPost, "/api/navigation/intents", token, map[string]string{"intent": "select", "section": "time-off"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &view))
	require.Equal(t, "time-off", string(view.MainContent.Active))
	require.False(t, view.MainContent.AdminVisible)

	resp, body = env.do(t, http.MethodPost, "/api/navigation/intents", token, map[string]string{"intent": "collapse_all"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &view))
	require.False(t, view.Sidebar.Visible)

	resp, _ = env.do(t, http.MethodPost, "/api/navigation/intents", token, map[string]string{"intent": "fly"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/navigation/intents", token, map[string]string{"intent": "select"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = env.do(t, http.MethodPut, "/api/navigation/assistant", token, map[string]interface{}{"model": "o3", "query": "hello", "show_prompts": true})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var panel widgets.RightPanelView
	require.NoError(t, json.Unmarshal(body, &panel))
	require.Equal(t, "o3", panel.Model)
	require.Equal(t, "hello", panel.Query)
	require.True(t, panel.ShowPrompts)

	resp, _ = env.do(t, http.MethodPut, "/api/navigation/assistant", token, map[string]interface{}{"model": "no-such-model"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/navigation/signout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Zero(t, env.srv.pages.Count())
}

func TestPagesAreIsolated(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, adminEmail, adminPassword)
	env.createUser(t, admin, "user@example.com", "User")
	user := env.login(t, "user@example.com", "secret-pw")

	resp, _ := env.do(t, http.MethodPost, "/api/navigation/intents", admin, map[string]string{"intent": "select", "section": "expense-reports"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view widgets.PageView
	_, body := env.do(t, http.MethodGet, "/api/navigation", user, nil)
	require.NoError(t, json.Unmarshal(body, &view))
	require.NotEqual(t, "expense-reports", string(view.MainContent.Active))
	require.False(t, view.Sidebar.IsAdmin)

	// Admin section stays out of reach for non-admins
	_, body = env.do(t, http.MethodPost, "/api/navigation/intents", user, map[string]string{"intent": "select", "section": "admin"})
	require.NoError(t, json.Unmarshal(body, &view))
	require.False(t, view.MainContent.AdminVisible)
}

func TestContact(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/contact", "", map[string]string{"name": "Sam", "email": "nope"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, string(body), "fields")

	resp, _ = env.do(t, http.MethodPost, "/api/contact", "", map[string]string{
		"name":    "Sam",
		"email":   "sam@example.com",
		"company": "Acme",
		"message": "Tell me more",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestRoutesListing(t *testing.T) {
	env := newTestEnv(t)

	patterns := make(map[string]bool)
	for _, rt := range env.srv.Routes() {
		patterns[rt.Pattern] = true
	}
	require.True(t, patterns["POST /api/auth/login"])
	require.True(t, patterns["DELETE /api/roles/{id}"])
	require.True(t, patterns["GET /ws"])
}

func TestWebSocket(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, adminEmail, adminPassword)

	wsURL := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() map[string]interface{} {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg map[string]interface{}
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	msg := read()
	require.Equal(t, "state", msg["type"])
	require.NotNil(t, msg["payload"].(map[string]interface{})["sidebar"])
	require.Eventually(t, func() bool { return env.srv.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "ping"}))
	require.Equal(t, "pong", read()["type"])

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":    "intent",
		"payload": map[string]string{"intent": "select", "section": "support-tickets"},
	}))
	msg = read()
	require.Equal(t, "section_changed", msg["type"])
	require.Equal(t, "ws", msg["source"])
	require.Equal(t, "support-tickets", msg["data"].(map[string]interface{})["section"])

	// REST intents reach the socket of the same user
	resp2, _ := env.do(t, http.MethodPost, "/api/navigation/intents", token, map[string]string{"intent": "toggle_main_content"})
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	require.Equal(t, "toggle_main_content", read()["type"])

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "get_history", "payload": map[string]int{"limit": 10}}))
	msg = read()
	require.Equal(t, "history", msg["type"])
	require.NotEmpty(t, msg["payload"].(map[string]interface{})["events"])

	// Account changes go to admins
	env.createUser(t, token, "ws@example.com", "User")
	require.Equal(t, "accounts_updated", read()["type"])

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "dance"}))
	msg = read()
	require.Equal(t, "error", msg["type"])
	require.Contains(t, msg["payload"].(map[string]interface{})["message"], "unknown message type")
}

func TestWebSocketFollowsSignOut(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, adminEmail, adminPassword)

	wsURL := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() map[string]interface{} {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg map[string]interface{}
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}
	require.Equal(t, "state", read()["type"])

	resp, _ := env.do(t, http.MethodPost, "/api/navigation/signout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "signed_out", read()["type"])
	require.Zero(t, env.srv.pages.Count())

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":    "intent",
		"payload": map[string]string{"intent": "select", "section": "conference-rooms"},
	}))

	// The socket moves to a fresh page and the intent lands there
	msg := read()
	require.Equal(t, "state", msg["type"])
	sidebar := msg["payload"].(map[string]interface{})["sidebar"].(map[string]interface{})
	require.Equal(t, "admin", sidebar["active"])

	msg = read()
	require.Equal(t, "section_changed", msg["type"])
	require.Equal(t, "conference-rooms", msg["data"].(map[string]interface{})["section"])
	require.Equal(t, 1, env.srv.pages.Count())

	var view widgets.PageView
	_, body := env.do(t, http.MethodGet, "/api/navigation", token, nil)
	require.NoError(t, json.Unmarshal(body, &view))
	require.Equal(t, "conference-rooms", string(view.MainContent.Active))
	require.True(t, view.MainContent.Visible)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
