package api

import (
	"net/http"
	"sort"
	"sync"
)

// Access is the authentication a route requires
type Access int

const (
	Public Access = iota
	Authenticated
	AdminOnly
)

func (a Access) String() string {
	switch a {
	case Authenticated:
		return "authenticated"
	case AdminOnly:
		return "admin"
	default:
		return "public"
	}
}

// Route is one registered endpoint
type Route struct {
	Pattern     string `json:"pattern"`
	Access      Access `json:"-"`
	Description string `json:"description"`
}

// Guard wraps a handler with the checks an Access level needs
type Guard func(access Access, next http.Handler) http.Handler

// Router registers handlers on a mux behind a Guard
type Router struct {
	mu     sync.Mutex
	mux    *http.ServeMux
	guard  Guard
	routes []Route
}

// NewRouter creates a router on mux. A nil guard registers handlers unwrapped.
func NewRouter(mux *http.ServeMux, guard Guard) *Router {
	return &Router{mux: mux, guard: guard}
}

// Handle registers handler for a Go 1.22 pattern such as "GET /api/users/{id}"
func (r *Router) Handle(pattern string, access Access, description string, handler http.HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var h http.Handler = handler
	if r.guard != nil {
		h = r.guard(access, h)
	}
	r.mux.Handle(pattern, h)
	r.routes = append(r.routes, Route{Pattern: pattern, Access: access, Description: description})
}

// Routes returns the registered routes sorted by pattern
func (r *Router) Routes() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Route, len(r.routes))
	copy(out, r.routes)
	sort.Slice(out, func(i, j int) bool { return out[i].Pattern < out[j].Pattern })
	return out
}
