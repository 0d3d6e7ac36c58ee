package workspace

import (
	"net/http"

	"github.com/fpokrzywa/weaver-live/backend/modules/platform/api"
	"github.com/fpokrzywa/weaver-live/backend/modules/platform/logger"
	"github.com/fpokrzywa/weaver-live/cli/modules/core/navigation"
	"github.com/fpokrzywa/weaver-live/cli/modules/core/sections"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/auth"
	"github.com/fpokrzywa/weaver-live/cli/modules/ui/core"
)

// Handler serves the section registry and the per-user widget pages
type Handler struct {
	pages *Pages
}

// RegisterRoutes registers the navigation endpoints on r
func RegisterRoutes(r *api.Router, pages *Pages) *Handler {
	h := &Handler{pages: pages}

	r.Handle("GET /api/sections", api.Public, "Sidebar groups, articles, prompts and models", h.Sections)
	r.Handle("GET /api/navigation", api.Authenticated, "Widget view models of the caller's page", h.View)
	r.Handle("POST /api/navigation/intents", api.Authenticated, "Dispatch a navigation intent", h.Dispatch)
	r.Handle("PUT /api/navigation/assistant", api.Authenticated, "Update the assistant panel", h.Assistant)
	r.Handle("POST /api/navigation/signout", api.Authenticated, "Reset the caller's page", h.SignOut)
	r.Handle("POST /api/contact", api.Public, "Submit the get-started form", h.Contact)

	return h
}

// SectionsResponse is the static navigation content
type SectionsResponse struct {
	Groups       []sections.Group   `json:"groups"`
	Articles     []sections.Article `json:"articles"`
	Prompts      []string           `json:"prompts"`
	Models       []sections.Model   `json:"models"`
	DefaultModel string             `json:"default_model"`
}

// Sections returns the registry. The admin group is listed for admin tokens only.
func (h *Handler) Sections(w http.ResponseWriter, r *http.Request) {
	isAdmin := false
	if identity, ok := auth.FromContext(r.Context()); ok {
		isAdmin = identity.IsAdmin
	}
	api.SendData(w, SectionsResponse{
		Groups:       sections.NavGroups(isAdmin),
		Articles:     sections.Articles(),
		Prompts:      sections.SamplePrompts(),
		Models:       sections.Models(),
		DefaultModel: sections.DefaultModel,
	})
}

// View returns the caller's page
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.RequireIdentity(w, r)
	if !ok {
		return
	}
	api.SendData(w, h.pages.For(identity).View())
}

// Dispatch publishes an intent on the caller's page and returns the new view
func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.RequireIdentity(w, r)
	if !ok {
		return
	}
	var in navigation.Intent
	if err := api.DecodeJSON(r, &in); err != nil {
		api.SendErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	page := h.pages.For(identity)
	if err := page.Dispatch(in, "api"); err != nil {
		api.SendErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	logger.Debug("Intent %s from %s", in.Kind, identity.Email)
	api.SendData(w, page.View())
}

type assistantRequest struct {
	ShowPrompts *bool   `json:"show_prompts,omitempty"`
	Model       *string `json:"model,omitempty"`
	Query       *string `json:"query,omitempty"`
}

// Assistant updates the right panel's local state
func (h *Handler) Assistant(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.RequireIdentity(w, r)
	if !ok {
		return
	}
	var req assistantRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.SendErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	panel := h.pages.For(identity).RightPanel
	if req.Model != nil {
		if err := panel.SelectModel(*req.Model); err != nil {
			api.SendErrorMessage(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.ShowPrompts != nil && *req.ShowPrompts != panel.View().ShowPrompts {
		panel.TogglePrompts()
	}
	if req.Query != nil {
		panel.SetQuery(*req.Query)
	}
	api.SendData(w, panel.View())
}

// SignOut drops the caller's page. The token stays valid until it expires.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.RequireIdentity(w, r)
	if !ok {
		return
	}
	h.pages.Drop(identity.UserID)
	api.SendMessage(w, "Signed out")
}

// Contact validates the get-started form
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	var req core.ContactRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.SendErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		api.SendJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "invalid form",
			"fields": errs,
		})
		return
	}

	logger.Info("Contact request from %s <%s> (%s)", req.Name, req.Email, req.Company)
	api.SendJSON(w, http.StatusAccepted, map[string]string{"message": "Thanks, we will be in touch"})
}
