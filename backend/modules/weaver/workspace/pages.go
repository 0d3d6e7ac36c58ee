package workspace

import (
	"sync"

	"github.com/fpokrzywa/weaver-live/cli/modules/platform/auth"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/eventbus"
	"github.com/fpokrzywa/weaver-live/cli/modules/ui/widgets"
)

// Pages keeps one widget page per signed-in user. Each page has its own bus,
// so one user's navigation never reaches another user's widgets.
type Pages struct {
	mu    sync.Mutex
	pages map[int64]*widgets.Page
}

// NewPages creates an empty page set
func NewPages() *Pages {
	return &Pages{pages: make(map[int64]*widgets.Page)}
}

// For returns the page of identity, creating it on first use. A page whose
// admin flag no longer matches the token is signed in again.
func (p *Pages) For(identity *auth.Identity) *widgets.Page {
	p.mu.Lock()
	defer p.mu.Unlock()

	page, ok := p.pages[identity.UserID]
	if !ok {
		page = widgets.NewPage(eventbus.NewBus())
		p.pages[identity.UserID] = page
		page.SignIn(identity.Email, identity.IsAdmin)
		return page
	}
	if sb := page.Sidebar.View(); sb.IsAdmin != identity.IsAdmin {
		page.SignIn(identity.Email, identity.IsAdmin)
	}
	return page
}

// Drop closes the page of a user
func (p *Pages) Drop(userID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if page, ok := p.pages[userID]; ok {
		page.SignOut()
		page.Close()
		delete(p.pages, userID)
	}
}

// Count returns the number of live pages
func (p *Pages) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pages)
}

// Close detaches every page from its bus
func (p *Pages) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, page := range p.pages {
		page.Close()
		delete(p.pages, id)
	}
}
