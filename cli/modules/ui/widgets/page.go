package widgets

import (
	"fmt"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/navigation"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/eventbus"
)

// Page hosts the three widgets on one bus. Every publish, from Dispatch or
// from a widget method, goes through the page lock.
type Page struct {
	pub         *publisher
	Sidebar     *Sidebar
	MainContent *MainContent
	RightPanel  *RightPanel
}

// PageView aggregates the view models of every widget
type PageView struct {
	Sidebar     SidebarView     `json:"sidebar"`
	MainContent MainContentView `json:"main_content"`
	RightPanel  RightPanelView  `json:"right_panel"`
}

// NewPage creates the widgets and subscribes them to bus
func NewPage(bus *eventbus.Bus) *Page {
	pub := &publisher{bus: bus}
	return &Page{
		pub:         pub,
		Sidebar:     newSidebar(pub),
		MainContent: newMainContent(pub),
		RightPanel:  newRightPanel(pub),
	}
}

// Bus returns the bus the widgets listen on
func (p *Page) Bus() *eventbus.Bus {
	return p.pub.bus
}

// Dispatch publishes an intent. It returns ErrPageClosed once the page is closed.
func (p *Page) Dispatch(in navigation.Intent, source string) error {
	e := EventForIntent(in, source)
	if e == nil {
		return fmt.Errorf("unknown intent: %q", in.Kind)
	}
	if in.Kind == navigation.IntentSelect && in.Section == "" {
		return fmt.Errorf("select intent requires a section")
	}
	if in.Kind == navigation.IntentToggleArticle && in.Article == "" {
		return fmt.Errorf("toggle_article intent requires an article")
	}

	return p.pub.publish(e)
}

// SignIn announces an identity to every widget
func (p *Page) SignIn(email string, isAdmin bool) {
	_ = p.pub.publish(eventbus.NewEvent(eventbus.EventSignedIn).
		WithSource("auth").
		WithData("email", email).
		WithData("is_admin", isAdmin))
}

// SignOut resets every widget
func (p *Page) SignOut() {
	_ = p.pub.publish(eventbus.NewEvent(eventbus.EventSignedOut).WithSource("auth"))
}

// View returns the current view of every widget
func (p *Page) View() PageView {
	return PageView{
		Sidebar:     p.Sidebar.View(),
		MainContent: p.MainContent.View(),
		RightPanel:  p.RightPanel.View(),
	}
}

// Closed reports whether Close was called
func (p *Page) Closed() bool {
	return p.pub.isClosed()
}

// Close detaches every widget from the bus. Later publishes are dropped.
func (p *Page) Close() {
	if !p.pub.close() {
		return
	}
	p.Sidebar.Close()
	p.MainContent.Close()
	p.RightPanel.Close()
}
