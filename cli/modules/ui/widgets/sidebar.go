package widgets

import (
	"github.com/fpokrzywa/weaver-live/cli/modules/core/sections"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/eventbus"
)

// Sidebar is the navigation widget. It publishes section changes and layout intents.
type Sidebar struct {
	*mirror
	groups map[sections.Category]bool // Disclosure state per group, local to the widget
}

// ItemView is one sidebar entry
type ItemView struct {
	ID     sections.ID `json:"id"`
	Label  string      `json:"label"`
	Icon   string      `json:"icon"`
	Active bool        `json:"active"`
}

// GroupView is one sidebar group
type GroupView struct {
	Category sections.Category `json:"category"`
	Title    string            `json:"title"`
	Expanded bool              `json:"expanded"`
	Items    []ItemView        `json:"items"`
}

// SidebarView is what the sidebar renders
type SidebarView struct {
	Visible  bool        `json:"visible"`
	Active   sections.ID `json:"active"`
	Greeting string      `json:"greeting"`
	IsAdmin  bool        `json:"is_admin"`
	Groups   []GroupView `json:"groups"`
}

func newSidebar(pub *publisher) *Sidebar {
	s := &Sidebar{
		mirror: newMirror(pub),
		groups: make(map[sections.Category]bool),
	}
	for _, g := range sections.NavGroups(true) {
		s.groups[g.Category] = g.Expanded
	}
	return s
}

// Select announces a section change
func (s *Sidebar) Select(id sections.ID) {
	s.publish(eventbus.NewEvent(eventbus.EventSectionChanged).
		WithSource("sidebar").
		WithData("section", string(id)))
}

// ToggleMainContent announces a main content toggle
func (s *Sidebar) ToggleMainContent() {
	s.publish(eventbus.NewEvent(eventbus.EventToggleMainContent).WithSource("sidebar"))
}

// CollapseAll announces that every panel but the right one should collapse
func (s *Sidebar) CollapseAll() {
	s.publish(eventbus.NewEvent(eventbus.EventCollapseAll).WithSource("sidebar"))
}

// ToggleGroup opens or closes a sidebar group
func (s *Sidebar) ToggleGroup(c sections.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[c] = !s.groups[c]
}

// View returns the sidebar view model
func (s *Sidebar) View() SidebarView {
	snap := s.snapshot()

	s.mu.RLock()
	defer s.mu.RUnlock()

	view := SidebarView{
		Visible:  snap.SidebarVisible,
		Active:   snap.ActiveSection,
		Greeting: snap.Greeting(),
		IsAdmin:  snap.IsAdmin,
	}
	for _, g := range sections.NavGroups(snap.IsAdmin) {
		gv := GroupView{Category: g.Category, Title: g.Title, Expanded: s.groups[g.Category]}
		for _, sec := range g.Sections {
			gv.Items = append(gv.Items, ItemView{
				ID:     sec.ID,
				Label:  sec.Label,
				Icon:   sec.Icon,
				Active: sec.ID == snap.ActiveSection,
			})
		}
		view.Groups = append(view.Groups, gv)
	}
	return view
}

// Close detaches the widget from the bus
func (s *Sidebar) Close() {
	s.close()
}
