package widgets

import (
	"fmt"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/sections"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/eventbus"
)

// RightPanel is the assistant widget: prompts, model selector and query input
type RightPanel struct {
	*mirror
	showPrompts bool
	model       string
	query       string
}

// RightPanelView is what the right panel renders
type RightPanelView struct {
	Visible     bool     `json:"visible"`
	Expanded    bool     `json:"expanded"`
	FullScreen  bool     `json:"full_screen"`
	ShowPrompts bool     `json:"show_prompts"`
	Prompts     []string `json:"prompts,omitempty"`
	Model       string   `json:"model"`
	Query       string   `json:"query"`
}

func newRightPanel(pub *publisher) *RightPanel {
	return &RightPanel{
		mirror: newMirror(pub),
		model:  sections.DefaultModel,
	}
}

// ExpandAll announces that the sidebar and main content should reopen
func (r *RightPanel) ExpandAll() {
	r.publish(eventbus.NewEvent(eventbus.EventExpandAll).WithSource("right_panel"))
}

// TogglePrompts shows or hides the sample prompts
func (r *RightPanel) TogglePrompts() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.showPrompts = !r.showPrompts
}

// SelectModel switches the assistant model
func (r *RightPanel) SelectModel(name string) error {
	for _, m := range sections.Models() {
		if m.Name == name {
			r.mu.Lock()
			r.model = name
			r.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("unknown model: %s", name)
}

// SetQuery stores the text typed in the assistant input
func (r *RightPanel) SetQuery(q string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.query = q
}

// View returns the right panel view model
func (r *RightPanel) View() RightPanelView {
	snap := r.snapshot()

	r.mu.RLock()
	defer r.mu.RUnlock()

	view := RightPanelView{
		Visible:     snap.RightPanelVisible,
		Expanded:    snap.RightPanelExpanded,
		FullScreen:  snap.RightPanelFullScreen,
		ShowPrompts: r.showPrompts,
		Model:       r.model,
		Query:       r.query,
	}
	if r.showPrompts {
		view.Prompts = sections.SamplePrompts()
	}
	return view
}

// Close detaches the widget from the bus
func (r *RightPanel) Close() {
	r.close()
}
