package widgets

import (
	"github.com/fpokrzywa/weaver-live/cli/modules/core/sections"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/eventbus"
)

// MainContent is the central widget showing the active find-answers section
type MainContent struct {
	*mirror
}

// ArticleView is one knowledge article with its disclosure state
type ArticleView struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body,omitempty"`
	Expanded bool   `json:"expanded"`
}

// MainContentView is what the main content renders
type MainContentView struct {
	Active       sections.ID          `json:"active"`
	Collapsed    bool                 `json:"collapsed"`
	Visible      bool                 `json:"visible"`
	AdminVisible bool                 `json:"admin_visible"`
	Content      sections.ContentKind `json:"content"`
	Display      sections.Display     `json:"display"`
	Articles     []ArticleView        `json:"articles,omitempty"`
}

func newMainContent(pub *publisher) *MainContent {
	return &MainContent{mirror: newMirror(pub)}
}

// ToggleArticle announces an article disclosure toggle
func (m *MainContent) ToggleArticle(id string) {
	m.publish(eventbus.NewEvent(eventbus.EventArticleToggled).
		WithSource("main_content").
		WithData("article", id))
}

// View returns the main content view model
func (m *MainContent) View() MainContentView {
	snap := m.snapshot()
	view := MainContentView{
		Active:       snap.ActiveSection,
		Collapsed:    snap.MainContentCollapsed,
		Visible:      snap.MainContentVisible,
		AdminVisible: snap.AdminVisible,
		Content:      snap.Content,
		Display:      snap.Display,
	}
	if snap.Content == sections.ContentArticles {
		for _, a := range sections.Articles() {
			av := ArticleView{ID: a.ID, Title: a.Title, Expanded: snap.ArticleExpanded(a.ID)}
			if av.Expanded {
				av.Body = a.Body
			}
			view.Articles = append(view.Articles, av)
		}
	}
	return view
}

// Close detaches the widget from the bus
func (m *MainContent) Close() {
	m.close()
}
