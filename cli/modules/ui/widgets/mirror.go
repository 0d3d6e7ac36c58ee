package widgets

import (
	"errors"
	"sync"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/navigation"
	"github.com/fpokrzywa/weaver-live/cli/modules/core/sections"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/eventbus"
)

// ErrPageClosed is returned when an intent reaches a page that was closed
var ErrPageClosed = errors.New("page closed")

// publisher serialises every publish on a page bus, so each transition reaches
// all mirrors before the next one starts. Bus handlers must not publish on the
// same page: delivery is synchronous and the lock is held.
type publisher struct {
	mu     sync.Mutex
	bus    *eventbus.Bus
	closed bool
}

func (p *publisher) publish(e *eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPageClosed
	}
	p.bus.Publish(e)
	return nil
}

func (p *publisher) close() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	was := p.closed
	p.closed = true
	return !was
}

func (p *publisher) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// mirror is the local copy of the navigation state kept by each widget.
// Every widget applies the same events to its own mirror, so the copies agree
// no matter in which order the bus delivers them.
type mirror struct {
	mu    sync.RWMutex
	pub   *publisher
	nav   *navigation.Machine
	subID string
}

func newMirror(pub *publisher) *mirror {
	m := &mirror{pub: pub, nav: navigation.New()}
	m.subID = pub.bus.Subscribe(eventbus.NavigationEvents, m.apply)
	return m
}

func (m *mirror) apply(e *eventbus.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ApplyEvent(m.nav, e)
}

func (m *mirror) snapshot() navigation.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.nav.Snapshot()
}

func (m *mirror) close() {
	m.pub.bus.Unsubscribe(m.subID)
}

// publish must not be called while holding mu: delivery is synchronous and reaches apply.
// Events published after the page closed are dropped.
func (m *mirror) publish(e *eventbus.Event) {
	_ = m.pub.publish(e)
}

// ApplyEvent replays a navigation event onto a Machine. Non-navigation events are ignored.
func ApplyEvent(nav *navigation.Machine, e *eventbus.Event) {
	switch e.Type {
	case eventbus.EventSectionChanged:
		nav.Select(sections.ID(e.String("section")))
	case eventbus.EventToggleMainContent:
		nav.ToggleMainContent()
	case eventbus.EventCollapseAll:
		nav.CollapseAll()
	case eventbus.EventExpandAll:
		nav.ExpandAll()
	case eventbus.EventArticleToggled:
		nav.ToggleArticle(e.String("article"))
	case eventbus.EventSignedIn:
		nav.SignIn(e.String("email"), e.Bool("is_admin"))
	case eventbus.EventSignedOut:
		nav.SignOut()
	}
}

// EventForIntent builds the bus event announcing an intent
func EventForIntent(in navigation.Intent, source string) *eventbus.Event {
	var e *eventbus.Event
	switch in.Kind {
	case navigation.IntentSelect:
		e = eventbus.NewEvent(eventbus.EventSectionChanged).WithData("section", string(in.Section))
	case navigation.IntentToggleMainContent:
		e = eventbus.NewEvent(eventbus.EventToggleMainContent)
	case navigation.IntentCollapseAll:
		e = eventbus.NewEvent(eventbus.EventCollapseAll)
	case navigation.IntentExpandAll:
		e = eventbus.NewEvent(eventbus.EventExpandAll)
	case navigation.IntentToggleArticle:
		e = eventbus.NewEvent(eventbus.EventArticleToggled).WithData("article", in.Article)
	default:
		return nil
	}
	return e.WithSource(source)
}
