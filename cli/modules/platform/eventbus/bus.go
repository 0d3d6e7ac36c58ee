package eventbus

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType identifies the type of event
type EventType string

const (
	// Navigation intents broadcast by the sidebar and right panel
	EventSectionChanged    EventType = "section_changed"
	EventToggleMainContent EventType = "toggle_main_content"
	EventCollapseAll       EventType = "collapse_all"
	EventExpandAll         EventType = "expand_all"
	EventArticleToggled    EventType = "article_toggled"

	// Identity events
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"

	// Account changes made through the admin console
	EventAccountsUpdated EventType = "accounts_updated"

	// Notification events
	EventNotification EventType = "notification"

	// Log events
	EventLogLine EventType = "log_line"
)

// NavigationEvents are the event types that drive panel layout
var NavigationEvents = []EventType{
	EventSectionChanged,
	EventToggleMainContent,
	EventCollapseAll,
	EventExpandAll,
	EventArticleToggled,
	EventSignedIn,
	EventSignedOut,
}

// Event represents an event in the system
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewEvent creates a new event
func NewEvent(eventType EventType) *Event {
	return &Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      make(map[string]interface{}),
	}
}

// WithSource sets the source
func (e *Event) WithSource(source string) *Event {
	e.Source = source
	return e
}

// WithData adds data to the event
func (e *Event) WithData(key string, value interface{}) *Event {
	if e.Data == nil {
		e.Data = make(map[string]interface{})
	}
	e.Data[key] = value
	return e
}

// String returns a data field as a string, or "" when absent
func (e *Event) String(key string) string {
	v, ok := e.Data[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool returns a data field as a bool, or false when absent
func (e *Event) Bool(key string) bool {
	b, _ := e.Data[key].(bool)
	return b
}

// JSON returns the event as JSON
func (e *Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// Subscriber is a function that handles events
type Subscriber func(event *Event)

// Subscription represents a subscription to events
type Subscription struct {
	id         string
	eventTypes []EventType // nil means all events
	handler    Subscriber
}

// Bus is an in-process event bus. Handlers run synchronously in the publisher's
// goroutine, so every subscriber has seen an event when Publish returns.
// Handlers may publish or subscribe from inside a callback.
type Bus struct {
	mu           sync.RWMutex
	subscribers  map[string]*Subscription
	eventHistory []*Event
	historyLimit int
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		subscribers:  make(map[string]*Subscription),
		eventHistory: make([]*Event, 0),
		historyLimit: 1000,
	}
}

// Subscribe registers a subscriber for specific event types
// Pass nil for eventTypes to subscribe to all events
func (b *Bus) Subscribe(eventTypes []EventType, handler Subscriber) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	b.subscribers[id] = &Subscription{
		id:         id,
		eventTypes: eventTypes,
		handler:    handler,
	}

	return id
}

// Unsubscribe removes a subscriber
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, id)
}

// SubscriberCount returns the number of live subscriptions
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Publish records the event and delivers it to every matching subscriber before returning.
// Delivery order among subscribers is unspecified.
func (b *Bus) Publish(event *Event) {
	b.mu.Lock()
	b.eventHistory = append(b.eventHistory, event)
	if len(b.eventHistory) > b.historyLimit {
		b.eventHistory = b.eventHistory[1:]
	}
	subscribers := make([]*Subscription, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		if matchesSubscription(event, sub) {
			subscribers = append(subscribers, sub)
		}
	}
	b.mu.Unlock()

	for _, sub := range subscribers {
		sub.handler(event)
	}
}

// matchesSubscription checks if an event matches a subscription
func matchesSubscription(event *Event, sub *Subscription) bool {
	if sub.eventTypes == nil {
		return true
	}

	for _, et := range sub.eventTypes {
		if et == event.Type {
			return true
		}
	}
	return false
}

// GetHistory returns recent events
func (b *Bus) GetHistory(limit int) []*Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if limit <= 0 || limit > len(b.eventHistory) {
		limit = len(b.eventHistory)
	}

	start := len(b.eventHistory) - limit
	result := make([]*Event, limit)
	copy(result, b.eventHistory[start:])
	return result
}

// GetHistoryByType returns recent events of specific types
func (b *Bus) GetHistoryByType(eventTypes []EventType, limit int) []*Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]*Event, 0)
	typeSet := make(map[EventType]bool)
	for _, et := range eventTypes {
		typeSet[et] = true
	}

	for i := len(b.eventHistory) - 1; i >= 0 && (limit <= 0 || len(result) < limit); i-- {
		if typeSet[b.eventHistory[i].Type] {
			result = append([]*Event{b.eventHistory[i]}, result...)
		}
	}

	return result
}
