package eventbus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishIsSynchronous(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var got []string
	bus.Subscribe([]EventType{EventSectionChanged}, func(e *Event) {
		got = append(got, e.String("section"))
	})

	bus.Publish(NewEvent(EventSectionChanged).WithData("section", "time-off"))
	require.Equal(t, []string{"time-off"}, got)
}

func TestSubscriptionFiltersByType(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var typed, all int
	bus.Subscribe([]EventType{EventCollapseAll}, func(*Event) { typed++ })
	bus.Subscribe(nil, func(*Event) { all++ })

	bus.Publish(NewEvent(EventCollapseAll))
	bus.Publish(NewEvent(EventExpandAll))

	require.Equal(t, 1, typed)
	require.Equal(t, 2, all)
}

func TestUnsubscribe(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	calls := 0
	id := bus.Subscribe(nil, func(*Event) { calls++ })
	require.Equal(t, 1, bus.SubscriberCount())

	bus.Unsubscribe(id)
	bus.Publish(NewEvent(EventExpandAll))
	require.Zero(t, calls)
	require.Zero(t, bus.SubscriberCount())
}

func TestHandlersMayPublish(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var seen []EventType
	bus.Subscribe([]EventType{EventSignedOut}, func(*Event) {
		bus.Publish(NewEvent(EventSectionChanged).WithData("section", "knowledge-articles"))
	})
	bus.Subscribe(nil, func(e *Event) { seen = append(seen, e.Type) })

	bus.Publish(NewEvent(EventSignedOut))
	require.Contains(t, seen, EventSectionChanged)
	require.Contains(t, seen, EventSignedOut)
}

func TestHistory(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	bus.Publish(NewEvent(EventCollapseAll))
	bus.Publish(NewEvent(EventExpandAll))
	bus.Publish(NewEvent(EventCollapseAll).WithSource("sidebar"))

	require.Len(t, bus.GetHistory(0), 3)
	last := bus.GetHistory(1)
	require.Len(t, last, 1)
	require.Equal(t, "sidebar", last[0].Source)

	collapses := bus.GetHistoryByType([]EventType{EventCollapseAll}, 10)
	require.Len(t, collapses, 2)
	require.Equal(t, "", collapses[0].Source)
}

func TestEventAccessors(t *testing.T) {
	t.Parallel()

	e := NewEvent(EventArticleToggled).WithData("article", "us-leave").WithData("expanded", true).WithData("n", 3)
	require.Equal(t, "us-leave", e.String("article"))
	require.Equal(t, "3", e.String("n"))
	require.Equal(t, "", e.String("missing"))
	require.True(t, e.Bool("expanded"))

	data, err := e.JSON()
	require.NoError(t, err)
	require.Contains(t, string(data), `"type":"article_toggled"`)
}
