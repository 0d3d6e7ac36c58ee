package logger

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fpokrzywa/weaver-live/cli/modules/platform/eventbus"
	"github.com/stretchr/testify/require"
)

type captured struct{ lines []Line }

func (c *captured) BroadcastLog(line Line) { c.lines = append(c.lines, line) }

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewLogger(WARN, []io.Writer{&buf}, "test")
	l.Info("hidden")
	l.Warn("shown %d", 1)
	l.Error("plain")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "WARN: shown 1")
	require.Contains(t, out, "ERROR: plain")

	l.SetLevel(DEBUG)
	l.Debug("now visible")
	require.Contains(t, buf.String(), "DEBUG: now visible")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	require.Equal(t, DEBUG, ParseLevel("DEBUG"))
	require.Equal(t, WARN, ParseLevel("warning"))
	require.Equal(t, ERROR, ParseLevel("error"))
	require.Equal(t, INFO, ParseLevel("bogus"))
	require.Equal(t, "warn", WARN.String())
}

func TestBroadcaster(t *testing.T) {
	t.Parallel()

	c := &captured{}
	l := NewLogger(INFO, nil, "api")
	l.SetBroadcaster(c)
	l.Info("user %s created", "a@example.com")

	require.Len(t, c.lines, 1)
	require.Equal(t, "api", c.lines[0].Source)
	require.Equal(t, "info", c.lines[0].Level)
	require.Equal(t, "user a@example.com created", c.lines[0].Message)
}

func TestBusBroadcaster(t *testing.T) {
	t.Parallel()

	bus := eventbus.NewBus()
	var got []*eventbus.Event
	bus.Subscribe([]eventbus.EventType{eventbus.EventLogLine}, func(e *eventbus.Event) {
		got = append(got, e)
	})

	l := NewLogger(DEBUG, nil, "tui")
	l.SetBroadcaster(BusBroadcaster{Bus: bus})
	l.Warn("disk almost full")

	require.Len(t, got, 1)
	require.Equal(t, "tui", got[0].Source)
	require.Equal(t, "warn", got[0].String("level"))
	require.Equal(t, "disk almost full", got[0].String("message"))
}

func TestCreateLogFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "weaver.log")
	w, err := CreateLogFile(path, FileOptions{MaxSizeMB: 1})
	require.NoError(t, err)

	l := NewLogger(INFO, []io.Writer{w}, "test")
	l.Info("written to disk")
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "written to disk")
}
