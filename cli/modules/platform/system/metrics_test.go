package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCollect(t *testing.T) {
	mc := NewMetricsCollector(0)
	require.Equal(t, "cpu -- mem --", mc.Get().Summary())

	sample := mc.Collect()
	require.Positive(t, sample.NumCPU)
	require.False(t, sample.UpdatedAt.IsZero())
	require.Equal(t, sample, mc.Get())
	require.Contains(t, sample.Summary(), "cpu ")
}

func TestStartStop(t *testing.T) {
	mc := NewMetricsCollector(time.Second)
	mc.Start()
	mc.Start()
	require.False(t, mc.Get().UpdatedAt.IsZero())
	mc.Stop()
	mc.Stop()
}
