package system

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// Metrics is a host resource sample shown in the status bar and health endpoint
type Metrics struct {
	CPUPercent float64   `json:"cpu_percent"`
	MemUsedGB  float64   `json:"mem_used_gb"`
	MemTotalGB float64   `json:"mem_total_gb"`
	MemPercent float64   `json:"mem_percent"`
	LoadAvg1   float64   `json:"load_avg_1"`
	NumCPU     int       `json:"num_cpu"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Summary formats the sample for a one-line status bar
func (m Metrics) Summary() string {
	if m.UpdatedAt.IsZero() {
		return "cpu -- mem --"
	}
	return fmt.Sprintf("cpu %.0f%% mem %.1f/%.1fG load %.2f", m.CPUPercent, m.MemUsedGB, m.MemTotalGB, m.LoadAvg1)
}

// MetricsCollector samples host metrics periodically
type MetricsCollector struct {
	mu          sync.RWMutex
	metrics     Metrics
	refreshRate time.Duration
	stopCh      chan struct{}
	running     bool
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(refreshRate time.Duration) *MetricsCollector {
	if refreshRate < time.Second {
		refreshRate = time.Second
	}
	return &MetricsCollector{
		refreshRate: refreshRate,
		stopCh:      make(chan struct{}),
		metrics:     Metrics{NumCPU: runtime.NumCPU()},
	}
}

// Start begins collecting metrics periodically
func (mc *MetricsCollector) Start() {
	mc.mu.Lock()
	if mc.running {
		mc.mu.Unlock()
		return
	}
	mc.running = true
	mc.mu.Unlock()

	mc.Collect()

	go func() {
		ticker := time.NewTicker(mc.refreshRate)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				mc.Collect()
			case <-mc.stopCh:
				return
			}
		}
	}()
}

// Stop stops the metrics collection
func (mc *MetricsCollector) Stop() {
	mc.mu.Lock()
	if mc.running {
		mc.running = false
		close(mc.stopCh)
	}
	mc.mu.Unlock()
}

// Get returns the latest sample
func (mc *MetricsCollector) Get() Metrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.metrics
}

// Collect takes one sample synchronously
func (mc *MetricsCollector) Collect() Metrics {
	sample := Metrics{NumCPU: runtime.NumCPU(), UpdatedAt: time.Now()}

	// Non-blocking: compares against the previous call
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		sample.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		sample.MemTotalGB = float64(vm.Total) / 1024 / 1024 / 1024
		sample.MemUsedGB = float64(vm.Used) / 1024 / 1024 / 1024
		sample.MemPercent = vm.UsedPercent
	}

	// Load average is unavailable on Windows
	if avg, err := load.Avg(); err == nil {
		sample.LoadAvg1 = avg.Load1
	}

	mc.mu.Lock()
	mc.metrics = sample
	mc.mu.Unlock()
	return sample
}
