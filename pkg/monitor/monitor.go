// Package monitor samples host resource usage while a transcription
// job runs and reports progress alongside the samples.
package monitor

import (
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

const (
	sampleInterval = 2 * time.Second
	maxSamples     = 100
)

// Sample is one point-in-time resource measurement.
type Sample struct {
	Timestamp     time.Time `json:"timestamp"`
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	MemoryUsedMB  float64   `json:"memory_used_mb"`
	Progress      float64   `json:"progress"`
}

// Summary aggregates a finished monitoring run.
type Summary struct {
	ElapsedSeconds   float64 `json:"elapsed_seconds"`
	AvgCPUPercent    float64 `json:"avg_cpu_percent"`
	PeakCPUPercent   float64 `json:"peak_cpu_percent"`
	AvgMemoryPercent float64 `json:"avg_memory_percent"`
	PeakMemoryMB     float64 `json:"peak_memory_mb"`
	SampleCount      int     `json:"sample_count"`
}

// Monitor periodically samples CPU and memory usage in a background
// goroutine. All methods are safe on a nil receiver so callers can
// pass a disabled monitor without guarding every call site.
type Monitor struct {
	logger *zap.Logger

	mu       sync.Mutex
	samples  []Sample
	progress float64
	started  time.Time
	stopped  time.Time

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates an idle monitor. Call Start to begin sampling.
func New(logger *zap.Logger) *Monitor {
	return &Monitor{logger: logger}
}

// Start launches the sampling loop. Calling Start on a running monitor
// is a no-op.
func (m *Monitor) Start() {
	if m == nil {
		return
	}
	m.mu.Lock()
	if m.stopCh != nil {
		m.mu.Unlock()
		return
	}
	m.stopCh = make(chan struct{})
	m.started = time.Now()
	m.stopped = time.Time{}
	m.samples = nil
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run()
}

// Stop ends the sampling loop and waits for it to exit.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}
	m.mu.Lock()
	if m.stopCh == nil {
		m.mu.Unlock()
		return
	}
	close(m.stopCh)
	m.stopCh = nil
	m.stopped = time.Now()
	m.mu.Unlock()

	m.wg.Wait()
}

// UpdateProgress records the pipeline's completion fraction in [0, 1].
// The value is attached to subsequent samples.
func (m *Monitor) UpdateProgress(fraction float64) {
	if m == nil {
		return
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	m.mu.Lock()
	m.progress = fraction
	m.mu.Unlock()
}

// Progress returns the last recorded completion fraction.
func (m *Monitor) Progress() float64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress
}

func (m *Monitor) run() {
	defer m.wg.Done()

	m.mu.Lock()
	stopCh := m.stopCh
	m.mu.Unlock()
	if stopCh == nil {
		return
	}

	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			m.record(m.sample())
		}
	}
}

func (m *Monitor) sample() Sample {
	s := Sample{Timestamp: time.Now()}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		s.CPUPercent = percents[0]
	} else if err != nil && m.logger != nil {
		m.logger.Debug("cpu sample failed", zap.Error(err))
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemoryPercent = vm.UsedPercent
		s.MemoryUsedMB = float64(vm.Used) / (1024 * 1024)
	} else if m.logger != nil {
		m.logger.Debug("memory sample failed", zap.Error(err))
	}

	m.mu.Lock()
	s.Progress = m.progress
	m.mu.Unlock()
	return s
}

func (m *Monitor) record(s Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, s)
	if len(m.samples) > maxSamples {
		m.samples = m.samples[len(m.samples)-maxSamples:]
	}
}

// Samples returns a copy of the retained samples, oldest first.
func (m *Monitor) Samples() []Sample {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sample, len(m.samples))
	copy(out, m.samples)
	return out
}

// Summarize aggregates the retained samples. Safe to call while
// running or after Stop.
func (m *Monitor) Summarize() Summary {
	if m == nil {
		return Summary{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	sum := Summary{SampleCount: len(m.samples)}
	if !m.started.IsZero() {
		end := m.stopped
		if end.IsZero() {
			end = time.Now()
		}
		sum.ElapsedSeconds = end.Sub(m.started).Seconds()
	}
	if len(m.samples) == 0 {
		return sum
	}

	var cpuTotal, memTotal float64
	for _, s := range m.samples {
		cpuTotal += s.CPUPercent
		memTotal += s.MemoryPercent
		if s.CPUPercent > sum.PeakCPUPercent {
			sum.PeakCPUPercent = s.CPUPercent
		}
		if s.MemoryUsedMB > sum.PeakMemoryMB {
			sum.PeakMemoryMB = s.MemoryUsedMB
		}
	}
	sum.AvgCPUPercent = cpuTotal / float64(len(m.samples))
	sum.AvgMemoryPercent = memTotal / float64(len(m.samples))
	return sum
}
