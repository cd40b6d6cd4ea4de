package memory

import (
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"webm2mp4/internal/logging"
	"webm2mp4/internal/metrics"
)

// Config holds memory monitoring configuration
type Config struct {
	// MemoryLimitBytes is the soft memory limit (0 = use GOMEMLIMIT or no limit)
	MemoryLimitBytes int64

	// HighWaterMark is the fraction of the limit below which pressure clears (0.0-1.0)
	HighWaterMark float64

	// CriticalWaterMark is the fraction of the limit at which the service
	// reports itself as under pressure (0.0-1.0)
	CriticalWaterMark float64

	// CheckInterval is how often to check memory usage
	CheckInterval time.Duration
}

// DefaultConfig returns sensible defaults for memory monitoring
func DefaultConfig() Config {
	return Config{
		MemoryLimitBytes:  0,
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     5 * time.Second,
	}
}

// Monitor samples heap usage against the memory limit. While usage sits
// above the critical mark the service reports not-ready, so that load
// balancers stop sending uploads until it drops back below the high mark.
type Monitor struct {
	config   Config
	limit    int64
	stopChan chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	current  uint64
	pressure bool

	readMemStats func(*runtime.MemStats)
}

// NewMonitor creates a new memory monitor
func NewMonitor(config Config) *Monitor {
	limit := config.MemoryLimitBytes

	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < 1<<62 {
			limit = goMemLimit
			logging.Info("Memory monitor using GOMEMLIMIT: %s", formatBytes(limit))
		}
	}

	if limit == 0 {
		logging.Info("Memory monitor: no memory limit configured, pressure reporting disabled")
	}

	return &Monitor{
		config:       config,
		limit:        limit,
		stopChan:     make(chan struct{}),
		readMemStats: runtime.ReadMemStats,
	}
}

// Start begins monitoring memory usage
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}

	go m.monitorLoop()
}

// Stop stops the memory monitor. It is safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
}

func (m *Monitor) monitorLoop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.checkMemory()
		case <-m.stopChan:
			return
		}
	}
}

func (m *Monitor) checkMemory() {
	var stats runtime.MemStats
	m.readMemStats(&stats)

	m.mu.Lock()
	m.current = stats.HeapAlloc
	wasUnderPressure := m.pressure

	if m.limit > 0 {
		usage := float64(stats.HeapAlloc) / float64(m.limit)
		metrics.MemoryUsageRatio.Set(usage)

		switch {
		case usage >= m.config.CriticalWaterMark && !m.pressure:
			logging.Warn("Memory critical (%.1f%% of limit), reporting not ready", usage*100)
			m.pressure = true
			metrics.MemoryPressure.Set(1)
			metrics.MemoryGCRuns.Inc()
			go runtime.GC()
		case usage < m.config.HighWaterMark && m.pressure:
			logging.Info("Memory recovered (%.1f%% of limit), reporting ready", usage*100)
			m.pressure = false
			metrics.MemoryPressure.Set(0)
		}
	}
	pressure := m.pressure
	m.mu.Unlock()

	if pressure != wasUnderPressure {
		logging.Debug("Memory state changed: pressure=%v, heap=%s", pressure, formatBytes(int64(min(stats.HeapAlloc, math.MaxInt64))))
	}
}

// UnderPressure reports whether heap usage crossed the critical mark and has
// not yet fallen back below the high mark.
func (m *Monitor) UnderPressure() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pressure
}

// GetStats returns current memory statistics
func (m *Monitor) GetStats() (current, limit int64, usage float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var currentInt64 int64
	if m.current > math.MaxInt64 {
		currentInt64 = math.MaxInt64
	} else {
		currentInt64 = int64(m.current)
	}

	var usageRatio float64
	if m.limit > 0 {
		usageRatio = float64(m.current) / float64(m.limit)
	}

	return currentInt64, m.limit, usageRatio
}
