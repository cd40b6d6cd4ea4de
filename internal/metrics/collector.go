package metrics

import (
	"sync"
	"time"

	"webm2mp4/internal/logging"
)

// DirUsage is a point-in-time count of files in one temporary directory.
type DirUsage struct {
	Files int
	Bytes int64
}

// StatsProvider interface for collecting stats
type StatsProvider interface {
	Usage() map[string]DirUsage
}

// Collector periodically samples temporary directory usage. A steadily
// growing file count with no conversions in flight points at leaked
// artifacts.
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection. It is safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	for dir, usage := range c.statsProvider.Usage() {
		WorkspaceFiles.WithLabelValues(dir).Set(float64(usage.Files))
		WorkspaceBytes.WithLabelValues(dir).Set(float64(usage.Bytes))
		logging.Debug("Workspace usage: %s files=%d bytes=%d", dir, usage.Files, usage.Bytes)
	}
}
