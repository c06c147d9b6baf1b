// Package observability counts what the desk does at runtime.
// Counters are plain atomics, read through GetLatest and logged periodically by Run.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// MonitoringStats is a point in time copy of every counter.
type MonitoringStats struct {
	// --- SYNCHRONIZER ---
	ListPolls     uint64 `json:"list_polls"`
	MessagePolls  uint64 `json:"message_polls"`
	StaleDiscards uint64 `json:"stale_discards"`
	PollFailures  uint64 `json:"poll_failures"`
	SendFailures  uint64 `json:"send_failures"`

	// --- FANOUT ---
	EventsPublished uint64 `json:"events_published"`
	EventsDelivered uint64 `json:"events_delivered"`
	EventsDropped   uint64 `json:"events_dropped"`
	ActiveStreams   int64  `json:"active_streams"`

	// --- SYSTEM ---
	AllocMemMb uint64       `json:"alloc_mem_mb"`
	NumGC      uint32       `json:"num_gc"`
	Process    ProcessStats `json:"process"`
}

type MonitoringManager struct {
	log      *slog.Logger
	interval time.Duration

	listPolls       atomic.Uint64
	messagePolls    atomic.Uint64
	staleDiscards   atomic.Uint64
	pollFailures    atomic.Uint64
	sendFailures    atomic.Uint64
	eventsPublished atomic.Uint64
	eventsDelivered atomic.Uint64
	eventsDropped   atomic.Uint64
	activeStreams   atomic.Int64

	mu      sync.Mutex
	process ProcessStats
}

func NewMonitoringManager(log *slog.Logger, interval time.Duration) *MonitoringManager {
	return &MonitoringManager{log: log, interval: interval}
}

func (mm *MonitoringManager) IncrListPolls()       { mm.listPolls.Add(1) }
func (mm *MonitoringManager) IncrMessagePolls()    { mm.messagePolls.Add(1) }
func (mm *MonitoringManager) IncrStaleDiscards()   { mm.staleDiscards.Add(1) }
func (mm *MonitoringManager) IncrPollFailures()    { mm.pollFailures.Add(1) }
func (mm *MonitoringManager) IncrSendFailures()    { mm.sendFailures.Add(1) }
func (mm *MonitoringManager) IncrEventsPublished() { mm.eventsPublished.Add(1) }
func (mm *MonitoringManager) IncrEventsDelivered() { mm.eventsDelivered.Add(1) }
func (mm *MonitoringManager) IncrEventsDropped()   { mm.eventsDropped.Add(1) }

// StreamOpened returns the func closing the stream in the counters.
func (mm *MonitoringManager) StreamOpened() func() {
	mm.activeStreams.Add(1)
	return func() { mm.activeStreams.Add(-1) }
}

func (mm *MonitoringManager) GetLatest() MonitoringStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	mm.mu.Lock()
	process := mm.process
	mm.mu.Unlock()
	return MonitoringStats{
		ListPolls:       mm.listPolls.Load(),
		MessagePolls:    mm.messagePolls.Load(),
		StaleDiscards:   mm.staleDiscards.Load(),
		PollFailures:    mm.pollFailures.Load(),
		SendFailures:    mm.sendFailures.Load(),
		EventsPublished: mm.eventsPublished.Load(),
		EventsDelivered: mm.eventsDelivered.Load(),
		EventsDropped:   mm.eventsDropped.Load(),
		ActiveStreams:   mm.activeStreams.Load(),
		AllocMemMb:      m.Alloc / 1024 / 1024,
		NumGC:           m.NumGC,
		Process:         process,
	}
}

// sampleProcess refreshes the OS stats, they are only read on the monitoring tick.
func (mm *MonitoringManager) sampleProcess() {
	stats, err := selfStats()
	if err != nil {
		mm.log.Debug("Process stats unavailable", "error", err)
		return
	}
	mm.mu.Lock()
	mm.process = stats
	mm.mu.Unlock()
}

// ToMap flattens the latest stats for the inspect page.
func (mm *MonitoringManager) ToMap() map[string]any {
	stats := mm.GetLatest()
	return map[string]any{
		"List polls":       stats.ListPolls,
		"Message polls":    stats.MessagePolls,
		"Stale discards":   stats.StaleDiscards,
		"Poll failures":    stats.PollFailures,
		"Send failures":    stats.SendFailures,
		"Events published": stats.EventsPublished,
		"Events delivered": stats.EventsDelivered,
		"Events dropped":   stats.EventsDropped,
		"Active streams":   stats.ActiveStreams,
		"Memory (MB)":      stats.AllocMemMb,
		"RSS (MB)":         stats.Process.RSSBytes / 1024 / 1024,
		"CPU (%)":          fmt.Sprintf("%.1f", stats.Process.CPUPercent),
		"Process status":   stats.Process.Status,
	}
}

// Run logs the counters every interval until the context is done.
func (mm *MonitoringManager) Run(ctx context.Context) error {
	ticker := time.NewTicker(mm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			mm.log.Debug("Monitoring manager stopped")
			return nil
		case <-ticker.C:
			mm.sampleProcess()
			stats := mm.GetLatest()
			mm.log.Debug("Stats updated",
				"list_polls", stats.ListPolls,
				"message_polls", stats.MessagePolls,
				"stale_discards", stats.StaleDiscards,
				"poll_failures", stats.PollFailures,
				"send_failures", stats.SendFailures,
				"events_published", stats.EventsPublished,
				"events_dropped", stats.EventsDropped,
				"active_streams", stats.ActiveStreams,
				"mem_mb", stats.AllocMemMb,
				"rss_mb", stats.Process.RSSBytes/1024/1024,
				"cpu_percent", stats.Process.CPUPercent,
			)
		}
	}
}
