// Package status provides a thread-safe status tracker for the bay-monitor daemon.
// It is written by the monitor loop and read by HTTP handlers and MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/carwash-monitor/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs          int64
	RelayThreshold  int
	InsertThreshold int
	RuntimeEvery    int
	HeartbeatMs     int64
	DB              string
	Broker          string
	HTTPAddr        string
	DryRun          bool
}

// WatchdogCounts holds the service button hold counters.
type WatchdogCounts struct {
	Reboot int
	Wipe   int
}

// Snapshot is a point-in-time view of daemon state.
// A value copy, safe to use after the lock is released.
type Snapshot struct {
	Bays          [logic.NumBays]logic.BayStatus
	Counts        logic.EventCounts
	Watchdog      WatchdogCounts
	Polls         uint64
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	t := &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
	for i := range t.snap.Bays {
		t.snap.Bays[i] = logic.BayStatus{Bay: i + 1, Timer: logic.StateIdle, Pump: logic.StateIdle}
	}
	return t
}

// Update sets bay states, event counts, and watchdog counters.
// Called from runLoop on every tick.
func (t *Tracker) Update(bays [logic.NumBays]logic.BayStatus, counts logic.EventCounts, watchdog WatchdogCounts) {
	t.mu.Lock()
	t.snap.Bays = bays
	t.snap.Counts = counts
	t.snap.Watchdog = watchdog
	t.snap.Polls++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
