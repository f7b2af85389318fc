package logic

import "time"

// DefaultRuntimeEvery is how many poll cycles pass between live runtime updates.
const DefaultRuntimeEvery = 10

// Config holds the tuning of the monitor, in poll cycles.
type Config struct {
	RelayThreshold  int
	InsertThreshold int
	RuntimeEvery    int
	Watchdog        WatchdogConfig
}

// DefaultConfig returns the tuning used on the wash controller.
func DefaultConfig() Config {
	return Config{
		RelayThreshold:  DefaultRelayThreshold,
		InsertThreshold: DefaultInsertThreshold,
		RuntimeEvery:    DefaultRuntimeEvery,
		Watchdog:        DefaultWatchdogConfig(),
	}
}

// Monitor runs the four bay state machines and the watchdog over successive polls.
type Monitor struct {
	bays         [NumBays]Bay
	watchdog     Watchdog
	runtimeEvery int
	cycle        int

	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewMonitor creates a monitor with every bay idle.
// The startTime is used for calculating uptime in heartbeat events.
func NewMonitor(cfg Config, startTime time.Time) *Monitor {
	m := &Monitor{
		watchdog:      NewWatchdog(cfg.Watchdog),
		runtimeEvery:  cfg.RuntimeEvery,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
	if m.runtimeEvery < 1 {
		m.runtimeEvery = DefaultRuntimeEvery
	}
	for i := range m.bays {
		m.bays[i] = NewBay(i+1, cfg.RelayThreshold, cfg.InsertThreshold)
	}
	return m
}

// Process takes one poll of every line and returns the events to apply, in order:
// bay 1 through 4, then the watchdog.
func (m *Monitor) Process(input Input) []Event {
	m.cycle++
	runtimeDue := m.cycle >= m.runtimeEvery
	if runtimeDue {
		m.cycle = 0
	}

	var events []Event
	for i := range m.bays {
		events = append(events, m.bays[i].Process(input.Bays[i], input.Time, runtimeDue)...)
	}
	events = append(events, m.watchdog.Process(input.Reboot, input.Wipe, input.Time)...)

	for _, e := range events {
		switch e.Type {
		case EventSession:
			m.eventCounts.Sessions++
		case EventMaintenanceInsert:
			m.eventCounts.MaintenanceInserts++
		case EventRestart:
			m.eventCounts.Restarts++
		case EventPowerOff:
			m.eventCounts.PowerOffs++
		case EventWipe:
			m.eventCounts.Wipes++
		}
	}

	return events
}

// Bays returns the current state of every bay.
func (m *Monitor) Bays() [NumBays]BayStatus {
	var out [NumBays]BayStatus
	for i := range m.bays {
		out[i] = m.bays[i].Status()
	}
	return out
}

// WatchdogCounts returns the current reboot and wipe hold counts.
func (m *Monitor) WatchdogCounts() (reboot, wipe int) {
	return m.watchdog.Counts()
}

// EventCountsSnapshot returns the event counters since startup.
func (m *Monitor) EventCountsSnapshot() EventCounts {
	return m.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed, or
// if interval is <= 0 (disabled).
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.eventCounts,
	}
}
