// Package logic contains the pure bay monitoring state machine.
// This package has NO external dependencies (no GPIO, SQL, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// NumBays is the number of wash bays wired to the controller.
const NumBays = 4

// Level is the raw logic level of a digital input line.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "HIGH"
	}
	return "LOW"
}

// State represents the logical state of a timer or pump sub-machine.
type State string

const (
	StateIdle    State = "IDLE"
	StateRunning State = "RUNNING"
)

// EventType identifies what an Event asks the caller to persist or perform.
type EventType string

const (
	// Bay events.
	EventTimerOn           EventType = "TIMER_ON"
	EventTimerOff          EventType = "TIMER_OFF"
	EventPumpOn            EventType = "PUMP_ON"
	EventPumpOff           EventType = "PUMP_OFF"
	EventLiveRuntime       EventType = "LIVE_RUNTIME"
	EventSession           EventType = "SESSION"
	EventMaintenanceInsert EventType = "MAINTENANCE_INSERT"

	// System events.
	EventRestart  EventType = "RESTART"
	EventPowerOff EventType = "POWER_OFF"
	EventWipe     EventType = "WIPE"
)

// IsSystem reports whether the event is a watchdog action rather than a bay event.
func (t EventType) IsSystem() bool {
	switch t {
	case EventRestart, EventPowerOff, EventWipe:
		return true
	}
	return false
}

// Event is a side effect emitted by the state machine, in the order it must be applied.
//
// TIMER_ON, TIMER_OFF, PUMP_ON and PUMP_OFF carry the bay's live status flags.
// LIVE_RUNTIME and SESSION carry elapsed seconds. Bay is 1-based; 0 for system events.
type Event struct {
	Timestamp    time.Time
	Type         EventType
	Bay          int
	TimerRunning bool
	PumpRunning  bool
	TimerSeconds float64
	PumpSeconds  float64

	// ID is assigned by the persistence layer for SESSION and MAINTENANCE_INSERT.
	ID string
}

// BayInput is one poll's raw levels for a single bay.
type BayInput struct {
	Timer  Level
	Pump   Level
	Insert Level
}

// Input represents a single poll of every monitored line.
type Input struct {
	Bays   [NumBays]BayInput
	Reboot Level
	Wipe   Level
	Time   time.Time
}

// BayStatus is a read-only view of one bay's state machine.
type BayStatus struct {
	Bay             int
	Timer           State
	Pump            State
	TimerStartedAt  time.Time
	PumpStartedAt   time.Time
	PumpAccumulated time.Duration
}

// Elapsed returns the open session's timer and pump time at now.
// Both are zero while the timer is idle.
func (s BayStatus) Elapsed(now time.Time) (timer, pump time.Duration) {
	if s.Timer != StateRunning {
		return 0, 0
	}
	pump = s.PumpAccumulated
	if s.Pump == StateRunning {
		pump += now.Sub(s.PumpStartedAt)
	}
	return now.Sub(s.TimerStartedAt), pump
}

// EventCounts tracks the number of recorded events since startup.
type EventCounts struct {
	Sessions           int
	MaintenanceInserts int
	Restarts           int
	PowerOffs          int
	Wipes              int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
