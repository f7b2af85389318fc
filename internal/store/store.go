// Package store persists bay sessions, maintenance inserts and live bay status.
//
// The monitor loop writes through a Gateway; the dashboard reads through a
// Reader on its own connection. The SQLite implementation serves both.
package store

import "time"

// NumBays is the number of wash bays with a live status row.
const NumBays = 4

// Gateway is the set of persistence operations the monitor loop calls.
// Every call is synchronous; an error means the write did not happen.
type Gateway interface {
	UpsertLiveStatus(bay int, timerRunning, pumpRunning bool) error
	UpsertLiveRuntime(bay int, timerSeconds, pumpSeconds float64) error
	RecordSession(bay int, timerSeconds, pumpSeconds float64) (Session, error)
	RecordMaintenanceInsert(bay int) (MaintenanceInsert, error)
	WipeHistoricalData() error
}

// Reader is the read-only surface used by the dashboard.
type Reader interface {
	LiveStatuses() ([]LiveStatus, error)
	SessionTotals() (map[int]Totals, error)
	MaintenanceCounts() (map[int]int, error)
	RecentSessions(bay, limit int) ([]Session, error)
}

// Session is one completed paid timer session.
type Session struct {
	ID           string
	Bay          int
	TimerSeconds float64 // rounded to the minute
	PumpSeconds  float64
	CreatedAt    time.Time
}

// MaintenanceInsert is one coin inserted from the pump room.
type MaintenanceInsert struct {
	ID        string
	Bay       int
	CreatedAt time.Time
}

// LiveStatus is the continuously overwritten snapshot of one bay.
type LiveStatus struct {
	Bay          int
	TimerRunning bool
	PumpRunning  bool
	TimerRuntime float64
	PumpRuntime  float64
	UpdatedAt    time.Time
}

// Totals sums a bay's recorded sessions.
type Totals struct {
	Bay          int
	Sessions     int
	TimerSeconds float64
	PumpSeconds  float64
}
