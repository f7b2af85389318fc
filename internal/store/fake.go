package store

import (
	"fmt"
	"time"
)

// StatusCall records one UpsertLiveStatus call.
type StatusCall struct {
	Bay          int
	TimerRunning bool
	PumpRunning  bool
}

// RuntimeCall records one UpsertLiveRuntime call.
type RuntimeCall struct {
	Bay          int
	TimerSeconds float64
	PumpSeconds  float64
}

// FakeGateway records persistence calls for test assertions.
type FakeGateway struct {
	// Calls lists operation names in call order.
	Calls []string

	Statuses []StatusCall
	Runtimes []RuntimeCall
	Sessions []Session
	Inserts  []MaintenanceInsert
	Wipes    int

	// Err, if set, is returned by every call and nothing is recorded.
	Err error

	// FailOn, if set together with Err, limits the failure to that operation.
	FailOn string

	// Now stamps recorded sessions and inserts. Defaults to time.Now.
	Now func() time.Time

	seq int
}

// NewFakeGateway creates a FakeGateway for testing.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{}
}

func (f *FakeGateway) fail(op string) error {
	if f.Err != nil && (f.FailOn == "" || f.FailOn == op) {
		return f.Err
	}
	f.Calls = append(f.Calls, op)
	return nil
}

func (f *FakeGateway) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *FakeGateway) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

// UpsertLiveStatus records the call.
func (f *FakeGateway) UpsertLiveStatus(bay int, timerRunning, pumpRunning bool) error {
	if err := f.fail("UpsertLiveStatus"); err != nil {
		return err
	}
	f.Statuses = append(f.Statuses, StatusCall{Bay: bay, TimerRunning: timerRunning, PumpRunning: pumpRunning})
	return nil
}

// UpsertLiveRuntime records the call.
func (f *FakeGateway) UpsertLiveRuntime(bay int, timerSeconds, pumpSeconds float64) error {
	if err := f.fail("UpsertLiveRuntime"); err != nil {
		return err
	}
	f.Runtimes = append(f.Runtimes, RuntimeCall{Bay: bay, TimerSeconds: timerSeconds, PumpSeconds: pumpSeconds})
	return nil
}

// RecordSession records the session with a sequential ID.
func (f *FakeGateway) RecordSession(bay int, timerSeconds, pumpSeconds float64) (Session, error) {
	if err := f.fail("RecordSession"); err != nil {
		return Session{}, err
	}
	s := Session{
		ID:           f.nextID("session"),
		Bay:          bay,
		TimerSeconds: timerSeconds,
		PumpSeconds:  pumpSeconds,
		CreatedAt:    f.now(),
	}
	f.Sessions = append(f.Sessions, s)
	return s, nil
}

// RecordMaintenanceInsert records the insert with a sequential ID.
func (f *FakeGateway) RecordMaintenanceInsert(bay int) (MaintenanceInsert, error) {
	if err := f.fail("RecordMaintenanceInsert"); err != nil {
		return MaintenanceInsert{}, err
	}
	m := MaintenanceInsert{ID: f.nextID("insert"), Bay: bay, CreatedAt: f.now()}
	f.Inserts = append(f.Inserts, m)
	return m, nil
}

// WipeHistoricalData drops recorded sessions and inserts.
func (f *FakeGateway) WipeHistoricalData() error {
	if err := f.fail("WipeHistoricalData"); err != nil {
		return err
	}
	f.Wipes++
	f.Sessions = nil
	f.Inserts = nil
	return nil
}
