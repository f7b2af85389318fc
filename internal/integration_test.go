package internal

import (
	"math"
	"testing"
	"time"

	"github.com/sweeney/carwash-monitor/internal/gpio"
	"github.com/sweeney/carwash-monitor/internal/logic"
	"github.com/sweeney/carwash-monitor/internal/mqtt"
	"github.com/sweeney/carwash-monitor/internal/store"
	"github.com/sweeney/carwash-monitor/internal/system"
	"github.com/sweeney/carwash-monitor/internal/web"
)

const pollInterval = 10 * time.Millisecond

var startTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// pipeline wires the real monitor and SQLite store to fake hardware, MQTT and
// system actions, and applies events the way the daemon does.
type pipeline struct {
	t         *testing.T
	monitor   *logic.Monitor
	store     *store.Store
	publisher *mqtt.FakePublisher
	actions   *system.Fake
	polls     int
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	db, err := store.Open(store.MemoryPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	st, err := store.New(db)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := st.ResetLiveStatus(); err != nil {
		t.Fatalf("reset: %v", err)
	}

	return &pipeline{
		t:         t,
		monitor:   logic.NewMonitor(logic.DefaultConfig(), startTime),
		store:     st,
		publisher: mqtt.NewFakePublisher(),
		actions:   &system.Fake{},
	}
}

func (p *pipeline) now() time.Time {
	return startTime.Add(time.Duration(p.polls) * pollInterval)
}

// poll runs one iteration over sample.
func (p *pipeline) poll(sample gpio.Sample) {
	p.t.Helper()
	p.polls++
	now := p.now()

	in := logic.Input{Reboot: logic.Level(sample.Reboot), Wipe: logic.Level(sample.Wipe), Time: now}
	for i, b := range sample.Bays {
		in.Bays[i] = logic.BayInput{Timer: logic.Level(b.Timer), Pump: logic.Level(b.Pump), Insert: logic.Level(b.Insert)}
	}

	for _, e := range p.monitor.Process(in) {
		var err error
		switch e.Type {
		case logic.EventTimerOn, logic.EventTimerOff, logic.EventPumpOn, logic.EventPumpOff:
			err = p.store.UpsertLiveStatus(e.Bay, e.TimerRunning, e.PumpRunning)
		case logic.EventLiveRuntime:
			err = p.store.UpsertLiveRuntime(e.Bay, e.TimerSeconds, e.PumpSeconds)
		case logic.EventSession:
			var s store.Session
			s, err = p.store.RecordSession(e.Bay, e.TimerSeconds, e.PumpSeconds)
			e.ID = s.ID
		case logic.EventMaintenanceInsert:
			var m store.MaintenanceInsert
			m, err = p.store.RecordMaintenanceInsert(e.Bay)
			e.ID = m.ID
		case logic.EventWipe:
			err = p.store.WipeHistoricalData()
		case logic.EventRestart:
			p.actions.Restart()
		case logic.EventPowerOff:
			p.actions.PowerOff()
		}
		if err != nil {
			p.t.Fatalf("poll %d: apply %s: %v", p.polls, e.Type, err)
		}
		if mqtt.Published(e.Type) {
			if err := p.publisher.Publish(e); err != nil {
				p.t.Fatalf("poll %d: publish %s: %v", p.polls, e.Type, err)
			}
		}
	}
}

// run polls n times, building each sample with set (nil for idle).
func (p *pipeline) run(n int, set func(s *gpio.Sample)) {
	p.t.Helper()
	for i := 0; i < n; i++ {
		s := gpio.IdleSample()
		if set != nil {
			set(&s)
		}
		p.poll(s)
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

// TestIntegrationBaySession drives a 95 second bay 2 session with 15 seconds
// of pump time through the monitor into SQLite and the dashboard report.
func TestIntegrationBaySession(t *testing.T) {
	p := newPipeline(t)

	timer := func(s *gpio.Sample) { s.Bays[1].Timer = false }
	timerAndPump := func(s *gpio.Sample) { s.Bays[1].Timer = false; s.Bays[1].Pump = false }
	coin := func(s *gpio.Sample) { s.Bays[1].Timer = false; s.Bays[0].Insert = true }

	p.run(10, nil)
	p.run(100, timer) // confirmed on the 20th read
	p.run(10, coin)   // bay 1 maintenance coin while bay 2 runs
	p.run(100, timer)
	p.run(1500, timerAndPump)

	// A short bay 4 glitch never confirms.
	p.run(10, func(s *gpio.Sample) { s.Bays[1].Timer = false; s.Bays[3].Timer = false })

	p.run(7770, timer)

	live, err := p.store.LiveStatuses()
	if err != nil {
		t.Fatalf("live statuses: %v", err)
	}
	bay2 := live[1]
	if !bay2.TimerRunning || bay2.PumpRunning {
		t.Errorf("bay 2 mid-session flags: got timer=%v pump=%v", bay2.TimerRunning, bay2.PumpRunning)
	}
	if !approx(bay2.PumpRuntime, 15) {
		t.Errorf("idle pump runtime should stay frozen at 15s, got %v", bay2.PumpRuntime)
	}
	if bay2.TimerRuntime < 90 || bay2.TimerRuntime > 95 {
		t.Errorf("bay 2 timer runtime: got %v", bay2.TimerRuntime)
	}
	if live[3].TimerRunning {
		t.Error("bay 4 glitch must not start a session")
	}

	p.run(100, nil)

	totals, err := p.store.SessionTotals()
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if len(totals) != 1 {
		t.Fatalf("expected sessions on one bay, got %v", totals)
	}
	got := totals[2]
	if got.Sessions != 1 || got.TimerSeconds != 120 || !approx(got.PumpSeconds, 15) {
		t.Errorf("bay 2 totals: got %+v, want 1 session of 120s timer and 15s pump", got)
	}

	counts, err := p.store.MaintenanceCounts()
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts[1] != 1 || len(counts) != 1 {
		t.Errorf("maintenance counts: got %v, want bay 1 once", counts)
	}

	live, _ = p.store.LiveStatuses()
	if live[1].TimerRunning || live[1].PumpRunning || live[1].TimerRuntime != 0 || live[1].PumpRuntime != 0 {
		t.Errorf("bay 2 live row should be cleared, got %+v", live[1])
	}

	wantPublished := []logic.EventType{
		logic.EventTimerOn,
		logic.EventMaintenanceInsert,
		logic.EventPumpOn,
		logic.EventPumpOff,
		logic.EventSession,
		logic.EventTimerOff,
	}
	published := p.publisher.EventTypes()
	if len(published) != len(wantPublished) {
		t.Fatalf("published: got %v, want %v", published, wantPublished)
	}
	for i := range wantPublished {
		if published[i] != wantPublished[i] {
			t.Errorf("published %d: got %s, want %s", i, published[i], wantPublished[i])
		}
	}
	if p.publisher.Events[4].ID == "" {
		t.Error("published session should carry the stored ID")
	}

	report, err := web.BuildReport(p.store, web.DefaultPricing(), p.now())
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Bays[1].GrossRevenue != 0.50 {
		t.Errorf("bay 2 gross: got %v, want 0.50", report.Bays[1].GrossRevenue)
	}
	if report.Bays[0].NetRevenue != -0.25 {
		t.Errorf("bay 1 net: got %v, want -0.25", report.Bays[0].NetRevenue)
	}
	if report.TotalNetRevenue != 0.25 {
		t.Errorf("total net: got %v, want 0.25", report.TotalNetRevenue)
	}
}

// TestIntegrationWipeButton records history, then holds the wipe button long
// enough to clear it.
func TestIntegrationWipeButton(t *testing.T) {
	p := newPipeline(t)

	p.run(5, nil)
	p.run(100, func(s *gpio.Sample) { s.Bays[2].Timer = false })
	p.run(50, nil)
	if totals, _ := p.store.SessionTotals(); totals[3].Sessions != 1 {
		t.Fatalf("expected a bay 3 session before wiping, got %v", totals)
	}

	p.run(1001, func(s *gpio.Sample) { s.Wipe = false })
	if p.actions.Restarts != 0 {
		t.Fatal("nothing fires while the button is held")
	}
	p.run(1, nil)

	if totals, _ := p.store.SessionTotals(); len(totals) != 0 {
		t.Errorf("history should be wiped, got %v", totals)
	}
	if p.actions.Restarts != 1 {
		t.Errorf("restarts: got %d, want 1", p.actions.Restarts)
	}
	if counts := p.monitor.EventCountsSnapshot(); counts.Wipes != 1 || counts.Sessions != 1 {
		t.Errorf("event counts: got %+v", counts)
	}
}

// TestIntegrationRebootButton checks the restart and power-off windows.
func TestIntegrationRebootButton(t *testing.T) {
	tests := []struct {
		name          string
		held          int
		wantRestarts  int
		wantPowerOffs int
	}{
		{"tap", 50, 0, 0},
		{"at restart threshold", 100, 0, 0},
		{"restart", 101, 1, 0},
		{"just below power off", 499, 1, 0},
		{"power off", 500, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(t)
			p.run(tt.held, func(s *gpio.Sample) { s.Reboot = false })
			p.run(1, nil)

			if p.actions.Restarts != tt.wantRestarts || p.actions.PowerOffs != tt.wantPowerOffs {
				t.Errorf("got restarts=%d power offs=%d, want %d/%d",
					p.actions.Restarts, p.actions.PowerOffs, tt.wantRestarts, tt.wantPowerOffs)
			}
		})
	}
}
