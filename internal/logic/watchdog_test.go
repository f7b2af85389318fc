package logic

import "testing"

// holdAndRelease presses a button for n polls and lets it go once.
func holdAndRelease(w *Watchdog, reboot bool, n int) []Event {
	var events []Event
	for i := 0; i < n; i++ {
		if reboot {
			events = append(events, w.Process(Low, High, testStart)...)
		} else {
			events = append(events, w.Process(High, Low, testStart)...)
		}
	}
	return append(events, w.Process(High, High, testStart)...)
}

func eventTypes(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func equalTypes(a, b []EventType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestWatchdogThresholds(t *testing.T) {
	tests := []struct {
		name   string
		reboot bool
		hold   int
		want   []EventType
	}{
		{"reboot tap", true, 10, nil},
		{"reboot at lower bound", true, 100, nil},
		{"reboot just above lower bound", true, 101, []EventType{EventRestart}},
		{"reboot 200", true, 200, []EventType{EventRestart}},
		{"reboot just below power off", true, 499, []EventType{EventRestart}},
		{"reboot at power off", true, 500, []EventType{EventPowerOff}},
		{"reboot long hold", true, 800, []EventType{EventPowerOff}},
		{"wipe short", false, 500, nil},
		{"wipe at threshold", false, 1000, nil},
		{"wipe above threshold", false, 1001, []EventType{EventWipe, EventRestart}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWatchdog(DefaultWatchdogConfig())
			got := eventTypes(holdAndRelease(&w, tt.reboot, tt.hold))
			if !equalTypes(got, tt.want) {
				t.Errorf("events: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWatchdogFiresOnlyOnRelease(t *testing.T) {
	w := NewWatchdog(DefaultWatchdogConfig())

	for i := 0; i < 600; i++ {
		if events := w.Process(Low, Low, testStart); len(events) != 0 {
			t.Fatalf("poll %d: expected no action while held, got %v", i, events)
		}
	}

	events := w.Process(High, High, testStart)
	got := eventTypes(events)
	want := []EventType{EventPowerOff}
	if !equalTypes(got, want) {
		t.Fatalf("release: got %v, want %v", got, want)
	}

	// Staying released decays the counters without firing again.
	for i := 0; i < 200; i++ {
		if events := w.Process(High, High, testStart); len(events) != 0 {
			t.Fatalf("poll %d after release: unexpected %v", i, events)
		}
	}
	reboot, wipe := w.Counts()
	if reboot != 399 || wipe != 399 {
		t.Errorf("counts after decay: got (%d, %d), want (399, 399)", reboot, wipe)
	}
}

func TestWatchdogDecayKeepsProgress(t *testing.T) {
	w := NewWatchdog(DefaultWatchdogConfig())

	// 50 held, released for 10 polls: counter decays to 40, not 0.
	if events := holdAndRelease(&w, true, 50); len(events) != 0 {
		t.Fatalf("short hold: unexpected %v", events)
	}
	for i := 0; i < 9; i++ {
		w.Process(High, High, testStart)
	}
	if reboot, _ := w.Counts(); reboot != 40 {
		t.Fatalf("reboot count: got %d, want 40", reboot)
	}

	// 70 more polls bring it to 110, which is enough to restart.
	got := eventTypes(holdAndRelease(&w, true, 70))
	want := []EventType{EventRestart}
	if !equalTypes(got, want) {
		t.Errorf("events: got %v, want %v", got, want)
	}
}

func TestWatchdogCustomThresholds(t *testing.T) {
	w := NewWatchdog(WatchdogConfig{RebootAbove: 2, PowerOffAt: 5, WipeAbove: 3})

	if got := eventTypes(holdAndRelease(&w, true, 3)); !equalTypes(got, []EventType{EventRestart}) {
		t.Errorf("reboot: got %v", got)
	}

	w = NewWatchdog(WatchdogConfig{RebootAbove: 2, PowerOffAt: 5, WipeAbove: 3})
	if got := eventTypes(holdAndRelease(&w, false, 4)); !equalTypes(got, []EventType{EventWipe, EventRestart}) {
		t.Errorf("wipe: got %v", got)
	}
}
