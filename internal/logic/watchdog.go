package logic

import "time"

// WatchdogConfig holds the hold-count thresholds of the service buttons, in poll cycles.
type WatchdogConfig struct {
	// RebootAbove and PowerOffAt bound the reboot button:
	// RebootAbove < count < PowerOffAt restarts, count >= PowerOffAt powers off.
	RebootAbove int
	PowerOffAt  int
	// WipeAbove is the count the wipe button must exceed to wipe history.
	WipeAbove int
}

// DefaultWatchdogConfig returns the thresholds used on the wash controller.
func DefaultWatchdogConfig() WatchdogConfig {
	return WatchdogConfig{
		RebootAbove: 100,
		PowerOffAt:  500,
		WipeAbove:   1000,
	}
}

// Watchdog watches the reboot and wipe buttons and decides on system actions.
type Watchdog struct {
	cfg    WatchdogConfig
	reboot HoldCounter
	wipe   HoldCounter
}

// NewWatchdog creates a Watchdog with zeroed hold counters.
func NewWatchdog(cfg WatchdogConfig) Watchdog {
	return Watchdog{cfg: cfg}
}

// Process feeds one poll of both buttons. Actions fire only on release.
func (w *Watchdog) Process(reboot, wipe Level, now time.Time) []Event {
	var events []Event

	if held, released := w.reboot.Feed(reboot); released {
		switch {
		case held >= w.cfg.PowerOffAt:
			events = append(events, Event{Timestamp: now, Type: EventPowerOff})
		case held > w.cfg.RebootAbove:
			events = append(events, Event{Timestamp: now, Type: EventRestart})
		}
	}

	if held, released := w.wipe.Feed(wipe); released && held > w.cfg.WipeAbove {
		events = append(events,
			Event{Timestamp: now, Type: EventWipe},
			Event{Timestamp: now, Type: EventRestart},
		)
	}

	return events
}

// Counts returns the current reboot and wipe hold counts.
func (w *Watchdog) Counts() (reboot, wipe int) {
	return w.reboot.Count(), w.wipe.Count()
}
