package logic

import (
	"math"
	"time"
)

// Relay lines are active-low: a closed relay pulls the input to ground.
const relayActive = Low

// Bay tracks the paid timer and water pump of one wash bay.
type Bay struct {
	id int

	timer Debouncer
	pump  Debouncer

	timerState     State
	pumpState      State
	timerStartedAt time.Time
	pumpStartedAt  time.Time

	// pumpAccumulated is pump time carried from earlier sub-intervals of the
	// current timer session.
	pumpAccumulated time.Duration

	insert InsertDetector
}

// NewBay creates an idle bay. id is 1-based.
func NewBay(id, relayThreshold, insertThreshold int) Bay {
	return Bay{
		id:         id,
		timer:      NewDebouncer(relayThreshold, High),
		pump:       NewDebouncer(relayThreshold, High),
		timerState: StateIdle,
		pumpState:  StateIdle,
		insert:     NewInsertDetector(insertThreshold),
	}
}

// Process feeds one poll of the bay's lines and returns the resulting events.
// When runtimeDue is set and a session is open, a LIVE_RUNTIME event is
// emitted before any edge is handled.
func (b *Bay) Process(in BayInput, now time.Time, runtimeDue bool) []Event {
	var events []Event

	if runtimeDue && b.timerState == StateRunning {
		events = append(events, Event{
			Timestamp:    now,
			Type:         EventLiveRuntime,
			Bay:          b.id,
			TimerSeconds: now.Sub(b.timerStartedAt).Seconds(),
			PumpSeconds:  b.pumpElapsed(now).Seconds(),
		})
	}

	if level, ok := b.timer.Feed(in.Timer); ok {
		if level == relayActive {
			events = append(events, b.startTimer(now))
		} else {
			events = append(events, b.stopTimer(now)...)
		}
	}

	if level, ok := b.pump.Feed(in.Pump); ok {
		if level == relayActive {
			events = append(events, b.startPump(now))
		} else {
			events = append(events, b.stopPump(now))
		}
	}

	if b.insert.Feed(in.Insert) {
		events = append(events, Event{
			Timestamp: now,
			Type:      EventMaintenanceInsert,
			Bay:       b.id,
		})
	}

	return events
}

func (b *Bay) startTimer(now time.Time) Event {
	b.timerState = StateRunning
	b.timerStartedAt = now
	b.pumpAccumulated = 0
	if b.pumpState == StateRunning {
		// Pump time before the session opened is not paid time.
		b.pumpStartedAt = now
	}
	return b.statusEvent(EventTimerOn, now)
}

func (b *Bay) stopTimer(now time.Time) []Event {
	elapsed := now.Sub(b.timerStartedAt)
	pump := b.pumpElapsed(now)

	b.timerState = StateIdle
	b.timerStartedAt = time.Time{}
	b.pumpAccumulated = 0
	if b.pumpState == StateRunning {
		b.pumpStartedAt = now
	}

	return []Event{
		{
			Timestamp:    now,
			Type:         EventSession,
			Bay:          b.id,
			TimerSeconds: RoundToNearestMinute(elapsed.Seconds()),
			PumpSeconds:  pump.Seconds(),
		},
		// The live row is cleared outright, pump flag included.
		{
			Timestamp: now,
			Type:      EventTimerOff,
			Bay:       b.id,
		},
		{
			Timestamp: now,
			Type:      EventLiveRuntime,
			Bay:       b.id,
		},
	}
}

func (b *Bay) startPump(now time.Time) Event {
	b.pumpState = StateRunning
	b.pumpStartedAt = now
	return b.statusEvent(EventPumpOn, now)
}

func (b *Bay) stopPump(now time.Time) Event {
	delta := now.Sub(b.pumpStartedAt)
	b.pumpState = StateIdle

	if b.timerState == StateIdle {
		b.pumpAccumulated = 0
		b.pumpStartedAt = time.Time{}
	} else {
		b.pumpAccumulated += delta
		b.pumpStartedAt = now
	}
	return b.statusEvent(EventPumpOff, now)
}

// pumpElapsed is the session's pump time: the carried accumulator plus the
// open sub-interval when the pump is running.
func (b *Bay) pumpElapsed(now time.Time) time.Duration {
	if b.pumpState == StateRunning {
		return b.pumpAccumulated + now.Sub(b.pumpStartedAt)
	}
	return b.pumpAccumulated
}

func (b *Bay) statusEvent(t EventType, now time.Time) Event {
	return Event{
		Timestamp:    now,
		Type:         t,
		Bay:          b.id,
		TimerRunning: b.timerState == StateRunning,
		PumpRunning:  b.pumpState == StateRunning,
	}
}

// Status returns a copy of the bay's state.
func (b *Bay) Status() BayStatus {
	return BayStatus{
		Bay:             b.id,
		Timer:           b.timerState,
		Pump:            b.pumpState,
		TimerStartedAt:  b.timerStartedAt,
		PumpStartedAt:   b.pumpStartedAt,
		PumpAccumulated: b.pumpAccumulated,
	}
}

// RoundToNearestMinute rounds seconds to whole seconds, then to a multiple of
// 60. A leftover above 30 rounds up; 30 and below round down.
func RoundToNearestMinute(seconds float64) float64 {
	n := int64(math.Round(seconds))
	leftover := n % 60
	if leftover > 30 {
		return float64(n + 60 - leftover)
	}
	return float64(n - leftover)
}
