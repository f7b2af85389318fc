package logic

// Default confirmation thresholds, in poll cycles.
const (
	DefaultRelayThreshold  = 20
	DefaultInsertThreshold = 5
)

// Debouncer confirms level changes on a single line.
//
// A read that disagrees with the confirmed level increments the counter; once
// the counter reaches the threshold the new level is confirmed on that read and
// the counter resets. A read that agrees with the confirmed level resets the
// counter, so a glitch away and back never confirms.
type Debouncer struct {
	threshold int
	confirmed Level
	count     int
}

// NewDebouncer creates a Debouncer that starts confirmed at initial.
// A threshold below 1 is treated as 1.
func NewDebouncer(threshold int, initial Level) Debouncer {
	if threshold < 1 {
		threshold = 1
	}
	return Debouncer{threshold: threshold, confirmed: initial}
}

// Feed takes one raw read. It returns the newly confirmed level and true when
// this read completes an edge.
func (d *Debouncer) Feed(raw Level) (Level, bool) {
	if raw == d.confirmed {
		d.count = 0
		return d.confirmed, false
	}

	d.count++
	if d.count < d.threshold {
		return d.confirmed, false
	}

	d.count = 0
	d.confirmed = raw
	return raw, true
}

// Confirmed returns the current confirmed level.
func (d *Debouncer) Confirmed() Level {
	return d.confirmed
}

// Pending returns how many consecutive disagreeing reads have been seen.
func (d *Debouncer) Pending() int {
	return d.count
}

// HoldCounter measures how long an active-low button has been held.
//
// Unlike Debouncer it never resets: every asserted read adds one and every
// released read takes one away (floored at 0), so brief releases only slow
// progress. Release reports the count at the moment the line is let go.
type HoldCounter struct {
	count    int
	asserted bool
}

// Feed takes one raw read. On the first released read after an asserted one it
// returns the count before decay and true.
func (h *HoldCounter) Feed(raw Level) (int, bool) {
	if raw == Low {
		h.count++
		h.asserted = true
		return h.count, false
	}

	held := h.count
	released := h.asserted
	h.asserted = false
	if h.count > 0 {
		h.count--
	}
	return held, released
}

// Count returns the current hold count.
func (h *HoldCounter) Count() int {
	return h.count
}
