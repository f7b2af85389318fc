package logic

// InsertDetector turns a pulse on the maintenance coin line into exactly one event.
type InsertDetector struct {
	line  Debouncer
	latch bool
}

// NewInsertDetector creates a detector that starts latched, so a line already
// high at boot must go low before it can fire.
func NewInsertDetector(threshold int) InsertDetector {
	return InsertDetector{
		line:  NewDebouncer(threshold, High),
		latch: true,
	}
}

// Feed takes one raw read and reports whether a maintenance insert should be recorded.
func (d *InsertDetector) Feed(raw Level) bool {
	level, ok := d.line.Feed(raw)
	if !ok {
		return false
	}

	if level == Low {
		d.latch = false
		return false
	}

	if d.latch {
		return false
	}
	d.latch = true
	return true
}

// Latched reports whether the detector is waiting for the line to return low.
func (d *InsertDetector) Latched() bool {
	return d.latch
}
