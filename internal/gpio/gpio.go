// Package gpio provides GPIO input reading with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// NumBays is the number of wash bays wired to the controller.
const NumBays = 4

// Reader reads GPIO input levels.
type Reader interface {
	// Read returns the raw level of every monitored line (true = HIGH).
	// All inputs are pulled up, so an idle relay or button reads HIGH.
	Read() (Sample, error)

	// Close releases GPIO resources.
	Close() error
}

// BayLevels holds the raw levels of one bay's lines.
type BayLevels struct {
	Timer  bool
	Pump   bool
	Insert bool
}

// Sample represents a single read of every monitored line.
type Sample struct {
	Bays   [NumBays]BayLevels
	Reboot bool
	Wipe   bool
}

// BayPins holds one bay's line offsets.
type BayPins struct {
	Timer  int // paid timer relay
	Pump   int // water pump relay
	Insert int // maintenance coin insert
}

// Pins maps every monitored line to its BCM offset.
type Pins struct {
	Bays   [NumBays]BayPins
	Reboot int
	Wipe   int
}

// DefaultPins returns the wash controller's wiring (BCM numbering).
// Each bay's remote coin output pin is not monitored.
func DefaultPins() Pins {
	return Pins{
		Bays: [NumBays]BayPins{
			{Timer: 4, Pump: 17, Insert: 22},
			{Timer: 18, Pump: 23, Insert: 25},
			{Timer: 5, Pump: 6, Insert: 19},
			{Timer: 12, Pump: 16, Insert: 21},
		},
		Reboot: 26,
		Wipe:   11,
	}
}

// Offsets lists the pins in request order: each bay's timer, pump and insert,
// then reboot and wipe.
func (p Pins) Offsets() []int {
	out := make([]int, 0, NumBays*3+2)
	for _, b := range p.Bays {
		out = append(out, b.Timer, b.Pump, b.Insert)
	}
	return append(out, p.Reboot, p.Wipe)
}

// sampleFromValues converts values read in Offsets order into a Sample.
func sampleFromValues(values []int) Sample {
	var s Sample
	for i := range s.Bays {
		s.Bays[i] = BayLevels{
			Timer:  values[i*3] != 0,
			Pump:   values[i*3+1] != 0,
			Insert: values[i*3+2] != 0,
		}
	}
	s.Reboot = values[NumBays*3] != 0
	s.Wipe = values[NumBays*3+1] != 0
	return s
}

// IdleSample is the level of every line with nothing happening: relays open,
// buttons up, insert lines low.
func IdleSample() Sample {
	s := Sample{Reboot: true, Wipe: true}
	for i := range s.Bays {
		s.Bays[i] = BayLevels{Timer: true, Pump: true}
	}
	return s
}
