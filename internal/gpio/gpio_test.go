package gpio

import "testing"

func TestDefaultPinsUnique(t *testing.T) {
	seen := map[int]bool{}
	for _, off := range DefaultPins().Offsets() {
		if seen[off] {
			t.Errorf("pin %d assigned twice", off)
		}
		seen[off] = true
	}
	if len(seen) != NumBays*3+2 {
		t.Errorf("expected %d distinct pins, got %d", NumBays*3+2, len(seen))
	}
}

func TestOffsetsOrder(t *testing.T) {
	p := DefaultPins()
	got := p.Offsets()
	want := []int{4, 17, 22, 18, 23, 25, 5, 6, 19, 12, 16, 21, 26, 11}

	if len(got) != len(want) {
		t.Fatalf("len: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("offset %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSampleFromValues(t *testing.T) {
	values := []int{
		0, 1, 1, // bay 1: timer closed
		1, 0, 0, // bay 2: pump closed, insert low
		1, 1, 1,
		1, 1, 0,
		0, 1, // reboot held
	}

	s := sampleFromValues(values)

	if s.Bays[0].Timer || !s.Bays[0].Pump || !s.Bays[0].Insert {
		t.Errorf("bay 1: got %+v", s.Bays[0])
	}
	if !s.Bays[1].Timer || s.Bays[1].Pump || s.Bays[1].Insert {
		t.Errorf("bay 2: got %+v", s.Bays[1])
	}
	if !s.Bays[2].Timer || !s.Bays[2].Pump || !s.Bays[2].Insert {
		t.Errorf("bay 3: got %+v", s.Bays[2])
	}
	if s.Bays[3].Insert {
		t.Errorf("bay 4 insert: got HIGH, want LOW")
	}
	if s.Reboot {
		t.Error("reboot: got HIGH, want LOW")
	}
	if !s.Wipe {
		t.Error("wipe: got LOW, want HIGH")
	}
}

func TestIdleSample(t *testing.T) {
	s := IdleSample()
	for i, b := range s.Bays {
		if !b.Timer || !b.Pump || b.Insert {
			t.Errorf("bay %d: got %+v, want relays HIGH and insert LOW", i+1, b)
		}
	}
	if !s.Reboot || !s.Wipe {
		t.Error("buttons should be HIGH when idle")
	}
}
