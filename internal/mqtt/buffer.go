package mqtt

import "log"

// bufferedMsg is a formatted message waiting for the broker.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer holds the most recent messages published while disconnected.
// When full, the oldest message is overwritten. Callers synchronize.
type ringBuffer struct {
	slots   []bufferedMsg
	next    int
	size    int
	dropped int
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ringBuffer{slots: make([]bufferedMsg, capacity)}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	r.slots[r.next] = msg
	r.next = (r.next + 1) % len(r.slots)
	if r.size < len(r.slots) {
		r.size++
		return
	}
	if r.dropped == 0 {
		log.Printf("mqtt: buffer full (%d messages), dropping oldest", len(r.slots))
	}
	r.dropped++
}

// drainAll returns the buffered messages oldest first and empties the buffer.
func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.size == 0 {
		return nil
	}
	if r.dropped > 0 {
		log.Printf("mqtt: %d messages were dropped while disconnected", r.dropped)
	}

	out := make([]bufferedMsg, 0, r.size)
	first := (r.next - r.size + len(r.slots)) % len(r.slots)
	for i := 0; i < r.size; i++ {
		out = append(out, r.slots[(first+i)%len(r.slots)])
	}

	r.slots = make([]bufferedMsg, len(r.slots))
	r.next, r.size, r.dropped = 0, 0, 0
	return out
}

func (r *ringBuffer) len() int {
	return r.size
}
