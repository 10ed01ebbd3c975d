package status

import "time"

// Entry is one recorded robot event.
type Entry struct {
	Time  time.Time
	Event string
}

// history is a fixed-capacity FIFO of recent entries. When full, the oldest
// entry is overwritten. Not safe for concurrent use; Tracker synchronizes.
type history struct {
	buf      []Entry
	capacity int
	head     int // next write position
	count    int
}

func newHistory(capacity int) *history {
	if capacity < 1 {
		capacity = 1
	}
	return &history{
		buf:      make([]Entry, capacity),
		capacity: capacity,
	}
}

func (h *history) push(e Entry) {
	h.buf[h.head] = e
	h.head = (h.head + 1) % h.capacity
	if h.count < h.capacity {
		h.count++
	}
}

// items returns the entries oldest first without removing them.
func (h *history) items() []Entry {
	if h.count == 0 {
		return nil
	}
	out := make([]Entry, h.count)
	start := (h.head - h.count + h.capacity) % h.capacity
	for i := 0; i < h.count; i++ {
		out[i] = h.buf[(start+i)%h.capacity]
	}
	return out
}
