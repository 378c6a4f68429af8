package telemetry

import "sync"

// series is a fixed-capacity ring of readings for one device. When
// full, the oldest reading is evicted.
type series struct {
	buf   []Reading
	start int
	count int
}

func newSeries(capacity int) *series {
	return &series{buf: make([]Reading, capacity)}
}

func (s *series) push(r Reading) {
	if s.count < len(s.buf) {
		s.buf[(s.start+s.count)%len(s.buf)] = r
		s.count++
		return
	}
	s.buf[s.start] = r
	s.start = (s.start + 1) % len(s.buf)
}

// readings returns the held samples, oldest first.
func (s *series) readings() []Reading {
	out := make([]Reading, s.count)
	for i := 0; i < s.count; i++ {
		out[i] = s.buf[(s.start+i)%len(s.buf)]
	}
	return out
}

// Store keeps the most recent readings per device codename.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Store struct {
	mu       sync.RWMutex
	capacity int
	series   map[string]*series
}

// NewStore creates a store holding at most capacity readings per
// device.
func NewStore(capacity int) *Store {
	if capacity < 1 {
		capacity = 1
	}
	return &Store{
		capacity: capacity,
		series:   map[string]*series{},
	}
}

// Add appends a reading to its device's series, evicting the oldest
// sample when the series is full.
func (st *Store) Add(r Reading) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.series[r.DeviceCodename]
	if !ok {
		s = newSeries(st.capacity)
		st.series[r.DeviceCodename] = s
	}
	s.push(r)
}

// History returns the held readings for a device, oldest first. The
// result is a copy.
func (st *Store) History(deviceCodename string) []Reading {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.series[deviceCodename]
	if !ok {
		return []Reading{}
	}
	return s.readings()
}

// Latest returns the most recent reading for a device, if any.
func (st *Store) Latest(deviceCodename string) (Reading, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.series[deviceCodename]
	if !ok || s.count == 0 {
		return Reading{}, false
	}
	return s.buf[(s.start+s.count-1)%len(s.buf)], true
}

// Devices returns the codenames with at least one held reading.
func (st *Store) Devices() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make([]string, 0, len(st.series))
	for cn := range st.series {
		out = append(out, cn)
	}
	return out
}
