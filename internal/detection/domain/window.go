package detection

import (
	"errors"
	"sync"

	sensors "predictive-maintenance/internal/sensors/domain"
)

// ErrNegativeWindowSize is returned when the store is built with a negative capacity.
var ErrNegativeWindowSize = errors.New("detection: negative window size")

// DefaultWindowSize is the number of recent readings retained per machine.
const DefaultWindowSize = 100

// Stats are the aggregates over one machine's current window.
type Stats struct {
	AvgTemperature float64
	MaxTemperature float64
	AvgVibration   float64
	MaxVibration   float64
	Count          int
}

// machineWindow owns the bounded reading history for a single machine.
// Aggregates are kept bit-identical to an oldest-to-newest rescan of the
// stored readings: the running sum is exact while the window is below
// capacity, and every eviction triggers an in-order rescan.
type machineWindow struct {
	mu       sync.Mutex
	capacity int // 0 means unbounded whole-history aggregates
	buf      []sensors.Reading
	head     int
	size     int

	count   int
	sumTemp float64
	sumVib  float64
	maxTemp float64
	maxVib  float64
}

func newMachineWindow(capacity int) *machineWindow {
	w := &machineWindow{capacity: capacity}
	if capacity > 0 {
		w.buf = make([]sensors.Reading, capacity)
	}
	return w
}

func (w *machineWindow) stats() (Stats, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.count == 0 {
		return Stats{}, false
	}
	return Stats{
		AvgTemperature: w.sumTemp / float64(w.count),
		MaxTemperature: w.maxTemp,
		AvgVibration:   w.sumVib / float64(w.count),
		MaxVibration:   w.maxVib,
		Count:          w.count,
	}, true
}

func (w *machineWindow) append(r sensors.Reading) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.capacity == 0 {
		// Unbounded mode keeps aggregates only; no eviction ever happens,
		// so the running sum stays identical to an in-order rescan.
		w.count++
		w.sumTemp += r.Temperature
		w.sumVib += r.Vibration
		if w.count == 1 || r.Temperature > w.maxTemp {
			w.maxTemp = r.Temperature
		}
		if w.count == 1 || r.Vibration > w.maxVib {
			w.maxVib = r.Vibration
		}
		return
	}

	if w.size < w.capacity {
		w.buf[(w.head+w.size)%w.capacity] = r
		w.size++
		w.count = w.size
		w.sumTemp += r.Temperature
		w.sumVib += r.Vibration
		if w.size == 1 || r.Temperature > w.maxTemp {
			w.maxTemp = r.Temperature
		}
		if w.size == 1 || r.Vibration > w.maxVib {
			w.maxVib = r.Vibration
		}
		return
	}

	// Full: overwrite the oldest slot and advance the ring.
	w.buf[w.head] = r
	w.head = (w.head + 1) % w.capacity
	w.rescan()
}

// rescan recomputes aggregates oldest-to-newest. Run after every eviction so
// the stored sums never drift from what a naive full scan would produce.
func (w *machineWindow) rescan() {
	w.sumTemp = 0
	w.sumVib = 0
	for i := 0; i < w.size; i++ {
		r := w.buf[(w.head+i)%w.capacity]
		w.sumTemp += r.Temperature
		w.sumVib += r.Vibration
		if i == 0 || r.Temperature > w.maxTemp {
			w.maxTemp = r.Temperature
		}
		if i == 0 || r.Vibration > w.maxVib {
			w.maxVib = r.Vibration
		}
	}
	w.count = w.size
}

// readings returns the window contents oldest-to-newest.
func (w *machineWindow) readings() []sensors.Reading {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]sensors.Reading, 0, w.size)
	for i := 0; i < w.size; i++ {
		out = append(out, w.buf[(w.head+i)%w.capacity])
	}
	return out
}

// WindowStore holds one rolling window per observed machine id. Windows are
// created lazily on first update and live for the lifetime of the store.
type WindowStore struct {
	mu         sync.RWMutex
	windows    map[int]*machineWindow
	windowSize int
}

// NewWindowStore builds a store with the given per-machine capacity.
// windowSize 0 selects unbounded whole-history aggregates.
func NewWindowStore(windowSize int) (*WindowStore, error) {
	if windowSize < 0 {
		return nil, ErrNegativeWindowSize
	}
	return &WindowStore{
		windows:    make(map[int]*machineWindow),
		windowSize: windowSize,
	}, nil
}

// Query returns the aggregates for a machine as they exist before the current
// reading is applied. ok is false when the machine has no window yet; callers
// must treat that as "no prior data", never as zero.
func (s *WindowStore) Query(machineID int) (Stats, bool) {
	s.mu.RLock()
	w := s.windows[machineID]
	s.mu.RUnlock()
	if w == nil {
		return Stats{}, false
	}
	return w.stats()
}

// Update appends a reading to the machine's window, evicting the oldest entry
// once the window holds windowSize items.
func (s *WindowStore) Update(machineID int, r sensors.Reading) {
	s.mu.RLock()
	w := s.windows[machineID]
	s.mu.RUnlock()
	if w == nil {
		s.mu.Lock()
		w = s.windows[machineID]
		if w == nil {
			w = newMachineWindow(s.windowSize)
			s.windows[machineID] = w
		}
		s.mu.Unlock()
	}
	w.append(r)
}

// WindowSize reports the configured per-machine capacity (0 = unbounded).
func (s *WindowStore) WindowSize() int {
	return s.windowSize
}

// Machines returns the ids of all machines with a window.
func (s *WindowStore) Machines() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int, 0, len(s.windows))
	for id := range s.windows {
		ids = append(ids, id)
	}
	return ids
}

// Window returns the stored readings for a machine, oldest first.
// In unbounded mode only aggregates are retained and the slice is empty.
func (s *WindowStore) Window(machineID int) []sensors.Reading {
	s.mu.RLock()
	w := s.windows[machineID]
	s.mu.RUnlock()
	if w == nil || w.capacity == 0 {
		return nil
	}
	return w.readings()
}

// Len reports how many readings a machine's window currently holds.
func (s *WindowStore) Len(machineID int) int {
	s.mu.RLock()
	w := s.windows[machineID]
	s.mu.RUnlock()
	if w == nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}
