package orders

import (
	"errors"
	"sync"
)

// ErrInFlight is returned when a mutation for the same order is still running.
var ErrInFlight = errors.New("a request for this order is already in progress")

// RequestState is the lifecycle of the last mutation issued for an order.
type RequestState uint8

const (
	Idle RequestState = iota
	Pending
	Succeeded
	Failed
)

func (s RequestState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Tracker records per-order request state. While an order is Pending no
// further mutation for it may start.
type Tracker struct {
	mu     sync.Mutex
	states map[string]RequestState
}

// NewTracker returns a Tracker with every key Idle.
func NewTracker() *Tracker {
	return &Tracker{states: make(map[string]RequestState)}
}

// State reports the current state of key.
func (t *Tracker) State(key string) RequestState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[key]
}

// Begin marks key Pending, or fails with ErrInFlight if it already is.
func (t *Tracker) Begin(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.states[key] == Pending {
		return ErrInFlight
	}
	t.states[key] = Pending
	return nil
}

// Finish settles key according to err.
func (t *Tracker) Finish(key string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.states[key] = Failed
		return
	}
	t.states[key] = Succeeded
}
