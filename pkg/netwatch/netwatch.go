package netwatch

import (
	"sync"
	"time"
)

// Class identifies the kind of network path currently in use.
type Class uint8

const (
	ClassUnknown Class = iota
	ClassWired
	ClassWiFi
	ClassCellular
)

// String returns a human-readable class name.
func (c Class) String() string {
	switch c {
	case ClassWired:
		return "WIRED"
	case ClassWiFi:
		return "WIFI"
	case ClassCellular:
		return "CELLULAR"
	default:
		return "UNKNOWN"
	}
}

// Transition is one observed change of network state.
type Transition struct {
	Reachable bool
	Class     Class
	At        time.Time
}

// Observer delivers network transitions. Subscribe returns a channel
// of transitions and a cancel function that releases the subscription
// and closes the channel.
type Observer interface {
	Subscribe() (<-chan Transition, func())
}

// subscriberBuffer bounds each subscriber channel. A slow subscriber
// loses intermediate transitions, never the publisher.
const subscriberBuffer = 8

// Hub fans transitions out to subscribers. The zero value is not
// usable; construct with NewHub.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Transition]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Transition]struct{})}
}

var _ Observer = (*Hub)(nil)

// Subscribe registers a new subscriber.
func (h *Hub) Subscribe() (<-chan Transition, func()) {
	ch := make(chan Transition, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers a transition to every subscriber. Full subscriber
// buffers are skipped.
func (h *Hub) Publish(tr Transition) {
	if tr.At.IsZero() {
		tr.At = time.Now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- tr:
		default:
		}
	}
}
