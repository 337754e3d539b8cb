package netwatch

import (
	"sync"
	"time"
)

// Simulated is a hand-driven reachability source. Tests and the
// reference CLI flip its state explicitly.
type Simulated struct {
	*Hub

	mu        sync.Mutex
	reachable bool
	class     Class
}

// NewSimulated creates a simulated source that starts reachable on an
// unknown path class.
func NewSimulated() *Simulated {
	return &Simulated{Hub: NewHub(), reachable: true}
}

// SetReachable flips reachability and publishes the transition when
// the state actually changes.
func (s *Simulated) SetReachable(reachable bool, class Class) {
	s.mu.Lock()
	changed := s.reachable != reachable || s.class != class
	s.reachable = reachable
	s.class = class
	s.mu.Unlock()

	if changed {
		s.Publish(Transition{Reachable: reachable, Class: class, At: time.Now()})
	}
}

// Reachable reports the current simulated state.
func (s *Simulated) Reachable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reachable
}
