package common

import (
	"time"
)

// Stopwatch keeps track of a timeout. Start it, then ask how much of the
// timeout is left.
type Stopwatch struct {
	Timeout   time.Duration
	startTime time.Time
	running   bool
}

func NewStopwatch(timeout time.Duration) Stopwatch {
	return Stopwatch{Timeout: timeout}
}

func (s *Stopwatch) Start() {
	s.running = true
	s.startTime = time.Now()
}

func (s *Stopwatch) Stop() {
	s.running = false
}

func (s *Stopwatch) Running() bool {
	return s.running
}

// Remaining returns how long is left until the timeout is reached.
// A stopwatch that is not running has nothing remaining.
func (s *Stopwatch) Remaining() time.Duration {
	if !s.running {
		return 0
	}
	remaining := s.Timeout - time.Since(s.startTime)
	if remaining < 0 {
		s.running = false
		return 0
	}
	return remaining
}
