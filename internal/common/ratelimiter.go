package common

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RateLimiter decides if outgoing requests are allowed under a set of
// restrictions, keeping a history of the requests already served.
// Vital requests wait for a slot; non-vital requests are rejected as soon
// as the restrictions (or a pending vital request) stand in the way.
type RateLimiter struct {
	mu                   sync.Mutex
	restrictions         []Restriction
	history              []time.Time
	duration             time.Duration          // Max duration among all restrictions
	pendingVitalRequests map[uuid.UUID]struct{} // Vital requests currently waiting for a slot
	cooldown             Stopwatch              // Armed when the upstream reports a rate limit
}

// ErrNotAllowed is returned for requests the limiter decided to reject
var ErrNotAllowed = fmt.Errorf("rate limiter is not allowing the request")

func NewRateLimiter(restrictions []Restriction) *RateLimiter {
	rl := RateLimiter{
		restrictions:         make([]Restriction, len(restrictions)),
		pendingVitalRequests: map[uuid.UUID]struct{}{},
	}
	copy(rl.restrictions, restrictions)
	for _, restriction := range restrictions {
		if restriction.Duration > rl.duration {
			rl.duration = restriction.Duration
		}
	}
	rl.cooldown = NewStopwatch(rl.duration)
	return &rl
}

// Wait blocks until the request is allowed, the request is rejected,
// or the context is done. A nil return means the request may proceed
// and has been recorded in the history.
func (rl *RateLimiter) Wait(ctx context.Context, vital bool) error {

	// Give this request a unique identifier so it can hold
	// its place among the pending vital requests
	thisuuid := uuid.New()
	defer func() {
		rl.mu.Lock()
		delete(rl.pendingVitalRequests, thisuuid)
		rl.mu.Unlock()
	}()

	for {
		rl.mu.Lock()
		rl.trim()
		analysis := rl.analyse()

		if analysis.Allowed {
			if !vital && len(rl.pendingVitalRequests) > 0 {
				// Vital requests waiting in line take precedence
				rl.mu.Unlock()
				log.Warn().Msg("Rejecting non vital request because the vital queue is not empty")
				return ErrNotAllowed
			}
			rl.history = append(rl.history, time.Now())
			rl.mu.Unlock()
			return nil
		}

		if !vital {
			rl.mu.Unlock()
			log.Warn().Msg("Rejecting non vital request because restrictions do not allow it")
			return ErrNotAllowed
		}

		// Vital and not allowed: hold a place in the queue and wait
		rl.pendingVitalRequests[thisuuid] = struct{}{}
		wait := analysis.Wait
		rl.mu.Unlock()

		log.Warn().Msgf("Vital request %s delayed %.2f seconds", thisuuid, wait.Seconds())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// ReceivedRateLimit arms the cooldown: the upstream told us we went over,
// so every request waits until the largest restriction window has passed
func (rl *RateLimiter) ReceivedRateLimit() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.cooldown.Start()
}

// Trim the current history, leaving only the requests that are young
// enough to be affected by at least one restriction.
// Times are stored in chronological order.
func (rl *RateLimiter) trim() {
	currentTime := time.Now()
	index := len(rl.history)
	for i := len(rl.history) - 1; i >= 0; i-- {
		if currentTime.Sub(rl.history[i]) > rl.duration {
			break
		}
		index = i
	}
	rl.history = rl.history[index:]
}

func (rl *RateLimiter) analyse() Analysis {

	// An armed cooldown overrules every restriction
	if remaining := rl.cooldown.Remaining(); remaining > 0 {
		return Analysis{Allowed: false, Wait: remaining}
	}

	// Merge the analyses of all restrictions
	merged := Analysis{Allowed: true}
	for _, restriction := range rl.restrictions {
		analysis := restriction.Analyse(rl.history)
		merged.Allowed = merged.Allowed && analysis.Allowed
		if analysis.Wait > merged.Wait {
			merged.Wait = analysis.Wait
		}
	}
	return merged
}
