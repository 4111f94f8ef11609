package common

import "time"

// A restriction means that only the specified number of requests
// are allowed within a specific time duration
type Restriction struct {
	Requests int
	Duration time.Duration
}

// Analysis is the verdict of a restriction (or a set of them) on a
// request at the current time
type Analysis struct {
	Allowed bool          // If the request is allowed
	Wait    time.Duration // The minimal time to wait before the request is allowed
}

// Analyse the recent history of requests and find out
// if a new request at the current time should be allowed or not
func (rest *Restriction) Analyse(history []time.Time) Analysis {

	// Count the requests that have been served within my duration.
	// Start counting from the end.
	// If one request is too old, the rest will be too
	currentTime := time.Now()
	count := 0
	for i := len(history) - 1; i >= 0; i-- {
		if currentTime.Sub(history[i]) > rest.Duration {
			break
		}
		count++
	}

	if count < rest.Requests {
		return Analysis{Allowed: true}
	}

	// The oldest request still inside my duration decides how long
	// the caller has to wait for a slot to free up
	oldest := history[len(history)-count]
	return Analysis{Allowed: false, Wait: oldest.Add(rest.Duration).Sub(currentTime)}
}
