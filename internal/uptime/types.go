package uptime

import (
	"errors"
	"time"
)

// ErrNoGuild is returned by a Fetcher when the requested player does not
// belong to any guild. It is an expected outcome, not a failure: reports
// degrade to unknown entries and the scheduler just counts it.
var ErrNoGuild = errors.New("player is not in a guild")

const dateLayout = "2006-01-02"

// Date is a UTC calendar day in ISO form (2006-01-02). The string form
// sorts chronologically, which the store relies on.
type Date string

func DateOf(t time.Time) Date {
	return Date(t.UTC().Format(dateLayout))
}

func Today() Date {
	return DateOf(time.Now())
}

// AddDays returns the date shifted by the given number of days
func (d Date) AddDays(days int) Date {
	t, err := time.ParseInLocation(dateLayout, string(d), time.UTC)
	if err != nil {
		return d
	}
	return DateOf(t.AddDate(0, 0, days))
}

func (d Date) Valid() bool {
	_, err := time.ParseInLocation(dateLayout, string(d), time.UTC)
	return err == nil
}

// Record is one persisted observation: the experience a player gained on
// one calendar day, and the guild that produced the observation
type Record struct {
	PlayerID string
	Date     Date
	Gexp     int64
	GuildID  string
}

// ExpHistory maps calendar days to the experience gained on each
type ExpHistory map[Date]int64

// Snapshot is the outcome of one guild fetch: the daily experience
// history of every member of the guild. It lives only until the store
// has consumed it.
type Snapshot struct {
	GuildID string
	Players map[string]ExpHistory
}

// Experience is the experience a player gained on one day, or the
// explicit absence of data. The unknown value is never persisted; it only
// ever travels back to the caller of a report.
type Experience struct {
	Gexp  int64
	Known bool
}

func KnownExperience(gexp int64) Experience {
	return Experience{Gexp: gexp, Known: true}
}

func UnknownExperience() Experience {
	return Experience{}
}

// DayExperience is one entry of a report
type DayExperience struct {
	Date       Date
	Experience Experience
}
