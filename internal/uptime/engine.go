package uptime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Fetcher produces a fresh snapshot of the guild the given player belongs
// to. Implementations return ErrNoGuild when the player is guildless.
type Fetcher interface {
	FetchGuildSnapshot(ctx context.Context, playerID string) (Snapshot, error)
}

// Engine reconciles uptime reports: it serves a window of daily
// experience from the store, backfilling from the fetcher at most once
// per request when the store has gaps, and filling any day that is still
// missing with an unknown entry.
type Engine struct {
	store        *Store
	fetcher      Fetcher
	fetchTimeout time.Duration
}

func NewEngine(store *Store, fetcher Fetcher, fetchTimeout time.Duration) *Engine {
	return &Engine{store: store, fetcher: fetcher, fetchTimeout: fetchTimeout}
}

// Uptime returns exactly windowDays entries for the player, most recent
// first, ending today. Fetch failures (including a guildless player and
// timeouts) degrade into unknown entries; only store failures are
// returned as errors.
func (engine *Engine) Uptime(ctx context.Context, playerID string, windowDays int) ([]DayExperience, error) {

	if windowDays < 1 {
		return nil, fmt.Errorf("window must be at least one day, got %d", windowDays)
	}

	today := Today()
	from := today.AddDays(-(windowDays - 1))

	records, err := engine.store.GetRange(ctx, playerID, from, today)
	if err != nil {
		return nil, fmt.Errorf("could not query uptime range: %w", err)
	}

	// A full window means there is nothing to backfill
	if len(records) < windowDays {
		records, err = engine.backfill(ctx, playerID, from, today, records)
		if err != nil {
			return nil, err
		}
	}

	return fill(records, today, windowDays), nil
}

// backfill fetches the player's guild once, persists the snapshot and
// re-queries the window. It is attempted at most once per request so a
// player that is simply not trackable does not hammer the upstream API.
func (engine *Engine) backfill(ctx context.Context, playerID string, from, to Date, records []Record) ([]Record, error) {

	fetchCtx, cancel := context.WithTimeout(ctx, engine.fetchTimeout)
	defer cancel()

	snapshot, err := engine.fetcher.FetchGuildSnapshot(fetchCtx, playerID)
	if err != nil {
		// Proceed with whatever rows we already have
		if errors.Is(err, ErrNoGuild) {
			log.Debug().Str("player", playerID).Msg("No guild to backfill from")
		} else {
			log.Warn().Err(err).Str("player", playerID).Msg("Backfill fetch failed")
		}
		return records, nil
	}

	if err := engine.store.UpsertSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("could not persist backfilled snapshot: %w", err)
	}

	records, err = engine.store.GetRange(ctx, playerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("could not re-query uptime range: %w", err)
	}
	return records, nil
}

// fill turns the rows that exist into a gapless series of exactly
// windowDays entries, most recent first
func fill(records []Record, today Date, windowDays int) []DayExperience {

	byDate := make(map[Date]int64, len(records))
	for _, record := range records {
		byDate[record.Date] = record.Gexp
	}

	series := make([]DayExperience, 0, windowDays)
	for day := 0; day < windowDays; day++ {
		date := today.AddDays(-day)
		if gexp, ok := byDate[date]; ok {
			series = append(series, DayExperience{Date: date, Experience: KnownExperience(gexp)})
		} else {
			series = append(series, DayExperience{Date: date, Experience: UnknownExperience()})
		}
	}
	return series
}
