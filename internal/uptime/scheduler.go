package uptime

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// Scheduler keeps the store warm: it periodically re-fetches the guild of
// every tracked player, independently of any inbound report request.
type Scheduler struct {
	store        *Store
	fetcher      Fetcher
	interval     time.Duration
	fetchTimeout time.Duration
}

// SweepStats summarizes one pass over all tracked players
type SweepStats struct {
	Players int // Distinct players found in the store
	Fetched int // Guild fetches actually performed
	NoGuild int // Players no longer in any guild
	Failed  int // Fetch or store failures
}

func NewScheduler(store *Store, fetcher Fetcher, interval, fetchTimeout time.Duration) *Scheduler {
	return &Scheduler{store: store, fetcher: fetcher, interval: interval, fetchTimeout: fetchTimeout}
}

// Run sweeps once immediately, then on every tick until the context is
// cancelled
func (s *Scheduler) Run(ctx context.Context) {
	log.Info().Dur("interval", s.interval).Msg("Starting uptime scheduler")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Uptime scheduler stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep fetches fresh guild data for every distinct player in the store.
// One guild fetch returns data for every member at once, so players whose
// rows were already refreshed earlier in the sweep are skipped. A single
// player's failure never aborts the sweep.
func (s *Scheduler) Sweep(ctx context.Context) SweepStats {

	var stats SweepStats

	players, err := s.store.DistinctPlayers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Could not enumerate tracked players")
		stats.Failed++
		return stats
	}
	stats.Players = len(players)
	log.Info().Int("players", len(players)).Msg("Updating uptime")

	processed := make(map[string]struct{}, len(players))
	for _, playerID := range players {
		if ctx.Err() != nil {
			return stats
		}
		if _, ok := processed[playerID]; ok {
			continue
		}
		processed[playerID] = struct{}{}

		snapshot, err := s.fetchSnapshot(ctx, playerID)
		stats.Fetched++
		if err != nil {
			if errors.Is(err, ErrNoGuild) {
				stats.NoGuild++
			} else {
				stats.Failed++
				log.Warn().Err(err).Str("player", playerID).Msg("Sweep fetch failed")
			}
			continue
		}

		// Everyone in the snapshot is now fresh
		for memberID := range snapshot.Players {
			processed[memberID] = struct{}{}
		}

		if err := s.store.UpsertSnapshot(ctx, snapshot); err != nil {
			stats.Failed++
			log.Error().Err(err).Str("player", playerID).Msg("Could not persist snapshot")
		}
	}

	if stats.NoGuild > 0 {
		log.Info().Int("count", stats.NoGuild).Msg("Players are no longer in a guild")
	}
	return stats
}

func (s *Scheduler) fetchSnapshot(ctx context.Context, playerID string) (Snapshot, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	return s.fetcher.FetchGuildSnapshot(fetchCtx, playerID)
}
