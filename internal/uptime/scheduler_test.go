package uptime

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// guildFetcher answers with a per-player result, like the real API:
// one fetch returns the whole guild
type guildFetcher struct {
	results map[string]Snapshot
	errs    map[string]error
	calls   atomic.Int64
}

func (f *guildFetcher) FetchGuildSnapshot(ctx context.Context, playerID string) (Snapshot, error) {
	f.calls.Add(1)
	if err, ok := f.errs[playerID]; ok {
		return Snapshot{}, err
	}
	return f.results[playerID], nil
}

func TestSweepDeduplicatesGuildMembers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Two tracked players in the same guild
	require.NoError(t, store.UpsertSnapshot(ctx, Snapshot{
		GuildID: "guild-1",
		Players: map[string]ExpHistory{
			"player-1": {"2026-08-30": 1},
			"player-2": {"2026-08-30": 2},
		},
	}))

	shared := Snapshot{
		GuildID: "guild-1",
		Players: map[string]ExpHistory{
			"player-1": {"2026-08-31": 10},
			"player-2": {"2026-08-31": 20},
		},
	}
	fetcher := &guildFetcher{results: map[string]Snapshot{
		"player-1": shared,
		"player-2": shared,
	}}
	scheduler := NewScheduler(store, fetcher, time.Hour, time.Second)

	stats := scheduler.Sweep(ctx)
	assert.Equal(t, 2, stats.Players)
	assert.Equal(t, int64(1), fetcher.calls.Load(), "one guild fetch covers every member")
	assert.Equal(t, 0, stats.NoGuild)
	assert.Equal(t, 0, stats.Failed)

	records, err := store.GetRange(ctx, "player-2", "2026-08-31", "2026-08-31")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(20), records[0].Gexp)
}

func TestSweepCountsNoGuildAndKeepsRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertSnapshot(ctx, Snapshot{
		GuildID: "guild-1",
		Players: map[string]ExpHistory{"player-1": {"2026-08-30": 1}},
	}))

	fetcher := &guildFetcher{errs: map[string]error{"player-1": ErrNoGuild}}
	scheduler := NewScheduler(store, fetcher, time.Hour, time.Second)

	stats := scheduler.Sweep(ctx)
	assert.Equal(t, 1, stats.NoGuild)
	assert.Equal(t, 0, stats.Failed)

	// Historical rows stay; the player remains tracked
	players, err := store.DistinctPlayers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"player-1"}, players)
}

func TestSweepContinuesAfterFailure(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertSnapshot(ctx, Snapshot{
		GuildID: "guild-1",
		Players: map[string]ExpHistory{
			"player-1": {"2026-08-30": 1},
			"player-2": {"2026-08-30": 2},
		},
	}))

	fetcher := &guildFetcher{
		results: map[string]Snapshot{
			"player-1": {GuildID: "guild-1", Players: map[string]ExpHistory{"player-1": {"2026-08-31": 10}}},
			"player-2": {GuildID: "guild-1", Players: map[string]ExpHistory{"player-2": {"2026-08-31": 20}}},
		},
		errs: map[string]error{"player-1": fmt.Errorf("upstream returned 502 Bad gateway")},
	}
	scheduler := NewScheduler(store, fetcher, time.Hour, time.Second)

	stats := scheduler.Sweep(ctx)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, int64(2), fetcher.calls.Load(), "one player's failure must not abort the sweep")

	records, err := store.GetRange(ctx, "player-2", "2026-08-31", "2026-08-31")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSweepEmptyStore(t *testing.T) {
	store := newTestStore(t)
	fetcher := &guildFetcher{}
	scheduler := NewScheduler(store, fetcher, time.Hour, time.Second)

	stats := scheduler.Sweep(context.Background())
	assert.Equal(t, SweepStats{}, stats)
	assert.Equal(t, int64(0), fetcher.calls.Load())
}

func TestRunStopsOnCancel(t *testing.T) {
	store := newTestStore(t)
	scheduler := NewScheduler(store, &guildFetcher{}, time.Hour, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		scheduler.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop on cancellation")
	}
}
