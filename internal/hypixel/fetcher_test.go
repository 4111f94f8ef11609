package hypixel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"guildbot/internal/common"
	"guildbot/internal/uptime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(serverURL string) *Client {
	return &Client{
		apiKey:  "test-key",
		baseURL: serverURL,
		proxy:   NewProxy(map[string]string{}, []common.Restriction{{Requests: 1000, Duration: time.Minute}}),
	}
}

func TestFetchGuildSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "uuid-1", r.URL.Query().Get("player"))
		w.Write([]byte(`{
			"success": true,
			"guild": {
				"_id": "guild-1",
				"members": [
					{"uuid": "uuid-1", "expHistory": {"2026-08-30": 9000, "2026-08-29": 150}},
					{"uuid": "uuid-2", "expHistory": {"2026-08-30": 300, "2026-08-29": "oops"}},
					{"uuid": "uuid-3"}
				]
			}
		}`))
	}))
	defer server.Close()

	snapshot, err := testClient(server.URL).FetchGuildSnapshot(context.Background(), "uuid-1")
	require.NoError(t, err)

	assert.Equal(t, "guild-1", snapshot.GuildID)
	require.Len(t, snapshot.Players, 3)
	assert.Equal(t, uptime.ExpHistory{"2026-08-30": 9000, "2026-08-29": 150}, snapshot.Players["uuid-1"])
	// Non numeric values are skipped, not fatal
	assert.Equal(t, uptime.ExpHistory{"2026-08-30": 300}, snapshot.Players["uuid-2"])
	// Members without a history still appear, with an empty mapping
	assert.Empty(t, snapshot.Players["uuid-3"])
}

func TestFetchGuildSnapshotNoGuild(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "guild": null}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchGuildSnapshot(context.Background(), "uuid-1")
	assert.ErrorIs(t, err, uptime.ErrNoGuild)
}

func TestFetchGuildSnapshotTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchGuildSnapshot(context.Background(), "uuid-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, uptime.ErrNoGuild)
}

func TestFetchGuildSnapshotParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchGuildSnapshot(context.Background(), "uuid-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, uptime.ErrNoGuild)
}

func TestLinkedDiscord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "player": {"socialMedia": {"links": {"DISCORD": "someone"}}}}`))
	}))
	defer server.Close()

	linked, err := testClient(server.URL).LinkedDiscord(context.Background(), "uuid-1")
	require.NoError(t, err)
	assert.Equal(t, "someone", linked)
}
