package hypixel

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"guildbot/internal/common"
	"guildbot/internal/uptime"

	"github.com/rs/zerolog/log"
)

// Hypixel API schema
const apiSchema = "https://api.hypixel.net"

// Routes inside the Hypixel API
const routeGuildByPlayer = "/v2/guild?key=%s&player=%s"
const routePlayer = "/v2/player?key=%s&uuid=%s"

// The public API allows 300 requests every 5 minutes
var apiRestrictions = []common.Restriction{
	{Requests: 300, Duration: 5 * time.Minute},
}

// Client fetches guild data from the Hypixel API
type Client struct {
	apiKey  string
	baseURL string
	proxy   *Proxy
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: apiSchema,
		proxy:   NewProxy(map[string]string{}, apiRestrictions),
	}
}

// FetchGuildSnapshot requests the guild the player belongs to and turns
// the per-member experience histories into a snapshot. A player without a
// guild yields uptime.ErrNoGuild.
func (client *Client) FetchGuildSnapshot(ctx context.Context, playerID string) (uptime.Snapshot, error) {

	url := client.baseURL + fmt.Sprintf(routeGuildByPlayer, client.apiKey, playerID)
	data, err := client.proxy.Get(ctx, url, true)
	if err != nil {
		return uptime.Snapshot{}, fmt.Errorf("could not request guild for player %s: %w", playerID, err)
	}

	var raw struct {
		Guild *struct {
			Id      string `json:"_id"`
			Members []struct {
				Uuid       string         `json:"uuid"`
				ExpHistory map[string]any `json:"expHistory"`
			} `json:"members"`
		} `json:"guild"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return uptime.Snapshot{}, fmt.Errorf("guild response is not correctly formatted: %w", err)
	}
	if raw.Guild == nil {
		return uptime.Snapshot{}, uptime.ErrNoGuild
	}

	snapshot := uptime.Snapshot{
		GuildID: raw.Guild.Id,
		Players: make(map[string]uptime.ExpHistory, len(raw.Guild.Members)),
	}
	for _, member := range raw.Guild.Members {
		history := make(uptime.ExpHistory, len(member.ExpHistory))
		for date, xp := range member.ExpHistory {
			// Malformed values under a date key are skipped,
			// they must not abort the whole fetch
			value, ok := xp.(float64)
			if !ok {
				log.Debug().Str("date", date).Msg("Skipping non numeric experience value")
				continue
			}
			history[uptime.Date(date)] = int64(value)
		}
		snapshot.Players[member.Uuid] = history
	}

	log.Debug().Str("guild", snapshot.GuildID).Int("members", len(snapshot.Players)).Msg("Fetched guild snapshot")
	return snapshot, nil
}

// LinkedDiscord returns the Discord name the player has linked on
// Hypixel, used to verify account links
func (client *Client) LinkedDiscord(ctx context.Context, playerID string) (string, error) {

	url := client.baseURL + fmt.Sprintf(routePlayer, client.apiKey, playerID)
	data, err := client.proxy.Get(ctx, url, true)
	if err != nil {
		return "", fmt.Errorf("could not request player %s: %w", playerID, err)
	}

	var raw struct {
		Player *struct {
			SocialMedia struct {
				Links map[string]string `json:"links"`
			} `json:"socialMedia"`
		} `json:"player"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", fmt.Errorf("player response is not correctly formatted: %w", err)
	}
	if raw.Player == nil {
		return "", fmt.Errorf("no player data for %s", playerID)
	}

	return raw.Player.SocialMedia.Links["DISCORD"], nil
}
