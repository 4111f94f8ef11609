package hypixel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"guildbot/internal/common"

	"github.com/rs/zerolog/log"
)

// Mojang schema
const mojangSchema = "https://api.mojang.com"

const routeProfileByUuid = "/user/profile/%s"
const routeProfileByName = "/users/profiles/minecraft/%s"

// ErrUnresolved is returned when an identifier cannot be mapped to a
// minecraft account. The bot reports it as "account not found".
var ErrUnresolved = errors.New("could not resolve identifier to an account")

// Account is a resolved player: the display name and the stable uuid that
// survives username changes
type Account struct {
	Username string
	UUID     string
}

// Links looks up the minecraft account a Discord user has linked.
// Implemented by the users store.
type Links interface {
	LinkedAccount(ctx context.Context, discordID string) (username, uuid string, err error)
}

// Resolver maps a loose user-supplied identifier (raw name, uuid, or a
// Discord mention/id) to a canonical account
type Resolver struct {
	proxy   *Proxy
	links   Links
	baseURL string
}

func NewResolver(links Links) *Resolver {
	// Mojang allows roughly 600 requests per 10 minutes
	restrictions := []common.Restriction{{Requests: 600, Duration: 10 * time.Minute}}
	return &Resolver{proxy: NewProxy(map[string]string{}, restrictions), links: links, baseURL: mojangSchema}
}

// Resolve decides what kind of identifier it was given:
// 32 hex characters is a mojang uuid, anything up to 16 characters is a
// minecraft username, and a numeric value (possibly wrapped in a mention)
// is a Discord id to look up among the linked accounts.
func (resolver *Resolver) Resolve(ctx context.Context, identifier string) (Account, error) {

	identifier = strings.TrimSpace(identifier)

	switch {
	case len(identifier) == 32:
		return resolver.mojangProfile(ctx, fmt.Sprintf(routeProfileByUuid, identifier))
	case len(identifier) > 0 && len(identifier) <= 16:
		return resolver.mojangProfile(ctx, fmt.Sprintf(routeProfileByName, identifier))
	}

	if discordID, ok := asDiscordID(identifier); ok {
		username, uuid, err := resolver.links.LinkedAccount(ctx, discordID)
		if err != nil {
			log.Debug().Str("discord", discordID).Msg("No linked account found")
			return Account{}, ErrUnresolved
		}
		return Account{Username: username, UUID: uuid}, nil
	}

	return Account{}, ErrUnresolved
}

func (resolver *Resolver) mojangProfile(ctx context.Context, route string) (Account, error) {

	data, err := resolver.proxy.Get(ctx, resolver.baseURL+route, true)
	if err != nil {
		log.Debug().Err(err).Msg("Mojang profile request failed")
		return Account{}, ErrUnresolved
	}

	var profile struct {
		Id   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &profile); err != nil || profile.Id == "" {
		return Account{}, ErrUnresolved
	}

	return Account{Username: profile.Name, UUID: profile.Id}, nil
}

// asDiscordID strips mention decoration and reports whether what remains
// is a Discord snowflake
func asDiscordID(identifier string) (string, bool) {
	stripped := strings.NewReplacer("<", "", ">", "", "@", "", "!", "").Replace(identifier)
	stripped = strings.TrimSpace(stripped)
	if _, err := strconv.ParseUint(stripped, 10, 64); err != nil {
		return "", false
	}
	return stripped, true
}
