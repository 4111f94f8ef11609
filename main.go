package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"guildbot/internal/bot"
	"guildbot/internal/config"
	"guildbot/internal/hypixel"
	"guildbot/internal/tags"
	"guildbot/internal/uptime"
	"guildbot/internal/users"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}
	setupLogging(cfg.LogLevel)

	log.Info().Msg("Starting guildbot")

	// All stores share one database file
	db, err := openDatabase(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not open database")
	}
	defer db.Close()

	uptimeStore, err := uptime.NewStoreWithDB(db)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not initialise uptime store")
	}
	userStore, err := users.NewStore(db)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not initialise users store")
	}
	tagStore, err := tags.NewStore(db)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not initialise tags store")
	}

	// Upstream access
	client := hypixel.NewClient(cfg.HypixelAPIKey)
	resolver := hypixel.NewResolver(userStore)

	// Uptime core
	engine := uptime.NewEngine(uptimeStore, client, cfg.FetchTimeout)
	scheduler := uptime.NewScheduler(uptimeStore, client, cfg.SweepInterval, cfg.FetchTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go scheduler.Run(ctx)

	// Discord bot
	discordBot, err := bot.New(cfg.DiscordToken, resolver, client, engine, userStore, tagStore)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not create discord bot")
	}
	if err := discordBot.Start(); err != nil {
		log.Fatal().Err(err).Msg("Could not start discord bot")
	}

	log.Info().Msg("Bot is running, press ctrl+c to stop")
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-interrupt

	log.Info().Msg("Shutting down")
	cancel()
	if err := discordBot.Stop(); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
	}
}

func openDatabase(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection serializes writers; sqlite does not like concurrent ones
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func setupLogging(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
