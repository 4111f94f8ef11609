package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guildbot/internal/hypixel"
	"guildbot/internal/tags"
	"guildbot/internal/uptime"
	"guildbot/internal/users"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// How long a command handler may spend on upstream and store calls
const handlerTimeout = 30 * time.Second

// Bot wires the Discord session to the uptime engine and the stores
type Bot struct {
	session  *discordgo.Session
	resolver *hypixel.Resolver
	client   *hypixel.Client
	engine   *uptime.Engine
	users    *users.Store
	tags     *tags.Store
	commands []*discordgo.ApplicationCommand
}

func New(token string, resolver *hypixel.Resolver, client *hypixel.Client, engine *uptime.Engine, userStore *users.Store, tagStore *tags.Store) (*Bot, error) {

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("could not create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	bot := &Bot{
		session:  session,
		resolver: resolver,
		client:   client,
		engine:   engine,
		users:    userStore,
		tags:     tagStore,
	}
	session.AddHandler(bot.onInteraction)

	return bot, nil
}

// Start opens the Discord connection and registers the slash commands
func (bot *Bot) Start() error {
	if err := bot.session.Open(); err != nil {
		return fmt.Errorf("could not open discord session: %w", err)
	}
	log.Info().Str("user", bot.session.State.User.Username).Msg("Connected to Discord")

	if err := bot.registerCommands(); err != nil {
		return fmt.Errorf("could not register commands: %w", err)
	}
	return nil
}

func (bot *Bot) Stop() error {
	return bot.session.Close()
}

func (bot *Bot) registerCommands() error {

	definitions := commandDefinitions()
	registered := make([]*discordgo.ApplicationCommand, 0, len(definitions))
	for _, definition := range definitions {
		command, err := bot.session.ApplicationCommandCreate(bot.session.State.User.ID, "", definition)
		if err != nil {
			return fmt.Errorf("could not register command %s: %w", definition.Name, err)
		}
		registered = append(registered, command)
		log.Debug().Str("command", command.Name).Msg("Registered command")
	}
	bot.commands = registered
	log.Info().Int("count", len(registered)).Msg("Slash commands registered")
	return nil
}

func (bot *Bot) onInteraction(session *discordgo.Session, interaction *discordgo.InteractionCreate) {

	if interaction.Type != discordgo.InteractionApplicationCommand {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	data := interaction.ApplicationCommandData()
	log.Info().Str("command", data.Name).Msg("Received command")

	switch data.Name {
	case "uptime":
		bot.handleUptime(ctx, interaction)
	case "link":
		bot.handleLink(ctx, interaction)
	case "linked":
		bot.handleLinked(ctx, interaction)
	case "color":
		bot.handleColor(ctx, interaction)
	case "tag":
		bot.handleTag(ctx, interaction)
	default:
		log.Warn().Str("command", data.Name).Msg("Unknown command")
	}
}

// deferReply acknowledges the interaction so handlers have time to talk
// to the upstream API before editing in the real reply
func (bot *Bot) deferReply(interaction *discordgo.InteractionCreate) {
	err := bot.session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		log.Error().Err(err).Msg("Could not defer interaction")
	}
}

func (bot *Bot) editEmbed(interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	_, err := bot.session.InteractionResponseEdit(interaction.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		log.Error().Err(err).Msg("Could not edit interaction response")
	}
}

func (bot *Bot) editContent(interaction *discordgo.InteractionCreate, content string) {
	_, err := bot.session.InteractionResponseEdit(interaction.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	if err != nil {
		log.Error().Err(err).Msg("Could not edit interaction response")
	}
}

// author returns the user that triggered the interaction, which lives in
// a different field for guild and direct messages
func author(interaction *discordgo.InteractionCreate) *discordgo.User {
	if interaction.Member != nil {
		return interaction.Member.User
	}
	return interaction.User
}

// accentColor is the user's preferred embed color, or the default
func (bot *Bot) accentColor(ctx context.Context, discordID string) int {
	stored, err := bot.users.Color(ctx, discordID)
	if err != nil {
		if !errors.Is(err, users.ErrNotFound) {
			log.Error().Err(err).Msg("Could not read accent color")
		}
		return defaultColor
	}
	color, err := parseHexColor(stored)
	if err != nil {
		return defaultColor
	}
	return color
}
