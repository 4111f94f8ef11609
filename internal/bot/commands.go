package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"guildbot/internal/tags"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

func commandDefinitions() []*discordgo.ApplicationCommand {
	windowMin := float64(1)
	return []*discordgo.ApplicationCommand{
		{
			Name:        "uptime",
			Description: "Show daily guild uptime for a player",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "user",
					Description: "Username, UUID, or discord ID",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "window",
					Description: "Time window, eg 7 for 7 days",
					Required:    false,
					MinValue:    &windowMin,
				},
			},
		},
		{
			Name:        "link",
			Description: "Link your minecraft account to the bot for easier usage",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "username/uuid",
					Required:    true,
				},
			},
		},
		{
			Name:        "linked",
			Description: "Get the minecraft account linked to a discord user",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Discord profile to get linked account of",
					Required:    true,
				},
			},
		},
		{
			Name:        "color",
			Description: "Set your embed accent color",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "hex",
					Description: "Hex code",
					Required:    true,
				},
			},
		},
		{
			Name:        "tag",
			Description: "Per-server text tags",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "get",
					Description: "Recall a tag",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Tag name", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "create",
					Description: "Create a tag",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Tag name", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "content", Description: "Tag content", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "edit",
					Description: "Edit a tag",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Tag name", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "content", Description: "New content", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "delete",
					Description: "Delete a tag",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Tag name", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List all tags",
				},
			},
		},
	}
}

// optionMap flattens the interaction options for lookup by name
func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	mapped := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, option := range options {
		mapped[option.Name] = option
	}
	return mapped
}

func (bot *Bot) handleUptime(ctx context.Context, interaction *discordgo.InteractionCreate) {

	bot.deferReply(interaction)
	options := optionMap(interaction.ApplicationCommandData().Options)

	// Default to the author's linked account
	identifier := author(interaction).ID
	if option, ok := options["user"]; ok {
		identifier = option.StringValue()
	}
	windowDays := 7
	if option, ok := options["window"]; ok {
		windowDays = int(option.IntValue())
	}

	account, err := bot.resolver.Resolve(ctx, identifier)
	if err != nil {
		bot.editEmbed(interaction, errorEmbed("No linked account found"))
		return
	}

	series, err := bot.engine.Uptime(ctx, account.UUID, windowDays)
	if err != nil {
		log.Error().Err(err).Str("player", account.UUID).Msg("Uptime report failed")
		bot.editEmbed(interaction, errorEmbed("An internal error occurred"))
		return
	}

	color := bot.accentColor(ctx, author(interaction).ID)
	bot.editEmbed(interaction, uptimeEmbed(account.Username, series, color))
}

func (bot *Bot) handleLink(ctx context.Context, interaction *discordgo.InteractionCreate) {

	bot.deferReply(interaction)
	options := optionMap(interaction.ApplicationCommandData().Options)
	user := author(interaction)

	account, err := bot.resolver.Resolve(ctx, options["name"].StringValue())
	if err != nil {
		bot.editEmbed(interaction, errorEmbed("No account found for that name"))
		return
	}

	// The account must have this Discord user linked on Hypixel,
	// otherwise anyone could claim anyone
	linkedDiscord, err := bot.client.LinkedDiscord(ctx, account.UUID)
	if err != nil || linkedDiscord == "" {
		bot.editEmbed(interaction, errorEmbed(
			"That account has no discord linked on Hypixel. Link it in game first, then try again"))
		return
	}
	if !strings.EqualFold(linkedDiscord, user.Username) {
		bot.editEmbed(interaction, errorEmbed("You cannot link to accounts that are not yours"))
		return
	}

	if err := bot.users.Link(ctx, user.ID, user.Username, account.Username, account.UUID); err != nil {
		log.Error().Err(err).Msg("Could not store account link")
		bot.editEmbed(interaction, errorEmbed("An internal error occurred"))
		return
	}

	bot.editContent(interaction, fmt.Sprintf("Linked to **%s**", account.Username))
}

func (bot *Bot) handleLinked(ctx context.Context, interaction *discordgo.InteractionCreate) {

	bot.deferReply(interaction)
	options := optionMap(interaction.ApplicationCommandData().Options)
	target := options["user"].UserValue(bot.session)

	account, err := bot.resolver.Resolve(ctx, target.ID)
	if err != nil {
		bot.editEmbed(interaction, errorEmbed("No linked account found"))
		return
	}

	color := bot.accentColor(ctx, author(interaction).ID)
	bot.editEmbed(interaction, linkedAccountEmbed(account.Username, account.UUID, color))
}

func (bot *Bot) handleColor(ctx context.Context, interaction *discordgo.InteractionCreate) {

	bot.deferReply(interaction)
	options := optionMap(interaction.ApplicationCommandData().Options)
	user := author(interaction)

	input := options["hex"].StringValue()
	color, err := parseHexColor(input)
	if err != nil {
		bot.editEmbed(interaction, errorEmbed(
			"Invalid hex code. Please provide a valid 6-character hex code."))
		return
	}

	stored := "0x" + strings.TrimPrefix(strings.TrimPrefix(input, "#"), "0x")
	if err := bot.users.SetColor(ctx, user.ID, user.Username, stored); err != nil {
		log.Error().Err(err).Msg("Could not store accent color")
		bot.editEmbed(interaction, errorEmbed("An internal error occurred"))
		return
	}

	bot.editEmbed(interaction, &discordgo.MessageEmbed{
		Title:       "Color Updated",
		Description: "Your color has been updated successfully!",
		Color:       color,
	})
}

func (bot *Bot) handleTag(ctx context.Context, interaction *discordgo.InteractionCreate) {

	bot.deferReply(interaction)
	data := interaction.ApplicationCommandData()
	if interaction.GuildID == "" {
		bot.editEmbed(interaction, errorEmbed("Tags only work inside a server"))
		return
	}

	subcommand := data.Options[0]
	options := optionMap(subcommand.Options)
	guildID := interaction.GuildID
	user := author(interaction)

	switch subcommand.Name {
	case "get":
		name := options["name"].StringValue()
		content, err := bot.tags.Get(ctx, guildID, name)
		if errors.Is(err, tags.ErrNotFound) {
			if suggestion, err := bot.tags.Closest(ctx, guildID, name); err == nil {
				bot.editEmbed(interaction, errorEmbed(fmt.Sprintf("Tag not found. Did you mean `%s`?", suggestion)))
			} else {
				bot.editEmbed(interaction, errorEmbed("Tag not found"))
			}
			return
		}
		if err != nil {
			bot.editEmbed(interaction, errorEmbed("An internal error occurred"))
			return
		}
		bot.editContent(interaction, content)

	case "create":
		name := options["name"].StringValue()
		err := bot.tags.Create(ctx, guildID, name, options["content"].StringValue(), user.ID)
		if errors.Is(err, tags.ErrExists) {
			bot.editEmbed(interaction, errorEmbed(fmt.Sprintf("Tag `%s` already exists", name)))
			return
		}
		if err != nil {
			bot.editEmbed(interaction, errorEmbed("An internal error occurred"))
			return
		}
		bot.editContent(interaction, fmt.Sprintf("Created tag `%s`", name))

	case "edit":
		name := options["name"].StringValue()
		err := bot.tags.Edit(ctx, guildID, name, options["content"].StringValue())
		if errors.Is(err, tags.ErrNotFound) {
			bot.editEmbed(interaction, errorEmbed("Tag not found"))
			return
		}
		if err != nil {
			bot.editEmbed(interaction, errorEmbed("An internal error occurred"))
			return
		}
		bot.editContent(interaction, fmt.Sprintf("Updated tag `%s`", name))

	case "delete":
		name := options["name"].StringValue()
		err := bot.tags.Delete(ctx, guildID, name)
		if errors.Is(err, tags.ErrNotFound) {
			bot.editEmbed(interaction, errorEmbed("Tag not found"))
			return
		}
		if err != nil {
			bot.editEmbed(interaction, errorEmbed("An internal error occurred"))
			return
		}
		bot.editContent(interaction, fmt.Sprintf("Deleted tag `%s`", name))

	case "list":
		names, err := bot.tags.List(ctx, guildID)
		if err != nil {
			bot.editEmbed(interaction, errorEmbed("An internal error occurred"))
			return
		}
		formatted := "No tags found. Try creating a tag with `/tag create`"
		if len(names) > 0 {
			formatted = strings.Join(names, ", ")
		}
		color := bot.accentColor(ctx, user.ID)
		bot.editEmbed(interaction, &discordgo.MessageEmbed{
			Title:       "All Tags",
			Description: formatted,
			Color:       color,
		})
	}
}
