package bot

import (
	"fmt"
	"strconv"
	"strings"

	"guildbot/internal/uptime"

	"github.com/bwmarrin/discordgo"
)

// Default accent color for users that never picked one
const defaultColor = 0x383838

// Color for error embeds
const errorColor = 0xa10d0d

// One hour of guild uptime is worth 9000 gexp, one minute 150
func gexpToUptime(gexp int64) string {
	return fmt.Sprintf("%dh %dm", gexp/9000, (gexp%9000)/150)
}

// parseHexColor accepts "aabbcc", "#aabbcc" and "0xaabbcc"
func parseHexColor(input string) (int, error) {
	hex := strings.TrimPrefix(strings.TrimPrefix(input, "#"), "0x")
	if len(hex) != 6 {
		return 0, fmt.Errorf("hex color must have 6 characters")
	}
	value, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("not a valid hex color: %s", input)
	}
	return int(value), nil
}

func uptimeEmbed(username string, series []uptime.DayExperience, color int) *discordgo.MessageEmbed {

	var description strings.Builder
	var total int64
	for _, day := range series {
		if day.Experience.Known {
			total += day.Experience.Gexp
			fmt.Fprintf(&description, "`%s`: %s\n", day.Date, gexpToUptime(day.Experience.Gexp))
		} else {
			fmt.Fprintf(&description, "`%s`: Unknown\n", day.Date)
		}
	}
	if len(series) > 0 {
		average := total / int64(len(series))
		fmt.Fprintf(&description, "\n**Average Uptime**: %s\n", gexpToUptime(average))
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Uptime for **%s**", username),
		Description: description.String(),
		Color:       color,
	}
}

func linkedAccountEmbed(username string, uuid string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Player information for **%s**", username),
		Description: fmt.Sprintf(
			"Username: **%s**\nUUID: `%s`\n\n<https://sky.shiiyu.moe/stats/%s>",
			username, uuid, username,
		),
		Color: color,
	}
}

func errorEmbed(description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Error",
		Description: description,
		Color:       errorColor,
	}
}
