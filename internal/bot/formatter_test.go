package bot

import (
	"strings"
	"testing"

	"guildbot/internal/uptime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGexpToUptime(t *testing.T) {
	assert.Equal(t, "0h 0m", gexpToUptime(0))
	assert.Equal(t, "0h 1m", gexpToUptime(150))
	assert.Equal(t, "1h 0m", gexpToUptime(9000))
	assert.Equal(t, "1h 1m", gexpToUptime(9150))
	assert.Equal(t, "2h 30m", gexpToUptime(22500))
}

func TestParseHexColor(t *testing.T) {
	for _, input := range []string{"a1b2c3", "#a1b2c3", "0xa1b2c3"} {
		color, err := parseHexColor(input)
		require.NoError(t, err, input)
		assert.Equal(t, 0xa1b2c3, color)
	}

	for _, input := range []string{"", "xyzxyz", "abc", "a1b2c3d4"} {
		_, err := parseHexColor(input)
		assert.Error(t, err, input)
	}
}

func TestUptimeEmbed(t *testing.T) {
	series := []uptime.DayExperience{
		{Date: "2026-08-31", Experience: uptime.KnownExperience(9000)},
		{Date: "2026-08-30", Experience: uptime.UnknownExperience()},
		{Date: "2026-08-29", Experience: uptime.KnownExperience(150)},
	}

	embed := uptimeEmbed("Steve", series, defaultColor)
	assert.Contains(t, embed.Title, "Steve")
	assert.Equal(t, defaultColor, embed.Color)

	lines := strings.Split(strings.TrimSpace(embed.Description), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, lines[0], "1h 0m")
	assert.Contains(t, lines[1], "Unknown")
	assert.Contains(t, lines[2], "0h 1m")
	assert.Contains(t, embed.Description, "Average Uptime")
}
