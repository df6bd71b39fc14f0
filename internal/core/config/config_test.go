package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "s3cret")

	path := writeConfig(t, `
[bot]
log_level = "debug"
metrics_address = ":9090"
rate_limit = 2.0
rate_burst = 5

[transport.discord]
enabled = true
bot_token = "${TEST_BOT_TOKEN}"
command_prefix = "!!"

[transport.telegram]
enabled = false
bot_token = "unused"

[storage.sqlite]
enabled = true
path = "bot.db"

[integration.youtube]
enabled = true
api_key = "yt-key"

[integration.openrouter]
enabled = true
api_key = "or-key"

[integration.downforacross]
enabled = false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Bot.LogLevel)
	assert.Equal(t, ":9090", cfg.Bot.MetricsAddress)
	assert.InDelta(t, 2.0, cfg.Bot.RateLimit, 0.001)
	assert.Equal(t, 5, cfg.Bot.RateBurst)

	assert.Equal(t, "discord", cfg.Transport.Name)
	assert.Equal(t, "s3cret", cfg.Transport.Options["bot_token"])
	assert.Equal(t, "!!", cfg.Transport.Options["command_prefix"])
	assert.NotContains(t, cfg.Transport.Options, "enabled")

	assert.Equal(t, "sqlite", cfg.Storage.Name)
	assert.Equal(t, "bot.db", cfg.Storage.Options["path"])

	require.Len(t, cfg.Integrations, 2)
	assert.Equal(t, "openrouter", cfg.Integrations[0].Name)
	assert.Equal(t, "youtube", cfg.Integrations[1].Name)
	assert.Equal(t, "yt-key", cfg.Integrations[1].Options["api_key"])
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
[transport.telegram]
enabled = true
bot_token = "t"

[storage.memory]
enabled = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Bot.LogLevel)
	assert.Empty(t, cfg.Bot.MetricsAddress)
	assert.Zero(t, cfg.Bot.RateLimit)
	assert.Equal(t, 1, cfg.Bot.RateBurst)
	assert.Empty(t, cfg.Integrations)
}

func TestLoadRequiresExactlyOneTransport(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "none enabled",
			content: `
[transport.discord]
enabled = false
bot_token = "t"

[storage.memory]
enabled = true
`,
		},
		{
			name: "two enabled",
			content: `
[transport.discord]
enabled = true
bot_token = "t"

[transport.telegram]
enabled = true
bot_token = "t"

[storage.memory]
enabled = true
`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))

			require.Error(t, err)
			assert.Contains(t, err.Error(), "exactly one transport")
		})
	}
}

func TestLoadRequiresExactlyOneStorage(t *testing.T) {
	_, err := Load(writeConfig(t, `
[transport.telegram]
enabled = true
bot_token = "t"

[storage.sqlite]
enabled = true
path = "a.db"

[storage.postgres]
enabled = true
url = "postgres://localhost/bot"
`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one storage")
}

func TestLoadRejectsUnknownSection(t *testing.T) {
	_, err := Load(writeConfig(t, `
[platform.discord]
enabled = true

[transport.telegram]
enabled = true
bot_token = "t"

[storage.memory]
enabled = true
`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized config section")
}

func TestLoadRejectsInvalidRateLimit(t *testing.T) {
	_, err := Load(writeConfig(t, `
[bot]
rate_limit = -1.0

[transport.telegram]
enabled = true
bot_token = "t"

[storage.memory]
enabled = true
`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate_limit")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))

	require.Error(t, err)
}
