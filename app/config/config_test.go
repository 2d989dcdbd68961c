package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
telegram:
  token: "123:abc"
llm:
  base_url: "https://openrouter.ai/api/v1"
  token: "sk-test"
  model: "test-model"
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Telegram.PollTimeout)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "file", cfg.Orders.Backend)
	assert.Equal(t, "data/orders.jsonl", cfg.Orders.FilePath)
	assert.Equal(t, 20, cfg.Bot.MaxHistory)
	assert.Equal(t, 32, cfg.Bot.MaxConcurrentEvents)
	assert.Equal(t, "@every 15m", cfg.Catalog.RefreshCron)
	assert.Contains(t, cfg.Buttons.BestExamplePhrases, "Посмотреть примеры работ")
	assert.NotEmpty(t, cfg.Buttons.TopicExamplePhrase)
	assert.Zero(t, cfg.Buttons.TokenTTL)
	assert.False(t, cfg.Notify.Email.Enabled())
}

func TestParseRejectsMissingToken(t *testing.T) {
	_, err := Parse([]byte(`
llm:
  base_url: "https://openrouter.ai/api/v1"
  token: "sk-test"
  model: "test-model"
`))
	require.Error(t, err)
}

func TestParseRequiresOrdersSheetForSheetsBackend(t *testing.T) {
	_, err := Parse([]byte(minimalConfig + `
orders:
  backend: sheets
`))
	require.Error(t, err)

	cfg, err := Parse([]byte(minimalConfig + `
orders:
  backend: sheets
  sheet_url: "https://docs.google.com/spreadsheets/d/abc/edit"
`))
	require.NoError(t, err)
	assert.Equal(t, "sheets", cfg.Orders.Backend)
}

func TestParseRejectsUnknownBackend(t *testing.T) {
	_, err := Parse([]byte(minimalConfig + `
orders:
  backend: excel
`))
	require.Error(t, err)
}

func TestEmailEnabled(t *testing.T) {
	email := Email{Host: "smtp.example.com", Port: 587, User: "bot@example.com", Password: "secret", To: "m@example.com"}
	assert.True(t, email.Enabled())

	email.Password = ""
	assert.False(t, email.Enabled())
}

func TestLoadUsesConfigPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalConfig), 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "test-model", cfg.LLM.Model)
}
