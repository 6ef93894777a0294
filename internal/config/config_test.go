package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "0 7 * * 1", cfg.Scheduler.CronExpression)
	assert.Equal(t, "https://api.todoist.com/api/v1", cfg.Todoist.BaseURL)
	assert.Equal(t, "gemini-2.0-flash-001", cfg.Gemini.Model)
	assert.Equal(t, 587, cfg.Email.SMTPPort)
	assert.Equal(t, 50, cfg.Extractor.MinWords)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
logging:
  level: debug
scheduler:
  enabled: true
  cronExpression: "30 8 * * 5"
  timezone: Europe/Paris
pipeline:
  minRequired: 3
  maxCount: 10
todoist:
  projectId: "123"
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	t.Setenv(configPathEnv, path)

	cfg := Load()

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "30 8 * * 5", cfg.Scheduler.CronExpression)
	assert.Equal(t, "Europe/Paris", cfg.Scheduler.Location().String())
	assert.Equal(t, 3, cfg.Pipeline.MinRequired)
	assert.Equal(t, 10, cfg.Pipeline.MaxCount)
	assert.Equal(t, "123", cfg.Todoist.ProjectID)
	// untouched sections keep their defaults
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(todoistTokenEnv, "tok")
	t.Setenv(geminiAPIKeyEnv, "key")
	t.Setenv(recipientEmailEnv, "a@example.com, b@example.com")
	t.Setenv(logLevelEnv, "warn")

	cfg := Load()

	assert.Equal(t, "tok", cfg.Todoist.Token)
	assert.Equal(t, "key", cfg.Gemini.APIKey)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Email.To)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := defaultConfig()
	valid.Todoist.Token = "tok"
	valid.Todoist.ProjectID = "p1"
	valid.Gemini.APIKey = "key"
	valid.Email.From = "me@example.com"
	valid.Email.To = []string{"me@example.com"}
	require.NoError(t, valid.Validate())

	missingToken := valid
	missingToken.Todoist.Token = ""
	assert.Error(t, missingToken.Validate())

	badBounds := valid
	badBounds.Pipeline.MinRequired = 30
	badBounds.Pipeline.MaxCount = 5
	assert.Error(t, badBounds.Validate())

	noRecipients := valid
	noRecipients.Email.To = nil
	assert.Error(t, noRecipients.Validate())
}

func TestUnknownTimezoneFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scheduler:\n  timezone: Mars/Olympus\n"), 0o600))
	t.Setenv(configPathEnv, path)

	cfg := Load()

	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
}
