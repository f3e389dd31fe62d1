package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "OLa6vFiZacT4KxDwbqDdA1zU6fc_QyQYkhqB52tiWbA", cfg.ProcessID)
	assert.Equal(t, "https://mu.ao-testnet.xyz", cfg.MUURL)
	assert.Equal(t, "https://cu.ao-testnet.xyz", cfg.CUURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 20, cfg.ResultPollAttempts)
	assert.Equal(t, "gpt-4", cfg.OpenAIChatModel)
	assert.Equal(t, "dall-e-3", cfg.OpenAIImageModel)
	assert.Equal(t, "gemini-1.5-pro", cfg.GeminiModel)
	assert.Equal(t, filepath.Join(cfg.StateDir, "registry.db"), cfg.CachePath())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PERMAHUB_PROCESS_ID", "custom-proc")
	t.Setenv("PERMAHUB_MU_URL", "http://localhost:4002")
	t.Setenv("PERMAHUB_RESULT_POLL_ATTEMPTS", "3")
	t.Setenv("PERMAHUB_RESULT_POLL_INTERVAL", "50ms")
	t.Setenv("PERMAHUB_STATE_DIR", "/tmp/permahub-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "custom-proc", cfg.ProcessID)
	assert.Equal(t, "http://localhost:4002", cfg.MUURL)
	assert.Equal(t, 3, cfg.ResultPollAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.ResultPollInterval)
	assert.Equal(t, "/tmp/permahub-test/registry.db", cfg.CachePath())
}

func TestValidate(t *testing.T) {
	valid := Config{
		ProcessID:          "p",
		MUURL:              "http://mu",
		CUURL:              "http://cu",
		ResultPollInterval: time.Second,
		ResultPollAttempts: 1,
	}
	assert.NoError(t, valid.Validate())

	missingProcess := valid
	missingProcess.ProcessID = ""
	assert.Error(t, missingProcess.Validate())

	badAttempts := valid
	badAttempts.ResultPollAttempts = 0
	assert.Error(t, badAttempts.Validate())
}

func TestCredentialsRoundTrip(t *testing.T) {
	dir := t.TempDir()

	// Missing file yields zero credentials, not an error.
	creds, err := LoadCredentials(dir)
	require.NoError(t, err)
	assert.Equal(t, Credentials{}, creds)

	require.NoError(t, SaveCredentials(dir, Credentials{OpenAI: "sk-1", Gemini: "g-1"}))

	loaded, err := LoadCredentials(dir)
	require.NoError(t, err)
	assert.Equal(t, Credentials{OpenAI: "sk-1", Gemini: "g-1"}, loaded)
}

func TestCredentialsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SaveCredentials(dir, Credentials{}))

	// Overwrite with junk: this is an error, unlike a missing file.
	path := filepath.Join(dir, credentialsFile)
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o600))

	_, err := LoadCredentials(dir)
	assert.Error(t, err)
}
