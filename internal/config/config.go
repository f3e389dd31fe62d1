// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Registry process settings.
	ProcessID string // Address of the remote registry process.
	MUURL     string // Messenger endpoint messages are submitted to.
	CUURL     string // Compute endpoint results are fetched from.

	// Wallet settings.
	WalletPath string // Path to the JWK keyfile. Empty means no wallet.

	// Local state.
	StateDir string // Directory holding the cache database and credentials.

	// Gateway timing.
	RequestTimeout     time.Duration
	ResultPollInterval time.Duration
	ResultPollAttempts int

	// Playground provider settings.
	OpenAIAPIKey     string
	GeminiAPIKey     string
	OpenAIChatModel  string
	OpenAIImageModel string
	GeminiModel      string

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Operational settings.
	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		ProcessID:          envStr("PERMAHUB_PROCESS_ID", "OLa6vFiZacT4KxDwbqDdA1zU6fc_QyQYkhqB52tiWbA"),
		MUURL:              envStr("PERMAHUB_MU_URL", "https://mu.ao-testnet.xyz"),
		CUURL:              envStr("PERMAHUB_CU_URL", "https://cu.ao-testnet.xyz"),
		WalletPath:         envStr("PERMAHUB_WALLET", defaultWalletPath()),
		StateDir:           envStr("PERMAHUB_STATE_DIR", defaultStateDir()),
		RequestTimeout:     envDuration("PERMAHUB_REQUEST_TIMEOUT", 30*time.Second),
		ResultPollInterval: envDuration("PERMAHUB_RESULT_POLL_INTERVAL", 500*time.Millisecond),
		ResultPollAttempts: envInt("PERMAHUB_RESULT_POLL_ATTEMPTS", 20),
		OpenAIAPIKey:       envStr("OPENAI_API_KEY", ""),
		GeminiAPIKey:       envStr("GEMINI_API_KEY", ""),
		OpenAIChatModel:    envStr("PERMAHUB_OPENAI_CHAT_MODEL", "gpt-4"),
		OpenAIImageModel:   envStr("PERMAHUB_OPENAI_IMAGE_MODEL", "dall-e-3"),
		GeminiModel:        envStr("PERMAHUB_GEMINI_MODEL", "gemini-1.5-pro"),
		OTELEndpoint:       envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:       envBool("PERMAHUB_OTEL_INSECURE", false),
		ServiceName:        envStr("OTEL_SERVICE_NAME", "permahub"),
		LogLevel:           envStr("PERMAHUB_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present.
func (c Config) Validate() error {
	if c.ProcessID == "" {
		return fmt.Errorf("config: PERMAHUB_PROCESS_ID is required")
	}
	if c.MUURL == "" || c.CUURL == "" {
		return fmt.Errorf("config: PERMAHUB_MU_URL and PERMAHUB_CU_URL are required")
	}
	if c.ResultPollAttempts <= 0 {
		return fmt.Errorf("config: PERMAHUB_RESULT_POLL_ATTEMPTS must be positive")
	}
	if c.ResultPollInterval <= 0 {
		return fmt.Errorf("config: PERMAHUB_RESULT_POLL_INTERVAL must be positive")
	}
	return nil
}

// CachePath returns the path of the cache database inside the state directory.
func (c Config) CachePath() string {
	return filepath.Join(c.StateDir, "registry.db")
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".permahub"
	}
	return filepath.Join(home, ".permahub")
}

func defaultWalletPath() string {
	return filepath.Join(defaultStateDir(), "wallet.json")
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
