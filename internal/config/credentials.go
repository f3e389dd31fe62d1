package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// credentialsFile is the filename of the persisted playground credentials
// inside the state directory.
const credentialsFile = "credentials.json"

// Credentials holds the playground provider API keys. The on-disk shape is
// a single JSON blob {"openai": "...", "gemini": "..."}.
type Credentials struct {
	OpenAI string `json:"openai"`
	Gemini string `json:"gemini"`
}

// LoadCredentials reads the persisted playground credentials from the state
// directory. A missing file is not an error and yields zero credentials.
func LoadCredentials(stateDir string) (Credentials, error) {
	raw, err := os.ReadFile(filepath.Join(stateDir, credentialsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, nil
		}
		return Credentials{}, fmt.Errorf("config: read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return Credentials{}, fmt.Errorf("config: parse credentials: %w", err)
	}
	return creds, nil
}

// SaveCredentials writes the playground credentials to the state directory,
// creating it if needed. The file is written with owner-only permissions
// since it holds API keys.
func SaveCredentials(stateDir string, creds Credentials) error {
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return fmt.Errorf("config: create state directory: %w", err)
	}

	raw, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal credentials: %w", err)
	}

	path := filepath.Join(stateDir, credentialsFile)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("config: write credentials: %w", err)
	}
	return nil
}
