package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/permahub/permahub/internal/config"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage playground provider API keys",
	}

	cmd.AddCommand(newKeysSetCmd())
	cmd.AddCommand(newKeysShowCmd())

	return cmd
}

func newKeysSetCmd() *cobra.Command {
	var openAIKey, geminiKey string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store provider API keys in the state directory",
		Long: `Set persists keys to credentials.json in the state directory with
owner-only permissions. Only the flags you pass are changed; environment
variables (OPENAI_API_KEY, GEMINI_API_KEY) still take precedence at
call time.`,
		Example: `  permahub keys set --openai sk-...
  permahub keys set --gemini AIza...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if openAIKey == "" && geminiKey == "" {
				return fmt.Errorf("nothing to set: pass --openai and/or --gemini")
			}

			a, err := newApp()
			if err != nil {
				return err
			}

			creds, err := config.LoadCredentials(a.cfg.StateDir)
			if err != nil {
				return err
			}
			if openAIKey != "" {
				creds.OpenAI = openAIKey
			}
			if geminiKey != "" {
				creds.Gemini = geminiKey
			}
			if err := config.SaveCredentials(a.cfg.StateDir, creds); err != nil {
				return err
			}

			fmt.Println("Credentials saved.")
			return nil
		},
	}

	cmd.Flags().StringVar(&openAIKey, "openai", "", "OpenAI API key")
	cmd.Flags().StringVar(&geminiKey, "gemini", "", "Gemini API key")

	return cmd
}

func newKeysShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show which provider keys are configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			creds, err := config.LoadCredentials(a.cfg.StateDir)
			if err != nil {
				return err
			}

			fmt.Printf("openai: %s\n", maskKey(firstNonEmpty(a.cfg.OpenAIAPIKey, creds.OpenAI)))
			fmt.Printf("gemini: %s\n", maskKey(firstNonEmpty(a.cfg.GeminiAPIKey, creds.Gemini)))
			return nil
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// maskKey keeps just enough of the key to recognize it.
func maskKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 8:
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
