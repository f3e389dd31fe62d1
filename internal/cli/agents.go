package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/permahub/permahub/internal/filter"
	"github.com/permahub/permahub/internal/playground"
	"github.com/permahub/permahub/internal/registry"
)

func newAgentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Browse, create, and chat with registered agents",
	}

	cmd.AddCommand(newAgentsListCmd())
	cmd.AddCommand(newAgentsCreateCmd())
	cmd.AddCommand(newAgentsChatCmd())
	cmd.AddCommand(newDeleteCmd(registry.KindAgent, `  permahub agents delete docs-helper`))
	cmd.AddCommand(newMetricCmd(registry.KindAgent, "like", registry.MetricLikes, "Like an agent"))

	return cmd
}

func newAgentsListCmd() *cobra.Command {
	var (
		query      string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, registry.KindAgent, filter.Criteria{Query: query}, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Substring match over name, description, and tags")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func newAgentsCreateCmd() *cobra.Command {
	var in registry.Entry

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new documentation agent",
		Example: `  permahub agents create --name docs-helper --description "Answers protocol questions" \
    --document https://docs.example.org/getting-started \
    --document https://docs.example.org/api \
    --model gpt-4 --type documentation`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			repo, cleanup, err := a.repository()
			if err != nil {
				return err
			}
			defer cleanup()

			entry, err := repo.Create(cmd.Context(), registry.KindAgent, in)
			if err != nil {
				return err
			}
			fmt.Printf("Created agent %q (owner %s)\n", entry.Name, entry.Owner)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Unique agent name (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "Agent description (required)")
	cmd.Flags().StringArrayVar(&in.Documents, "document", nil, "Documentation URL (repeatable)")
	cmd.Flags().StringVar(&in.Model, "model", "", "Backing model identifier (required)")
	cmd.Flags().StringVar(&in.Type, "type", "", "Agent category (required)")

	return cmd
}

func newAgentsChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <name>",
		Short: "Open an interactive chat session with an agent",
		Long: `Chat opens a session scoped to one agent. The agent's documentation
links are folded into the system instruction, and the conversation
history is kept for the duration of the session only; nothing is
persisted when the session ends.`,
		Example: `  permahub agents chat docs-helper`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			repo, cleanup, err := a.repository()
			if err != nil {
				return err
			}
			defer cleanup()

			agent, ok := findEntry(repo.List(cmd.Context(), registry.KindAgent), args[0])
			if !ok {
				return fmt.Errorf("agent %q not found", args[0])
			}

			play, err := a.playground()
			if err != nil {
				return err
			}

			// Opening a chat counts as one interaction; failure to record
			// it never blocks the session.
			if _, _, err := repo.UpdateMetric(cmd.Context(), registry.KindAgent, agent.Name, registry.MetricInteractions); err != nil {
				a.logger.Debug("interaction count not recorded", "agent", agent.Name, "error", err)
			}

			return runChatSession(cmd, play, playground.AgentSystemPrompt(agent.Name, agent.Documents), agent.Name)
		},
	}

	return cmd
}

// runChatSession reads prompts from stdin until EOF or "exit", keeping the
// session history in memory only.
func runChatSession(cmd *cobra.Command, play *playground.Client, systemPrompt, label string) error {
	fmt.Printf("Chatting with %s. Type \"exit\" or Ctrl-D to quit.\n", label)

	var history []playground.Message
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		prompt := strings.TrimSpace(scanner.Text())
		if prompt == "" {
			continue
		}
		if prompt == "exit" || prompt == "quit" {
			return nil
		}

		reply, err := play.Chat(cmd.Context(), systemPrompt, history, prompt)
		if err != nil {
			if playground.IsMissingCredential(err) {
				return fmt.Errorf("%w (set one with: permahub keys set --openai <key>)", err)
			}
			// Provider hiccups end the turn, not the session.
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		fmt.Println(reply)
		history = append(history,
			playground.Message{Role: "user", Content: prompt},
			playground.Message{Role: "assistant", Content: reply},
		)
	}
}
