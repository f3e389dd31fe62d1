package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/permahub/permahub/internal/playground"
)

func newPlaygroundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playground",
		Short: "Try generative AI providers directly",
		Long: `The playground talks straight to the configured AI providers; it does
not touch the registry. Keys come from the environment or from
"permahub keys set".`,
	}

	cmd.AddCommand(newPlaygroundChatCmd())
	cmd.AddCommand(newPlaygroundImagineCmd())
	cmd.AddCommand(newPlaygroundGenerateCmd())

	return cmd
}

func newPlaygroundChatCmd() *cobra.Command {
	var interactive bool
	var model string

	cmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Send a chat prompt to OpenAI",
		Example: `  permahub playground chat "Explain permanent storage in one paragraph"
  permahub playground chat --interactive --model gpt-4`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			a.cfg.OpenAIChatModel = model
			play, err := a.playground()
			if err != nil {
				return err
			}

			if interactive {
				return runChatSession(cmd, play, "", "the playground")
			}
			if len(args) == 0 {
				return fmt.Errorf("provide a prompt or use --interactive")
			}

			reply, err := play.Chat(cmd.Context(), "", nil, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Println(reply)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Keep a conversation going across prompts")
	cmd.Flags().StringVar(&model, "model", "gpt-3.5-turbo", "OpenAI chat model")

	return cmd
}

func newPlaygroundImagineCmd() *cobra.Command {
	var size string

	cmd := &cobra.Command{
		Use:     "imagine <prompt>",
		Short:   "Generate an image and print its URL",
		Example: `  permahub playground imagine "an archive vault carved into a glacier" --size 1024x1024`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			play, err := a.playground()
			if err != nil {
				return err
			}

			url, err := play.GenerateImage(cmd.Context(), strings.Join(args, " "), size)
			if err != nil {
				return err
			}
			fmt.Println(url)
			return nil
		},
	}

	cmd.Flags().StringVar(&size, "size", "1024x1024", "Image size as WxH")

	return cmd
}

func newPlaygroundGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "generate <prompt>",
		Short:   "Send a text-generation prompt to Gemini",
		Example: `  permahub playground generate "Summarize the trade-offs of content addressing"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			play, err := a.playground()
			if err != nil {
				return err
			}

			reply, err := play.Generate(cmd.Context(), nil, strings.Join(args, " "))
			if err != nil {
				if playground.IsMissingCredential(err) {
					return fmt.Errorf("%w (set one with: permahub keys set --gemini <key>)", err)
				}
				return err
			}
			fmt.Println(reply)
			return nil
		},
	}
}
