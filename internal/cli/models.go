package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/permahub/permahub/internal/filter"
	"github.com/permahub/permahub/internal/registry"
)

func newModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Browse and manage registered models",
	}

	cmd.AddCommand(newModelsListCmd())
	cmd.AddCommand(newModelsRegisterCmd())
	cmd.AddCommand(newModelsSearchCmd())
	cmd.AddCommand(newModelsCategoriesCmd())
	cmd.AddCommand(newModelsDeleteCmd())
	cmd.AddCommand(newMetricCmd(registry.KindModel, "like", registry.MetricLikes, "Like a model"))
	cmd.AddCommand(newMetricCmd(registry.KindModel, "fork", registry.MetricForks, "Fork a model"))
	cmd.AddCommand(newMetricCmd(registry.KindModel, "download", registry.MetricDownloads, "Record a model download"))

	return cmd
}

func newModelsListCmd() *cobra.Command {
	var (
		query      string
		typeBucket string
		category   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered models",
		Example: `  permahub models list
  permahub models list --type text --query llama
  permahub models list --category "Text Generation" --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, registry.KindModel, filter.Criteria{
				Query:    query,
				Type:     typeBucket,
				Category: category,
			}, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Substring match over name, description, and tags")
	cmd.Flags().StringVarP(&typeBucket, "type", "t", filter.TypeAll, "Type bucket: all, text, image, audio")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Exact category filter")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

// runList is the shared listing path for every entry kind.
func runList(cmd *cobra.Command, kind registry.Kind, criteria filter.Criteria, jsonOutput bool) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	repo, cleanup, err := a.repository()
	if err != nil {
		return err
	}
	defer cleanup()

	entries := filter.Apply(repo.List(cmd.Context(), kind), criteria)
	if jsonOutput {
		return printJSON(entries)
	}
	printEntries(kind, entries)
	return nil
}

func newModelsRegisterCmd() *cobra.Command {
	var in registry.Entry
	var tags string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new model",
		Example: `  permahub models register --name llama-3-ft --description "Fine-tuned Llama 3" \
    --model-type text-generation --repo https://github.com/acme/llama-3-ft \
    --category "Text Generation" --tags llm,finetune`,
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

			in.Tags = registry.ParseTags(tags)
			entry, err := repo.Create(cmd.Context(), registry.KindModel, in)
			if err != nil {
				return err
			}
			fmt.Printf("Registered model %q (owner %s)\n", entry.Name, entry.Owner)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Unique model name (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "Model description (required)")
	cmd.Flags().StringVar(&in.ModelType, "model-type", "",
		"One of: "+strings.Join(registry.ModelTypes, ", ")+" (required)")
	cmd.Flags().StringVar(&in.Repo, "repo", "", "Source repository URL")
	cmd.Flags().StringVar(&in.Dataset, "dataset", "", "Training dataset URL")
	cmd.Flags().StringVar(&in.DownloadURL, "download-url", "", "Artifact download URL")
	cmd.Flags().StringVar(&in.Category, "category", "", "Task category")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-joined tag list")

	return cmd
}

func newModelsSearchCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <model-type>",
		Short: "Search the remote registry for models of one type",
		Long: `Search queries the remote registry directly. Unlike list it does not
fall back to the cache, and the cached listing is left untouched.`,
		Example: `  permahub models search text-generation`,
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

			entries, err := repo.SearchByType(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(entries)
			}
			printEntries(registry.KindModel, entries)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func newModelsCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the task categories models may be registered under",
		RunE: func(cmd *cobra.Command, args []string) error {
			sections := make([]string, 0, len(registry.TaskCategories))
			for section := range registry.TaskCategories {
				sections = append(sections, section)
			}
			sort.Strings(sections)
			for _, section := range sections {
				fmt.Println(section)
				for _, task := range registry.TaskCategories[section] {
					fmt.Printf("  %s\n", task)
				}
			}
			return nil
		},
	}
}

func newModelsDeleteCmd() *cobra.Command {
	return newDeleteCmd(registry.KindModel, `  permahub models delete llama-3-ft`)
}

// newDeleteCmd builds a delete subcommand for one entry kind.
func newDeleteCmd(kind registry.Kind, example string) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   fmt.Sprintf("Delete a %s from the registry", kind),
		Example: example,
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

			if err := repo.Delete(cmd.Context(), kind, args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s %q\n", kind, args[0])
			return nil
		},
	}
}

// newMetricCmd builds a counter-bump subcommand (like, fork, download).
func newMetricCmd(kind registry.Kind, use, metric, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
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

			metrics, interactions, err := repo.UpdateMetric(cmd.Context(), kind, args[0], metric)
			if err != nil {
				return err
			}
			fmt.Printf("%s %q: downloads=%d likes=%d forks=%d",
				kind, args[0], metrics.Downloads, metrics.Likes, metrics.Forks)
			if interactions.Likes || interactions.Forks {
				fmt.Printf(" (you: likes=%t forks=%t)", interactions.Likes, interactions.Forks)
			}
			fmt.Println()
			return nil
		},
	}
}
