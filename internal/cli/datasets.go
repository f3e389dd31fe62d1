package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/permahub/permahub/internal/filter"
	"github.com/permahub/permahub/internal/registry"
)

func newDatasetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "Browse and manage registered datasets",
	}

	cmd.AddCommand(newDatasetsListCmd())
	cmd.AddCommand(newDatasetsRegisterCmd())
	cmd.AddCommand(newDeleteCmd(registry.KindDataset, `  permahub datasets delete common-crawl-mini`))
	cmd.AddCommand(newMetricCmd(registry.KindDataset, "download", registry.MetricDownloads, "Record a dataset download"))

	return cmd
}

func newDatasetsListCmd() *cobra.Command {
	var (
		query      string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered datasets",
		Example: `  permahub datasets list
  permahub datasets list --query crawl --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, registry.KindDataset, filter.Criteria{Query: query}, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Substring match over name, description, and tags")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func newDatasetsRegisterCmd() *cobra.Command {
	var in registry.Entry
	var tags string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new dataset",
		Example: `  permahub datasets register --name common-crawl-mini --description "Web text sample" \
    --ardrive-link https://app.ardrive.io/#/file/abc --size 2.4GB --item-count 100000 \
    --file-type parquet --license cc-by-4.0`,
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
			entry, err := repo.Create(cmd.Context(), registry.KindDataset, in)
			if err != nil {
				return err
			}
			fmt.Printf("Registered dataset %q (owner %s)\n", entry.Name, entry.Owner)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Unique dataset name (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "Dataset description (required)")
	cmd.Flags().StringVar(&in.ArdriveLink, "ardrive-link", "", "ArDrive link to the data (required)")
	cmd.Flags().Int64Var(&in.ItemCount, "item-count", 0, "Number of items in the dataset")
	cmd.Flags().StringVar(&in.Size, "size", "", "Human-readable size, e.g. 2.4GB")
	cmd.Flags().StringVar(&in.FileType, "file-type", "", "Data file format, e.g. parquet")
	cmd.Flags().StringVar(&in.License, "license", "", "Dataset license")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-joined tag list")

	return cmd
}
