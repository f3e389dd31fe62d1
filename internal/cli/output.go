package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/permahub/permahub/internal/registry"
)

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printEntries renders an entry list as a kind-appropriate table.
func printEntries(kind registry.Kind, entries []registry.Entry) {
	if len(entries) == 0 {
		fmt.Printf("No %s found.\n", kindLabel(kind))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	switch kind {
	case registry.KindModel:
		fmt.Fprintln(w, "NAME\tTYPE\tCATEGORY\tDOWNLOADS\tLIKES\tFORKS\tCREATED")
		for _, e := range entries {
			var m registry.Metrics
			if e.Metrics != nil {
				m = *e.Metrics
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
				e.Name, e.ModelType, e.Category, m.Downloads, m.Likes, m.Forks, formatCreated(e.CreatedAt))
		}
	case registry.KindDataset:
		fmt.Fprintln(w, "NAME\tSIZE\tITEMS\tLICENSE\tDOWNLOADS\tCREATED")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%s\n",
				e.Name, e.Size, e.ItemCount, e.License, e.Downloads, formatCreated(e.CreatedAt))
		}
	case registry.KindAgent:
		fmt.Fprintln(w, "NAME\tMODEL\tTYPE\tDOCS\tCREATED")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				e.Name, e.Model, e.Type, len(e.Documents), formatCreated(e.CreatedAt))
		}
	}
}

func formatCreated(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format("2006-01-02")
}

// findEntry looks an entry up by name in a listing.
func findEntry(entries []registry.Entry, name string) (registry.Entry, bool) {
	for _, e := range entries {
		if e.Name == name {
			return e, true
		}
	}
	return registry.Entry{}, false
}
