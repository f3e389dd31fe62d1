package mcp

import (
	"context"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/permahub/permahub/internal/filter"
	"github.com/permahub/permahub/internal/registry"
)

func (s *Server) registerTools() {
	// registry_list — list entries of one kind, optionally filtered.
	s.mcpServer.AddTool(
		mcplib.NewTool("registry_list",
			mcplib.WithDescription(`List registered models, datasets, or agents.

Refreshes from the remote registry process when reachable and falls back
to the local cache otherwise, so results may be slightly stale but the
call never fails outright.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithString("kind",
				mcplib.Description("Entry kind: model, dataset, or agent"),
				mcplib.Required(),
			),
			mcplib.WithString("query",
				mcplib.Description("Optional substring match over name, description, and tags"),
			),
			mcplib.WithString("type",
				mcplib.Description("Optional model type bucket: all, text, image, or audio"),
			),
			mcplib.WithString("category",
				mcplib.Description("Optional exact category filter"),
			),
		),
		s.handleList,
	)

	// registry_search — remote search of models by type.
	s.mcpServer.AddTool(
		mcplib.NewTool("registry_search",
			mcplib.WithDescription(`Search the remote registry for models of one model type.

Unlike registry_list this always queries the remote process and returns
only matching models; it fails when the registry is unreachable.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithString("model_type",
				mcplib.Description("One of text-generation, image-generation, audio"),
				mcplib.Required(),
			),
		),
		s.handleSearch,
	)

	// registry_register — create a new entry.
	s.mcpServer.AddTool(
		mcplib.NewTool("registry_register",
			mcplib.WithDescription(`Register a new model, dataset, or agent in the registry.

Requires a connected wallet; the entry is signed and submitted to the
remote process and the new record is returned on acceptance.`),
			mcplib.WithDestructiveHintAnnotation(false),
			mcplib.WithString("kind",
				mcplib.Description("Entry kind: model, dataset, or agent"),
				mcplib.Required(),
			),
			mcplib.WithString("name",
				mcplib.Description("Unique entry name within its kind"),
				mcplib.Required(),
			),
			mcplib.WithString("description",
				mcplib.Description("Human-readable description"),
				mcplib.Required(),
			),
			mcplib.WithString("model_type",
				mcplib.Description("Models only: text-generation, image-generation, or audio"),
			),
			mcplib.WithString("repo",
				mcplib.Description("Models only: source repository URL"),
			),
			mcplib.WithString("download_url",
				mcplib.Description("Models only: artifact download URL"),
			),
			mcplib.WithString("category",
				mcplib.Description("Models only: task category"),
			),
			mcplib.WithString("tags",
				mcplib.Description("Comma-joined tag list"),
			),
			mcplib.WithString("ardrive_link",
				mcplib.Description("Datasets only: ArDrive link to the data"),
			),
			mcplib.WithString("documents",
				mcplib.Description("Agents only: newline-separated documentation URLs"),
			),
			mcplib.WithString("model",
				mcplib.Description("Agents only: backing model identifier"),
			),
			mcplib.WithString("type",
				mcplib.Description("Agents only: agent category"),
			),
		),
		s.handleRegister,
	)

	// registry_metrics — bump a counter on an entry.
	s.mcpServer.AddTool(
		mcplib.NewTool("registry_metrics",
			mcplib.WithDescription(`Record a download, like, or fork on a registry entry.

Requires a connected wallet; the increment is attributed to the wallet
address so duplicates can be detected remotely.`),
			mcplib.WithIdempotentHintAnnotation(false),
			mcplib.WithString("kind",
				mcplib.Description("Entry kind: model, dataset, or agent"),
				mcplib.Required(),
			),
			mcplib.WithString("name",
				mcplib.Description("Entry name"),
				mcplib.Required(),
			),
			mcplib.WithString("metric",
				mcplib.Description("Counter to bump: downloads, likes, forks, or interactions"),
				mcplib.Required(),
			),
		),
		s.handleMetrics,
	)

	// registry_delete — remove an entry.
	s.mcpServer.AddTool(
		mcplib.NewTool("registry_delete",
			mcplib.WithDescription("Delete a registry entry by kind and name. Requires a connected wallet."),
			mcplib.WithDestructiveHintAnnotation(true),
			mcplib.WithString("kind",
				mcplib.Description("Entry kind: model, dataset, or agent"),
				mcplib.Required(),
			),
			mcplib.WithString("name",
				mcplib.Description("Entry name"),
				mcplib.Required(),
			),
		),
		s.handleDelete,
	)
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func parseKind(request mcplib.CallToolRequest) (registry.Kind, *mcplib.CallToolResult) {
	kind := registry.Kind(request.GetString("kind", ""))
	if !kind.Valid() {
		return "", errorResult(fmt.Sprintf("kind must be model, dataset, or agent, got %q", kind))
	}
	return kind, nil
}

func (s *Server) handleList(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	kind, errRes := parseKind(request)
	if errRes != nil {
		return errRes, nil
	}

	entries := s.repo.List(ctx, kind)
	entries = filter.Apply(entries, filter.Criteria{
		Query:    request.GetString("query", ""),
		Type:     request.GetString("type", ""),
		Category: request.GetString("category", ""),
	})
	return jsonResult(map[string]any{"kind": kind, "count": len(entries), "entries": entries}), nil
}

func (s *Server) handleSearch(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	modelType := request.GetString("model_type", "")
	entries, err := s.repo.SearchByType(ctx, modelType)
	if err != nil {
		return errorResult(fmt.Sprintf("search failed: %v", err)), nil
	}
	return jsonResult(map[string]any{"count": len(entries), "entries": entries}), nil
}

func (s *Server) handleRegister(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	kind, errRes := parseKind(request)
	if errRes != nil {
		return errRes, nil
	}

	in := registry.Entry{
		Name:        request.GetString("name", ""),
		Description: request.GetString("description", ""),
		Tags:        registry.ParseTags(request.GetString("tags", "")),
		ModelType:   request.GetString("model_type", ""),
		Repo:        request.GetString("repo", ""),
		DownloadURL: request.GetString("download_url", ""),
		Category:    request.GetString("category", ""),
		ArdriveLink: request.GetString("ardrive_link", ""),
		Model:       request.GetString("model", ""),
		Type:        request.GetString("type", ""),
	}
	if docs := request.GetString("documents", ""); docs != "" {
		in.Documents = splitLines(docs)
	}

	entry, err := s.repo.Create(ctx, kind, in)
	if err != nil {
		return errorResult(fmt.Sprintf("register failed: %v", err)), nil
	}
	return jsonResult(map[string]any{"status": "registered", "entry": entry}), nil
}

func (s *Server) handleMetrics(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	kind, errRes := parseKind(request)
	if errRes != nil {
		return errRes, nil
	}

	metrics, interactions, err := s.repo.UpdateMetric(ctx,
		kind,
		request.GetString("name", ""),
		request.GetString("metric", ""),
	)
	if err != nil {
		return errorResult(fmt.Sprintf("metric update failed: %v", err)), nil
	}
	return jsonResult(map[string]any{"metrics": metrics, "interactions": interactions}), nil
}

func (s *Server) handleDelete(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	kind, errRes := parseKind(request)
	if errRes != nil {
		return errRes, nil
	}

	name := request.GetString("name", "")
	if err := s.repo.Delete(ctx, kind, name); err != nil {
		return errorResult(fmt.Sprintf("delete failed: %v", err)), nil
	}
	return jsonResult(map[string]any{"status": "deleted", "name": name}), nil
}
