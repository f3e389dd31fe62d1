// Command permahub is the wallet-gated client for the permahub AI registry.
//
// Usage:
//
//	permahub [command]
//
// Available Commands:
//
//	models      Browse and manage registered models
//	datasets    Browse and manage registered datasets
//	agents      Browse, create, and chat with registered agents
//	playground  Try generative AI providers directly
//	keys        Manage playground provider API keys
//	serve       Run the MCP server (stdio transport)
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/permahub/permahub/internal/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Optional .env for local development; missing files are fine.
	_ = godotenv.Load()

	level := slog.LevelInfo
	if os.Getenv("PERMAHUB_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	// Logs go to stderr: stdout belongs to command output, and to the
	// MCP protocol when serving.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := cli.NewRootCmd(version)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		return 1
	}
	return 0
}
