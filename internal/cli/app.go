// Package cli implements the permahub command tree.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/permahub/permahub/internal/cache"
	"github.com/permahub/permahub/internal/config"
	"github.com/permahub/permahub/internal/gateway"
	"github.com/permahub/permahub/internal/playground"
	"github.com/permahub/permahub/internal/registry"
	"github.com/permahub/permahub/internal/wallet"
)

// app bundles the lazily constructed dependencies shared by all commands.
// Each command invocation builds exactly one app from the environment.
type app struct {
	cfg    config.Config
	logger *slog.Logger
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: slog.Default()}, nil
}

// repository wires wallet, gateway, and cache into an entry repository.
// A missing or unreadable wallet keyfile is not fatal here; read-only
// commands work without one and writes fail per call.
func (a *app) repository() (*registry.Repository, func(), error) {
	var signer gateway.Signer
	if w, err := wallet.Load(a.cfg.WalletPath); err == nil {
		signer = w
	} else {
		a.logger.Debug("no wallet loaded", "path", a.cfg.WalletPath, "error", err)
	}

	gw, err := gateway.New(gateway.Config{
		ProcessID:    a.cfg.ProcessID,
		MUURL:        a.cfg.MUURL,
		CUURL:        a.cfg.CUURL,
		Signer:       signer,
		Logger:       a.logger,
		PollInterval: a.cfg.ResultPollInterval,
		PollAttempts: a.cfg.ResultPollAttempts,
	})
	if err != nil {
		return nil, nil, err
	}

	store, err := cache.Open(a.cfg.CachePath(), a.logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() { _ = store.Close() }
	return registry.New(gw, store, a.logger), cleanup, nil
}

// playground builds the generative AI client. Environment keys take
// precedence over the persisted credentials file.
func (a *app) playground() (*playground.Client, error) {
	creds, err := config.LoadCredentials(a.cfg.StateDir)
	if err != nil {
		return nil, err
	}

	openAIKey := a.cfg.OpenAIAPIKey
	if openAIKey == "" {
		openAIKey = creds.OpenAI
	}
	geminiKey := a.cfg.GeminiAPIKey
	if geminiKey == "" {
		geminiKey = creds.Gemini
	}

	return playground.New(playground.Config{
		OpenAIKey:   openAIKey,
		GeminiKey:   geminiKey,
		ChatModel:   a.cfg.OpenAIChatModel,
		ImageModel:  a.cfg.OpenAIImageModel,
		GeminiModel: a.cfg.GeminiModel,
		Logger:      a.logger,
	}), nil
}

// NewRootCmd assembles the full command tree.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "permahub",
		Short: "Wallet-gated client for the permahub AI registry",
		Long: `permahub browses and registers AI models, datasets, and agents on a
decentralized registry process, and bridges to generative AI providers
for the playground.

Listings are cached locally, so browsing keeps working when the registry
is unreachable. Registering, deleting, and metric updates need a wallet
keyfile (PERMAHUB_WALLET, default ~/.permahub/wallet.json).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newModelsCmd())
	rootCmd.AddCommand(newDatasetsCmd())
	rootCmd.AddCommand(newAgentsCmd())
	rootCmd.AddCommand(newPlaygroundCmd())
	rootCmd.AddCommand(newKeysCmd())
	rootCmd.AddCommand(newServeCmd(version))

	return rootCmd
}

func kindLabel(kind registry.Kind) string {
	return fmt.Sprintf("%ss", kind)
}
