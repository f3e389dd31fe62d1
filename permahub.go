// Package permahub is the public API for embedding the permahub registry
// client.
//
// Programmatic consumers import this package instead of shelling out to
// the CLI:
//
//	client, err := permahub.New(
//	    permahub.WithWalletPath("wallet.json"),
//	    permahub.WithLogger(logger),
//	)
//	if err != nil { ... }
//	defer client.Close()
//
//	models := client.Models(ctx)
//
// The import graph enforces a strict no-cycle rule: permahub (root)
// imports internal/*, but internal/* never imports the root.
package permahub

import (
	"context"
	"log/slog"

	"github.com/permahub/permahub/internal/cache"
	"github.com/permahub/permahub/internal/config"
	"github.com/permahub/permahub/internal/gateway"
	"github.com/permahub/permahub/internal/playground"
	"github.com/permahub/permahub/internal/registry"
	"github.com/permahub/permahub/internal/wallet"
)

// Re-exported registry types so consumers never import internal packages.
type (
	// Entry is one registry record.
	Entry = registry.Entry
	// Kind identifies an entry namespace.
	Kind = registry.Kind
	// Metrics are the counters attached to an entry.
	Metrics = registry.Metrics
	// UserInteractions records the connected wallet's prior actions.
	UserInteractions = registry.UserInteractions
	// Tags is an entry's tag list.
	Tags = registry.Tags
	// Message is one playground chat turn.
	Message = playground.Message
)

// Entry kinds.
const (
	KindModel   = registry.KindModel
	KindDataset = registry.KindDataset
	KindAgent   = registry.KindAgent
)

// Metric names accepted by UpdateMetric.
const (
	MetricDownloads    = registry.MetricDownloads
	MetricLikes        = registry.MetricLikes
	MetricForks        = registry.MetricForks
	MetricInteractions = registry.MetricInteractions
)

// Client is the embedded registry client. Construct with New(); Close it
// when done. Safe for concurrent use.
type Client struct {
	repo   *registry.Repository
	store  *cache.Store
	play   *playground.Client
	logger *slog.Logger
}

// New builds a Client from the environment plus any options. A missing
// wallet is not an error; read operations work without one and writes
// fail per call.
func New(opts ...Option) (*Client, error) {
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.processID != "" {
		cfg.ProcessID = o.processID
	}
	if o.muURL != "" {
		cfg.MUURL = o.muURL
	}
	if o.cuURL != "" {
		cfg.CUURL = o.cuURL
	}
	if o.walletPath != "" {
		cfg.WalletPath = o.walletPath
	}
	if o.stateDir != "" {
		cfg.StateDir = o.stateDir
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	signer := o.signer
	if signer == nil {
		if w, err := wallet.Load(cfg.WalletPath); err == nil {
			signer = w
		} else {
			logger.Debug("no wallet loaded", "path", cfg.WalletPath, "error", err)
		}
	}

	gw, err := gateway.New(gateway.Config{
		ProcessID:    cfg.ProcessID,
		MUURL:        cfg.MUURL,
		CUURL:        cfg.CUURL,
		Signer:       signer,
		HTTPClient:   o.httpClient,
		Logger:       logger,
		PollInterval: cfg.ResultPollInterval,
		PollAttempts: cfg.ResultPollAttempts,
	})
	if err != nil {
		return nil, err
	}

	store, err := cache.Open(cfg.CachePath(), logger)
	if err != nil {
		return nil, err
	}

	creds, err := config.LoadCredentials(cfg.StateDir)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	openAIKey := firstNonEmpty(o.openAIKey, cfg.OpenAIAPIKey, creds.OpenAI)
	geminiKey := firstNonEmpty(o.geminiKey, cfg.GeminiAPIKey, creds.Gemini)

	return &Client{
		repo:  registry.New(gw, store, logger),
		store: store,
		play: playground.New(playground.Config{
			OpenAIKey:   openAIKey,
			GeminiKey:   geminiKey,
			ChatModel:   cfg.OpenAIChatModel,
			ImageModel:  cfg.OpenAIImageModel,
			GeminiModel: cfg.GeminiModel,
			HTTPClient:  o.httpClient,
			Logger:      logger,
		}),
		logger: logger,
	}, nil
}

// Close releases the cache database.
func (c *Client) Close() error {
	return c.store.Close()
}

// Models lists all registered models, serving the cache when the remote
// process is unreachable.
func (c *Client) Models(ctx context.Context) []Entry {
	return c.repo.List(ctx, KindModel)
}

// Datasets lists all registered datasets.
func (c *Client) Datasets(ctx context.Context) []Entry {
	return c.repo.List(ctx, KindDataset)
}

// Agents lists all registered agents.
func (c *Client) Agents(ctx context.Context) []Entry {
	return c.repo.List(ctx, KindAgent)
}

// All lists every kind concurrently.
func (c *Client) All(ctx context.Context) map[Kind][]Entry {
	return c.repo.ListAll(ctx)
}

// SearchModels queries the remote process for models of one modelType.
func (c *Client) SearchModels(ctx context.Context, modelType string) ([]Entry, error) {
	return c.repo.SearchByType(ctx, modelType)
}

// Register creates a new entry. Requires a wallet.
func (c *Client) Register(ctx context.Context, kind Kind, entry Entry) (Entry, error) {
	return c.repo.Create(ctx, kind, entry)
}

// UpdateMetric bumps one counter on an entry and returns the fresh
// counters along with the caller's interaction flags. Requires a wallet.
func (c *Client) UpdateMetric(ctx context.Context, kind Kind, name, metric string) (Metrics, UserInteractions, error) {
	return c.repo.UpdateMetric(ctx, kind, name, metric)
}

// Delete removes an entry. Requires a wallet.
func (c *Client) Delete(ctx context.Context, kind Kind, name string) error {
	return c.repo.Delete(ctx, kind, name)
}

// Interactions reports whether the connected wallet already liked or
// forked an entry; it degrades to all-false on any failure.
func (c *Client) Interactions(ctx context.Context, kind Kind, name string) UserInteractions {
	return c.repo.UserInteractions(ctx, kind, name)
}

// ChatWithAgent sends one chat turn scoped to an agent: the agent's
// documentation links are folded into the system instruction.
func (c *Client) ChatWithAgent(ctx context.Context, agent Entry, history []Message, prompt string) (string, error) {
	return c.play.Chat(ctx, playground.AgentSystemPrompt(agent.Name, agent.Documents), history, prompt)
}

// Chat sends one plain chat-completion turn.
func (c *Client) Chat(ctx context.Context, history []Message, prompt string) (string, error) {
	return c.play.Chat(ctx, "", history, prompt)
}

// GenerateImage renders an image and returns its hosted URL.
func (c *Client) GenerateImage(ctx context.Context, prompt, size string) (string, error) {
	return c.play.GenerateImage(ctx, prompt, size)
}

// Generate sends a text-generation prompt to Gemini.
func (c *Client) Generate(ctx context.Context, history []Message, prompt string) (string, error) {
	return c.play.Generate(ctx, history, prompt)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
