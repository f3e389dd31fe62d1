package permahub

import (
	"log/slog"
	"net/http"

	"github.com/permahub/permahub/internal/gateway"
)

// Option configures New.
type Option func(*resolvedOptions)

type resolvedOptions struct {
	processID  string
	muURL      string
	cuURL      string
	walletPath string
	signer     gateway.Signer
	stateDir   string
	openAIKey  string
	geminiKey  string
	httpClient *http.Client
	logger     *slog.Logger
}

// WithProcessID targets a different registry process.
func WithProcessID(id string) Option {
	return func(o *resolvedOptions) { o.processID = id }
}

// WithEndpoints overrides the messenger and compute endpoints.
func WithEndpoints(muURL, cuURL string) Option {
	return func(o *resolvedOptions) { o.muURL, o.cuURL = muURL, cuURL }
}

// WithWalletPath loads the wallet from a specific keyfile.
func WithWalletPath(path string) Option {
	return func(o *resolvedOptions) { o.walletPath = path }
}

// WithSigner supplies a wallet directly, bypassing keyfile loading.
func WithSigner(s gateway.Signer) Option {
	return func(o *resolvedOptions) { o.signer = s }
}

// WithStateDir relocates the cache database and credentials file.
func WithStateDir(dir string) Option {
	return func(o *resolvedOptions) { o.stateDir = dir }
}

// WithPlaygroundKeys sets provider API keys, overriding environment and
// persisted credentials. Empty strings leave the usual resolution in place.
func WithPlaygroundKeys(openAI, gemini string) Option {
	return func(o *resolvedOptions) { o.openAIKey, o.geminiKey = openAI, gemini }
}

// WithHTTPClient shares one HTTP client across the gateway and providers.
func WithHTTPClient(c *http.Client) Option {
	return func(o *resolvedOptions) { o.httpClient = c }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = l }
}
