// Package gateway wraps the registry process's asynchronous message/result
// RPC protocol in a single request/response call.
//
// A call submits one signed message carrying an action name and a flat tag
// mapping to the messenger endpoint, then awaits the single resulting
// message from the compute endpoint and parses its payload as JSON. All
// failures surface as a *Error with a Kind; nothing is retried beyond the
// result poll.
package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/permahub/permahub/internal/telemetry"
)

// Signer is the wallet capability the gateway needs: an active address, the
// owner key material, and a signature over the canonical message bytes.
type Signer interface {
	ActiveAddress() string
	Owner() string
	Sign(msg []byte) ([]byte, error)
}

// Config holds the settings needed to construct a Client.
type Config struct {
	// ProcessID is the address of the remote registry process.
	ProcessID string

	// MUURL is the messenger endpoint messages are submitted to.
	MUURL string

	// CUURL is the compute endpoint results are fetched from.
	CUURL string

	// Signer is the connected wallet. May be nil; calls then fail with
	// KindWalletUnavailable instead of at construction time, since wallet
	// connection is a per-call condition, not a client invariant.
	Signer Signer

	// HTTPClient is an optional custom HTTP client. If nil, a default
	// client with a 30-second timeout is used.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// PollInterval and PollAttempts bound the result await. Defaults:
	// 500ms and 20 attempts.
	PollInterval time.Duration
	PollAttempts int
}

// Client performs signed message/result calls against one fixed process.
// All methods are safe for concurrent use.
type Client struct {
	processID    string
	muURL        string
	cuURL        string
	signer       Signer
	client       *http.Client
	logger       *slog.Logger
	pollInterval time.Duration
	pollAttempts int

	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

// New creates a Client from the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.ProcessID == "" {
		return nil, fmt.Errorf("gateway: ProcessID is required")
	}
	if cfg.MUURL == "" || cfg.CUURL == "" {
		return nil, fmt.Errorf("gateway: MUURL and CUURL are required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	pollAttempts := cfg.PollAttempts
	if pollAttempts <= 0 {
		pollAttempts = 20
	}

	meter := telemetry.Meter("permahub/gateway")
	calls, err := meter.Int64Counter("gateway.calls",
		metric.WithDescription("Completed gateway calls by action and outcome"))
	if err != nil {
		return nil, fmt.Errorf("gateway: create call counter: %w", err)
	}
	duration, err := meter.Float64Histogram("gateway.duration",
		metric.WithDescription("Gateway call latency"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("gateway: create duration histogram: %w", err)
	}

	return &Client{
		processID:    cfg.ProcessID,
		muURL:        trimSlash(cfg.MUURL),
		cuURL:        trimSlash(cfg.CUURL),
		signer:       cfg.Signer,
		client:       httpClient,
		logger:       logger,
		pollInterval: pollInterval,
		pollAttempts: pollAttempts,
		calls:        calls,
		duration:     duration,
	}, nil
}

// Payload is a parsed result payload. Present distinguishes "the process
// returned no payload" from a payload that decodes to JSON null.
type Payload struct {
	Present bool
	Raw     json.RawMessage
}

// Decode unmarshals the payload into dest. Decoding an absent payload is an
// error; callers must check Present when absence is expected.
func (p Payload) Decode(dest any) error {
	if !p.Present {
		return fmt.Errorf("gateway: decode empty payload")
	}
	if err := json.Unmarshal(p.Raw, dest); err != nil {
		return fmt.Errorf("gateway: decode payload: %w", err)
	}
	return nil
}

// Tag is one name/value pair attached to a message.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ActiveAddress returns the connected wallet's address, or a
// KindWalletUnavailable error when no wallet is configured.
func (c *Client) ActiveAddress() (string, error) {
	if c.signer == nil {
		return "", newError(KindWalletUnavailable, "", "no wallet connected", nil)
	}
	return c.signer.ActiveAddress(), nil
}

// Call submits one signed message carrying action and tags, awaits its
// result, and returns the parsed payload of the first returned message.
// Exactly one remote message is sent per call; mutations are never retried.
func (c *Client) Call(ctx context.Context, action string, tags map[string]string) (Payload, error) {
	start := time.Now()
	payload, err := c.call(ctx, action, tags)
	c.record(ctx, action, time.Since(start), err)
	return payload, err
}

func (c *Client) call(ctx context.Context, action string, tags map[string]string) (Payload, error) {
	if c.signer == nil {
		return Payload{}, newError(KindWalletUnavailable, action, "no wallet connected", nil)
	}
	if action == "" {
		return Payload{}, newError(KindSubmission, action, "action is required", nil)
	}
	if _, ok := tags["Action"]; ok {
		return Payload{}, newError(KindSubmission, action, `tag name "Action" is reserved`, nil)
	}

	messageID, err := c.submit(ctx, action, tags)
	if err != nil {
		return Payload{}, err
	}

	return c.awaitResult(ctx, action, messageID)
}

// messageRequest is the wire format for message submission. The signature
// covers the canonical JSON of process, tags, and nonce.
type messageRequest struct {
	Process   string `json:"process"`
	Tags      []Tag  `json:"tags"`
	Nonce     string `json:"nonce"`
	Owner     string `json:"owner"`
	Signature string `json:"signature"`
}

type messageResponse struct {
	ID string `json:"id"`
}

func (c *Client) submit(ctx context.Context, action string, tags map[string]string) (string, error) {
	tagList := buildTags(action, tags)
	nonce := uuid.NewString()

	signed, err := json.Marshal(struct {
		Process string `json:"process"`
		Tags    []Tag  `json:"tags"`
		Nonce   string `json:"nonce"`
	}{Process: c.processID, Tags: tagList, Nonce: nonce})
	if err != nil {
		return "", newError(KindSubmission, action, "marshal message", err)
	}

	sig, err := c.signer.Sign(signed)
	if err != nil {
		return "", newError(KindSubmission, action, "sign message", err)
	}

	body, err := json.Marshal(messageRequest{
		Process:   c.processID,
		Tags:      tagList,
		Nonce:     nonce,
		Owner:     c.signer.Owner(),
		Signature: base64.RawURLEncoding.EncodeToString(sig),
	})
	if err != nil {
		return "", newError(KindSubmission, action, "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.muURL+"/message", bytes.NewReader(body))
	if err != nil {
		return "", newError(KindSubmission, action, "create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", newError(KindSubmission, action, "send message", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", newError(KindSubmission, action,
			fmt.Sprintf("messenger returned status %d: %s", resp.StatusCode, readSnippet(resp.Body)), nil)
	}

	var mr messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return "", newError(KindSubmission, action, "decode messenger response", err)
	}
	if mr.ID == "" {
		return "", newError(KindSubmission, action, "messenger returned no message id", nil)
	}
	return mr.ID, nil
}

// resultResponse mirrors the compute endpoint's result shape: the first
// entry in Messages carries the JSON payload, if any.
type resultResponse struct {
	Messages []struct {
		Data string `json:"Data"`
		Tags []Tag  `json:"Tags"`
	} `json:"Messages"`
	Error string `json:"Error"`
}

func (c *Client) awaitResult(ctx context.Context, action, messageID string) (Payload, error) {
	resultURL := fmt.Sprintf("%s/result/%s?process-id=%s",
		c.cuURL, url.PathEscape(messageID), url.QueryEscape(c.processID))

	var lastStatus int
	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Payload{}, newError(KindAwait, action, "await cancelled", ctx.Err())
			case <-time.After(c.pollInterval):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
		if err != nil {
			return Payload{}, newError(KindAwait, action, "create result request", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return Payload{}, newError(KindAwait, action, "fetch result", err)
		}

		// The compute endpoint answers 404 or 202 until the message has
		// been evaluated.
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusAccepted {
			lastStatus = resp.StatusCode
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			continue
		}
		if resp.StatusCode >= 400 {
			snippet := readSnippet(resp.Body)
			_ = resp.Body.Close()
			return Payload{}, newError(KindAwait, action,
				fmt.Sprintf("compute endpoint returned status %d: %s", resp.StatusCode, snippet), nil)
		}

		var rr resultResponse
		err = json.NewDecoder(resp.Body).Decode(&rr)
		_ = resp.Body.Close()
		if err != nil {
			return Payload{}, newError(KindAwait, action, "decode result", err)
		}
		if rr.Error != "" {
			return Payload{}, newError(KindAwait, action, "process error: "+rr.Error, nil)
		}

		if len(rr.Messages) == 0 || rr.Messages[0].Data == "" {
			return Payload{}, nil
		}

		data := []byte(rr.Messages[0].Data)
		if !json.Valid(data) {
			return Payload{}, newError(KindParse, action, "result payload is not valid JSON", nil)
		}
		return Payload{Present: true, Raw: json.RawMessage(data)}, nil
	}

	return Payload{}, newError(KindAwait, action,
		fmt.Sprintf("result not available after %d attempts (last status %d)", c.pollAttempts, lastStatus), nil)
}

// buildTags produces the deterministic tag list: Action first, then the
// remaining tags sorted by name so the signed bytes are stable.
func buildTags(action string, tags map[string]string) []Tag {
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Tag, 0, len(tags)+1)
	out = append(out, Tag{Name: "Action", Value: action})
	for _, name := range names {
		out = append(out, Tag{Name: name, Value: tags[name]})
	}
	return out
}

func (c *Client) record(ctx context.Context, action string, elapsed time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("action", action),
		attribute.Bool("ok", err == nil),
	)
	c.calls.Add(ctx, 1, attrs)
	c.duration.Record(ctx, float64(elapsed.Milliseconds()), attrs)
}

func readSnippet(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 512))
	return string(raw)
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
