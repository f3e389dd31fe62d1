// Package playground bridges to third-party generative AI HTTP APIs. It is
// stateless and independent of the registry: every call is one
// request/response round trip with caller-supplied credentials, no retry,
// and history passed through verbatim.
package playground

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// Config holds the settings needed to construct a Client.
type Config struct {
	// OpenAIKey and GeminiKey are per-provider credentials. Either may be
	// empty; calls against that provider then fail with
	// MissingCredentialError before any network traffic.
	OpenAIKey string
	GeminiKey string

	// ChatModel, ImageModel and GeminiModel override the default model
	// identifiers (gpt-4, dall-e-3, gemini-1.5-pro).
	ChatModel   string
	ImageModel  string
	GeminiModel string

	// OpenAIBaseURL and GeminiBaseURL override the provider endpoints.
	// Used by tests and proxies.
	OpenAIBaseURL string
	GeminiBaseURL string

	// HTTPClient defaults to a client with a 60-second timeout; image
	// generation routinely takes tens of seconds.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client issues generative AI requests. Safe for concurrent use.
type Client struct {
	openAIKey   string
	geminiKey   string
	chatModel   string
	imageModel  string
	geminiModel string
	openAIBase  string
	geminiBase  string
	client      *http.Client
	logger      *slog.Logger
}

// New creates a Client. Missing credentials are not an error here; they
// surface per call so one provider stays usable without the other.
func New(cfg Config) *Client {
	c := &Client{
		openAIKey:   cfg.OpenAIKey,
		geminiKey:   cfg.GeminiKey,
		chatModel:   cfg.ChatModel,
		imageModel:  cfg.ImageModel,
		geminiModel: cfg.GeminiModel,
		openAIBase:  strings.TrimRight(cfg.OpenAIBaseURL, "/"),
		geminiBase:  strings.TrimRight(cfg.GeminiBaseURL, "/"),
		client:      cfg.HTTPClient,
		logger:      cfg.Logger,
	}
	if c.openAIBase == "" {
		c.openAIBase = defaultOpenAIBaseURL
	}
	if c.geminiBase == "" {
		c.geminiBase = defaultGeminiBaseURL
	}
	if c.chatModel == "" {
		c.chatModel = "gpt-4"
	}
	if c.imageModel == "" {
		c.imageModel = "dall-e-3"
	}
	if c.geminiModel == "" {
		c.geminiModel = "gemini-1.5-pro"
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: 60 * time.Second}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Message is one chat turn. Role is "system", "user", or "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// agentPrompt is the fixed instructional template for agent-scoped chat.
// The document links are the only dynamic part.
const agentPrompt = `You are %s, an AI assistant answering questions using the documentation provided below.

Please refer to these documentation links in your responses: %s

Guidelines:
1. When answering, direct users to specific sections in the documentation links provided
2. Use the documentation links as your primary source of information
3. If a user asks about something not covered in the documentation, let them know and suggest checking the documentation directly
4. Always include relevant documentation links in your responses`

// AgentSystemPrompt builds the system instruction for an agent chat from
// the agent's name and declared document links.
func AgentSystemPrompt(name string, documents []string) string {
	return fmt.Sprintf(agentPrompt, name, strings.Join(documents, ", "))
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Chat sends one chat-completion turn. History is prior turns in order;
// it is forwarded verbatim, never truncated or summarized. An optional
// system prompt (see AgentSystemPrompt) leads the conversation.
func (c *Client) Chat(ctx context.Context, systemPrompt string, history []Message, prompt string) (string, error) {
	if c.openAIKey == "" {
		return "", &MissingCredentialError{Provider: "openai"}
	}

	messages := make([]Message, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: prompt})

	var cr chatResponse
	err := c.postJSON(ctx, "openai", c.openAIBase+"/chat/completions", c.openAIKey, chatRequest{
		Model:       c.chatModel,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   1000,
	}, &cr)
	if err != nil {
		return "", err
	}
	if len(cr.Choices) == 0 {
		return "", &ProviderError{Provider: "openai", Message: "response carried no choices"}
	}
	return cr.Choices[0].Message.Content, nil
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// GenerateImage renders one image and returns its hosted URL. Size is a
// "WxH" string; empty selects 1024x1024.
func (c *Client) GenerateImage(ctx context.Context, prompt, size string) (string, error) {
	if c.openAIKey == "" {
		return "", &MissingCredentialError{Provider: "openai"}
	}
	if size == "" {
		size = "1024x1024"
	}

	var ir imageResponse
	err := c.postJSON(ctx, "openai", c.openAIBase+"/images/generations", c.openAIKey, imageRequest{
		Model:  c.imageModel,
		Prompt: prompt,
		N:      1,
		Size:   size,
	}, &ir)
	if err != nil {
		return "", err
	}
	if len(ir.Data) == 0 || ir.Data[0].URL == "" {
		return "", &ProviderError{Provider: "openai", Message: "response carried no image URL"}
	}
	return ir.Data[0].URL, nil
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Generate sends one text-generation request to Gemini. History roles map
// user→user and assistant→model per the Gemini content schema.
func (c *Client) Generate(ctx context.Context, history []Message, prompt string) (string, error) {
	if c.geminiKey == "" {
		return "", &MissingCredentialError{Provider: "gemini"}
	}

	contents := make([]geminiContent, 0, len(history)+1)
	for _, m := range history {
		role := m.Role
		if role == "assistant" {
			role = "model"
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: m.Content}}})
	}
	contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: prompt}}})

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.geminiBase, c.geminiModel, c.geminiKey)
	var gr geminiResponse
	if err := c.postJSON(ctx, "gemini", url, "", geminiRequest{Contents: contents}, &gr); err != nil {
		return "", err
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", &ProviderError{Provider: "gemini", Message: "response carried no candidates"}
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}

// postJSON performs one JSON round trip. A non-empty key is sent as a
// bearer token; Gemini carries its key in the URL instead.
func (c *Client) postJSON(ctx context.Context, provider, url, key string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return &ProviderError{Provider: provider, Message: "marshal request", err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &ProviderError{Provider: provider, Message: "create request", err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &ProviderError{Provider: provider, err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &ProviderError{Provider: provider, Status: resp.StatusCode, Message: errorSnippet(resp.Body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ProviderError{Provider: provider, Message: "decode response", err: err}
	}
	return nil
}

// errorSnippet extracts the upstream error message when the body follows
// the common {"error": {"message": ...}} shape, falling back to raw text.
func errorSnippet(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 2048))
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return strings.TrimSpace(string(raw))
}
