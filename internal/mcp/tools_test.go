package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/permahub/permahub/internal/cache"
	"github.com/permahub/permahub/internal/gateway"
	"github.com/permahub/permahub/internal/registry"
)

// fakeGateway scripts remote responses per action.
type fakeGateway struct {
	addr     string
	handlers map[string]func(tags map[string]string) (gateway.Payload, error)
}

func (f *fakeGateway) ActiveAddress() (string, error) {
	if f.addr == "" {
		return "", &gateway.Error{Kind: gateway.KindWalletUnavailable, Message: "no wallet"}
	}
	return f.addr, nil
}

func (f *fakeGateway) Call(_ context.Context, action string, tags map[string]string) (gateway.Payload, error) {
	if h, ok := f.handlers[action]; ok {
		return h(tags)
	}
	return gateway.Payload{}, nil
}

func newTestServer(t *testing.T, gw *fakeGateway) *Server {
	t.Helper()
	store, err := cache.Open(filepath.Join(t.TempDir(), "registry.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(registry.New(gw, store, nil), "test", nil)
}

func toolRequest(name string, args map[string]any) mcplib.CallToolRequest {
	return mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: name, Arguments: args},
	}
}

// parseToolText extracts the first TextContent text from a CallToolResult.
func parseToolText(t *testing.T, result *mcplib.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcplib.TextContent)
	require.True(t, ok, "expected TextContent")
	return text.Text
}

func modelsPayload(entries map[string]any) func(map[string]string) (gateway.Payload, error) {
	return func(map[string]string) (gateway.Payload, error) {
		raw, _ := json.Marshal(entries)
		return gateway.Payload{Present: true, Raw: raw}, nil
	}
}

func TestHandleListFiltersEntries(t *testing.T) {
	gw := &fakeGateway{
		addr: "addr-1",
		handlers: map[string]func(map[string]string) (gateway.Payload, error){
			"GetModels": modelsPayload(map[string]any{
				"llama":   map[string]any{"name": "llama", "modelType": "text-generation"},
				"sketch":  map[string]any{"name": "sketch", "modelType": "image-generation"},
				"whisper": map[string]any{"name": "whisper", "modelType": "audio"},
			}),
		},
	}
	s := newTestServer(t, gw)

	result, err := s.handleList(context.Background(), toolRequest("registry_list", map[string]any{
		"kind": "model",
		"type": "audio",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var body struct {
		Count   int              `json:"count"`
		Entries []registry.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "whisper", body.Entries[0].Name)
}

func TestHandleListRejectsUnknownKind(t *testing.T) {
	s := newTestServer(t, &fakeGateway{addr: "addr-1"})

	result, err := s.handleList(context.Background(), toolRequest("registry_list", map[string]any{
		"kind": "notebook",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, parseToolText(t, result), "kind must be")
}

func TestHandleRegisterCreatesModel(t *testing.T) {
	gw := &fakeGateway{addr: "addr-1"}
	s := newTestServer(t, gw)

	result, err := s.handleRegister(context.Background(), toolRequest("registry_register", map[string]any{
		"kind":        "model",
		"name":        "llama-3-ft",
		"description": "Fine-tuned Llama 3",
		"model_type":  "text-generation",
		"tags":        "llm,finetune",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, parseToolText(t, result))

	var body struct {
		Status string         `json:"status"`
		Entry  registry.Entry `json:"entry"`
	}
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &body))
	assert.Equal(t, "registered", body.Status)
	assert.Equal(t, "addr-1", body.Entry.Owner)
	assert.Equal(t, registry.Tags{"llm", "finetune"}, body.Entry.Tags)
}

func TestHandleRegisterWithoutWallet(t *testing.T) {
	s := newTestServer(t, &fakeGateway{})

	result, err := s.handleRegister(context.Background(), toolRequest("registry_register", map[string]any{
		"kind":        "model",
		"name":        "m",
		"description": "d",
		"model_type":  "audio",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, parseToolText(t, result), "register failed")
}

func TestHandleMetricsReturnsCounters(t *testing.T) {
	gw := &fakeGateway{
		addr: "addr-1",
		handlers: map[string]func(map[string]string) (gateway.Payload, error){
			"UpdateMetrics": func(map[string]string) (gateway.Payload, error) {
				return gateway.Payload{Present: true, Raw: json.RawMessage(`{"metrics":{"downloads":0,"likes":3,"forks":0}}`)}, nil
			},
		},
	}
	s := newTestServer(t, gw)

	result, err := s.handleMetrics(context.Background(), toolRequest("registry_metrics", map[string]any{
		"kind":   "model",
		"name":   "llama",
		"metric": "likes",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, parseToolText(t, result))

	var body struct {
		Metrics registry.Metrics `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &body))
	assert.Equal(t, 3, body.Metrics.Likes)
}

func TestHandleDelete(t *testing.T) {
	gw := &fakeGateway{addr: "addr-1"}
	s := newTestServer(t, gw)

	result, err := s.handleDelete(context.Background(), toolRequest("registry_delete", map[string]any{
		"kind": "agent",
		"name": "docs-helper",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, parseToolText(t, result), "deleted")
}
