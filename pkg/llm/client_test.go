package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionJSON(content string) []byte {
	body, _ := json.Marshal(map[string]any{
		"id":                 "chatcmpl-1",
		"object":             "chat.completion",
		"created":            1730366400,
		"model":              "gpt-4o-mini",
		"system_fingerprint": "fp_1",
		"choices": []any{map[string]any{
			"index":         0,
			"finish_reason": "stop",
			"logprobs":      nil,
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 12, "total_tokens": 22},
	})
	return body
}

type recordedCall struct {
	Path string
	Body map[string]any
}

// fakeCompletions serves canned chat completions, failing the first
// failFirst calls with status.
func fakeCompletions(t *testing.T, content string, failFirst int, status int) (*httptest.Server, func() []recordedCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []recordedCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)

		mu.Lock()
		calls = append(calls, recordedCall{Path: r.URL.Path, Body: body})
		n := len(calls)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if n <= failFirst {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"busy","type":"server_error"}}`))
			return
		}
		_, _ = w.Write(completionJSON(content))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recordedCall {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedCall(nil), calls...)
	}
}

func testConfig(baseURL string) *Config {
	maxTokens := 1024
	return &Config{
		BaseURL:      baseURL,
		APIKey:       "test-key",
		DefaultModel: "vision",
		Timeout:      5 * time.Second,
		MaxRetries:   2,
		LogLevel:     "error",
		Models: map[string]ModelConfig{
			"vision": {ModelName: "gpt-4o-mini", MaxTokens: &maxTokens},
		},
	}
}

func fastRetry(max int) ClientOption {
	return WithRetryHandler(NewRetryHandler(RetryConfig{MaxRetries: max, InitialBackoff: time.Millisecond}))
}

func TestClientChatSendsImages(t *testing.T) {
	srv, calls := fakeCompletions(t, "  hello rooftop \n", 0, 0)
	client, err := NewClient(testConfig(srv.URL), WithHTTPClient(srv.Client()), WithLogger(NopLogger()))
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := client.Chat(ctx, &ChatRequest{
		Messages: []Message{
			{Role: "system", Content: "You are a solar analyst."},
			{Role: "user", Content: "Describe the roof.", Images: []ImageURL{{URL: "data:image/png;base64,AAAA", Detail: "high"}}},
		},
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello rooftop", resp.Content())
	assert.Equal(t, "fp_1", resp.Fingerprint)
	assert.Equal(t, 22, resp.Usage.TotalTokens)
	assert.NotEmpty(t, resp.RawJSON)

	recorded := calls()
	require.Len(t, recorded, 1)
	assert.Equal(t, "/chat/completions", recorded[0].Path)
	body := recorded[0].Body
	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.EqualValues(t, 1024, body["max_tokens"])
	assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])

	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	user := msgs[1].(map[string]any)
	parts := user["content"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, map[string]any{"type": "text", "text": "Describe the roof."}, parts[0])
	image := parts[1].(map[string]any)
	assert.Equal(t, "image_url", image["type"])
	assert.Equal(t, map[string]any{"url": "data:image/png;base64,AAAA", "detail": "high"}, image["image_url"])
}

func TestClientChatRetriesServerErrors(t *testing.T) {
	srv, calls := fakeCompletions(t, "ok", 2, http.StatusServiceUnavailable)
	client, err := NewClient(testConfig(srv.URL), WithHTTPClient(srv.Client()), WithLogger(NopLogger()), fastRetry(2))
	require.NoError(t, err)

	resp, err := client.Chat(context.Background(), &ChatRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content())
	assert.Len(t, calls(), 3, "the SDK's own retries are disabled")
}

func TestClientChatGivesUpOnClientErrors(t *testing.T) {
	srv, calls := fakeCompletions(t, "never", 10, http.StatusUnauthorized)
	client, err := NewClient(testConfig(srv.URL), WithHTTPClient(srv.Client()), WithLogger(NopLogger()), fastRetry(3))
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), &ChatRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.Error(t, err)
	assert.Len(t, calls(), 1)
}

func TestClientChatValidatesRequest(t *testing.T) {
	client, err := NewClient(testConfig("http://127.0.0.1:1"), WithLogger(NopLogger()))
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), nil)
	require.Error(t, err)
	_, err = client.Chat(context.Background(), &ChatRequest{})
	require.ErrorContains(t, err, "at least one message")
	_, err = client.Chat(context.Background(), &ChatRequest{Messages: []Message{
		{Role: "assistant", Content: "x", Images: []ImageURL{{URL: "https://example.com/a.png"}}},
	}})
	require.ErrorContains(t, err, "only supported on user messages")
	_, err = client.Chat(context.Background(), &ChatRequest{
		Messages:       []Message{{Role: "user", Content: "x"}},
		ResponseFormat: &ResponseFormat{Type: "xml"},
	})
	require.ErrorContains(t, err, "unsupported response format")
}

type roofReply struct {
	Summary    string  `json:"summary"`
	Confidence float64 `json:"confidence,omitempty"`
}

func TestClientChatStructured(t *testing.T) {
	srv, calls := fakeCompletions(t, `{"summary":"flat roof","confidence":0.9}`, 0, 0)
	client, err := NewClient(testConfig(srv.URL), WithHTTPClient(srv.Client()), WithLogger(NopLogger()))
	require.NoError(t, err)

	var out roofReply
	got, err := client.ChatStructured(context.Background(), &ChatRequest{
		Model:    "gpt-4o",
		Messages: []Message{{Role: "user", Content: "describe"}},
	}, &out)
	require.NoError(t, err)
	assert.Same(t, &out, got)
	assert.Equal(t, "flat roof", out.Summary)
	assert.InDelta(t, 0.9, out.Confidence, 1e-9)

	body := calls()[0].Body
	assert.Equal(t, "gpt-4o", body["model"])
	rf := body["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", rf["type"])
	schema := rf["json_schema"].(map[string]any)
	assert.Equal(t, "roofreply", schema["name"])

	_, err = client.ChatStructured(context.Background(), &ChatRequest{Messages: []Message{{Content: "x"}}}, out)
	require.ErrorContains(t, err, "must be a pointer")
}

func TestNewClientRejectsBadConfig(t *testing.T) {
	_, err := NewClient(nil)
	require.Error(t, err)

	cfg := testConfig("http://localhost")
	cfg.APIKey = ""
	_, err = NewClient(cfg)
	require.ErrorContains(t, err, "api_key")
}

func TestGetConfigReturnsCopy(t *testing.T) {
	client, err := NewClient(testConfig("http://localhost"), WithLogger(NopLogger()))
	require.NoError(t, err)

	cfg := client.GetConfig()
	cfg.APIKey = "mutated"
	cfg.Models["vision"] = ModelConfig{ModelName: "other"}

	again := client.GetConfig()
	assert.Equal(t, "test-key", again.APIKey)
	assert.Equal(t, "gpt-4o-mini", again.Models["vision"].ModelName)
	assert.Equal(t, "gpt-4o-mini", again.ModelID(""))
	assert.Equal(t, "gpt-4o", again.ModelID("gpt-4o"))
}

func TestSummarizeMessagesHidesImageData(t *testing.T) {
	got := summarizeMessages([]Message{
		{Content: "look", Images: []ImageURL{{URL: "data:image/png;base64,SECRET"}}},
	})
	assert.Equal(t, "[0] role=user content=look images=1", got)
	assert.NotContains(t, got, "SECRET")
}
