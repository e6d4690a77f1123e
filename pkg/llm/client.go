package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var (
	errNilRequest   = errors.New("llm: request cannot be nil")
	errEmptyReply   = errors.New("llm: empty structured response")
	errTargetNil    = errors.New("llm: structured target cannot be nil")
	errTargetNotPtr = errors.New("llm: structured target must be a pointer")
)

// LLMClient is what the rooftop detector needs from a chat backend.
type LLMClient interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	ChatStructured(ctx context.Context, req *ChatRequest, target interface{}) (interface{}, error)
	GetConfig() *Config
	Close() error
}

// Client sends chat completions, optionally carrying images, to an
// OpenAI-compatible endpoint.
type Client struct {
	cfg   *Config
	api   *openai.Client
	log   Logger
	retry *RetryHandler
	http  *http.Client
}

// ClientOption customises a Client during NewClient.
type ClientOption func(*Client)

func WithLogger(logger Logger) ClientOption {
	return func(c *Client) { c.log = logger }
}

func WithRetryHandler(handler *RetryHandler) ClientOption {
	return func(c *Client) { c.retry = handler }
}

// WithHTTPClient routes SDK traffic through hc. Recorded tests use it to
// install a go-vcr transport.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithOpenAIClient bypasses SDK construction entirely.
func WithOpenAIClient(api *openai.Client) ClientOption {
	return func(c *Client) { c.api = api }
}

// NewClient validates a private copy of cfg and builds the SDK client.
func NewClient(cfg *Config, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("llm: config cannot be nil")
	}
	own := cfg.Clone()
	if err := own.Validate(); err != nil {
		return nil, err
	}

	c := &Client{cfg: own}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = NewLogger(own.LogLevel)
	}
	if c.retry == nil {
		c.retry = NewRetryHandler(RetryConfig{MaxRetries: own.MaxRetries})
	}
	if c.api == nil {
		api := openai.NewClient(c.sdkOptions()...)
		c.api = &api
	}
	return c, nil
}

// sdkOptions disables the SDK retry loop; RetryHandler owns retries.
func (c *Client) sdkOptions() []option.RequestOption {
	opts := []option.RequestOption{
		option.WithAPIKey(c.cfg.APIKey),
		option.WithBaseURL(c.cfg.BaseURL),
		option.WithMaxRetries(0),
	}
	if c.cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(c.cfg.Timeout))
	}
	if c.http != nil {
		opts = append(opts, option.WithHTTPClient(c.http))
	}
	return opts
}

// Chat sends req once per attempt until it succeeds or the retry budget is
// spent.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if req == nil {
		return nil, errNilRequest
	}
	call, err := c.prepare(req)
	if err != nil {
		return nil, err
	}

	c.log.Info(ctx, "llm chat request", Fields{
		"model":    call.modelID,
		"messages": len(req.Messages),
		"images":   countImages(req.Messages),
		"prompt":   summarizeMessages(req.Messages),
	})

	began := time.Now()
	var completion *openai.ChatCompletion
	attempt := 0
	err = c.retry.Do(ctx, func() error {
		attempt++
		out, err := c.api.Chat.Completions.New(ctx, call.params)
		if err != nil {
			c.log.Warn(ctx, "llm chat attempt failed", Fields{
				"model":   call.modelID,
				"attempt": attempt,
				"error":   err.Error(),
			})
			return err
		}
		completion = out
		return nil
	})
	if err != nil {
		c.log.Error(ctx, fmt.Errorf("chat completion %s: %w", call.modelID, err), Fields{"attempts": attempt})
		return nil, err
	}

	resp := fromCompletion(completion)
	c.log.Info(ctx, "llm chat done", Fields{
		"model":             call.modelID,
		"attempts":          attempt,
		"duration_ms":       time.Since(began).Milliseconds(),
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"response":          resp.Content(),
	})
	return resp, nil
}

// ChatStructured asks for a reply matching the JSON schema of target and
// decodes it into target. The schema is sent non-strict since optional
// fields are left out of "required".
func (c *Client) ChatStructured(ctx context.Context, req *ChatRequest, target interface{}) (interface{}, error) {
	switch {
	case req == nil:
		return nil, errNilRequest
	case target == nil:
		return nil, errTargetNil
	}
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil, errTargetNotPtr
	}

	schema, err := GenerateSchema(target)
	if err != nil {
		return nil, err
	}
	withSchema := *req
	withSchema.ResponseFormat = &ResponseFormat{
		Type:        "json_schema",
		Name:        schemaName(rv.Type()),
		Schema:      schema,
		Description: "Structured response",
	}

	resp, err := c.Chat(ctx, &withSchema)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errEmptyReply
	}
	if err := ParseStructured(resp.Content(), target); err != nil {
		c.log.Error(ctx, fmt.Errorf("decode structured reply: %w", err), Fields{"model": resp.Model})
		return nil, err
	}
	return target, nil
}

// GetConfig returns a copy the caller may modify.
func (c *Client) GetConfig() *Config {
	return c.cfg.Clone()
}

func (c *Client) Close() error {
	if c.http != nil {
		c.http.CloseIdleConnections()
	}
	return nil
}
