package rooftop

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/VikasCh3108/Solar-AI/pkg/imagery"
	"github.com/VikasCh3108/Solar-AI/pkg/llm"
)

// DefaultMaxTokens bounds the vision model's answer.
const DefaultMaxTokens = 1024

const (
	systemPromptFile = "system.tmpl"
	userPromptFile   = "user.tmpl"
)

//go:embed prompts/*.tmpl
var defaultPrompts embed.FS

// VisionOptions tunes the request sent for each image.
type VisionOptions struct {
	// Model is an alias from the llm config; empty uses its default model.
	Model     string
	MaxTokens int
	// ForceJSON asks the provider for a json_object response.
	ForceJSON bool
	// Detail is the image detail hint (auto, low, high).
	Detail string
}

// Prompts holds the system and user templates. The user template receives a
// PromptData.
type Prompts struct {
	System *llm.PromptTemplate
	User   *llm.PromptTemplate
}

// PromptData is the template input.
type PromptData struct {
	Name   string
	Width  int
	Height int
}

// DefaultPromptSet returns the built-in prompts.
func DefaultPromptSet() (Prompts, error) {
	system, err := embeddedPrompt(systemPromptFile)
	if err != nil {
		return Prompts{}, err
	}
	user, err := embeddedPrompt(userPromptFile)
	if err != nil {
		return Prompts{}, err
	}
	return Prompts{System: system, User: user}, nil
}

// LoadPrompts reads system.tmpl and user.tmpl from dir, falling back to the
// built-in template for any file that does not exist. An empty dir means
// built-ins only.
func LoadPrompts(dir string) (Prompts, error) {
	set, err := DefaultPromptSet()
	if err != nil || strings.TrimSpace(dir) == "" {
		return set, err
	}
	for name, dst := range map[string]**llm.PromptTemplate{
		systemPromptFile: &set.System,
		userPromptFile:   &set.User,
	} {
		path := filepath.Join(dir, name)
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			continue
		}
		tpl, err := llm.NewPromptTemplate(path, nil)
		if err != nil {
			return Prompts{}, err
		}
		*dst = tpl
	}
	return set, nil
}

func embeddedPrompt(name string) (*llm.PromptTemplate, error) {
	data, err := defaultPrompts.ReadFile("prompts/" + name)
	if err != nil {
		return nil, fmt.Errorf("rooftop: read built-in prompt %s: %w", name, err)
	}
	return llm.NewInlinePromptTemplate(name, strings.TrimSpace(string(data)), nil)
}

// VisionDetector asks a multimodal chat model to segment the rooftop.
type VisionDetector struct {
	client  llm.LLMClient
	opts    VisionOptions
	prompts Prompts
}

// NewVisionDetector wires a detector around client. Zero-valued prompts fall
// back to the built-in set.
func NewVisionDetector(client llm.LLMClient, opts VisionOptions, prompts Prompts) (*VisionDetector, error) {
	if client == nil {
		return nil, errors.New("rooftop: vision detector requires an llm client")
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if prompts.System == nil || prompts.User == nil {
		defaults, err := DefaultPromptSet()
		if err != nil {
			return nil, err
		}
		if prompts.System == nil {
			prompts.System = defaults.System
		}
		if prompts.User == nil {
			prompts.User = defaults.User
		}
	}
	return &VisionDetector{client: client, opts: opts, prompts: prompts}, nil
}

// Detect sends one chat request carrying the image as a data URL.
func (v *VisionDetector) Detect(ctx context.Context, img imagery.Image) (*Detection, error) {
	if img.Empty() {
		return nil, errors.New("rooftop: empty image")
	}
	data := PromptData{Name: img.Name, Width: img.Width, Height: img.Height}
	system, err := v.prompts.System.Render(data)
	if err != nil {
		return nil, err
	}
	user, err := v.prompts.User.Render(data)
	if err != nil {
		return nil, err
	}

	maxTokens := v.opts.MaxTokens
	req := &llm.ChatRequest{
		Model:     v.opts.Model,
		MaxTokens: &maxTokens,
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user, Images: []llm.ImageURL{{URL: img.DataURL(), Detail: v.opts.Detail}}},
		},
	}
	if v.opts.ForceJSON {
		req.ResponseFormat = &llm.ResponseFormat{Type: "json_object"}
	}

	logx.WithContext(ctx).Infof("sending %s to vision model %s (prompt %.12s)", img.Name, v.Model(), v.prompts.User.Digest())
	resp, err := v.client.Chat(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("rooftop: vision request: %w", err)
	}
	content := resp.Content()
	if content == "" {
		logx.WithContext(ctx).Errorf("vision model returned no content, raw response: %s", resp.RawJSON)
		return nil, ErrEmptyResponse
	}

	fields, err := Extract(content)
	if err != nil {
		logx.WithContext(ctx).Errorf("parse vision output: %v, raw response: %s", err, content)
	}
	model := resp.Model
	if model == "" {
		model = v.Model()
	}
	return &Detection{Raw: content, Fields: fields, Source: SourceVision, Model: model, Err: err}, nil
}

// Model resolves the configured alias to the upstream model id.
func (v *VisionDetector) Model() string {
	cfg := v.client.GetConfig()
	if cfg == nil {
		return v.opts.Model
	}
	return cfg.ModelID(v.opts.Model)
}
