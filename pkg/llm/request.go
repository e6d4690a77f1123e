package llm

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
)

const defaultSchemaName = "structured_output"

// preparedCall is a ChatRequest translated into SDK params.
type preparedCall struct {
	modelID string
	params  openai.ChatCompletionNewParams
}

// prepare resolves the model alias and fills sampling knobs: request values
// first, then the alias' configured defaults.
func (c *Client) prepare(req *ChatRequest) (preparedCall, error) {
	if len(req.Messages) == 0 {
		return preparedCall{}, errors.New("llm: request requires at least one message")
	}
	msgs, err := toMessageParams(req.Messages)
	if err != nil {
		return preparedCall{}, err
	}
	format, err := toResponseFormat(req.ResponseFormat)
	if err != nil {
		return preparedCall{}, err
	}

	alias := strings.TrimSpace(req.Model)
	if alias == "" {
		alias = c.cfg.DefaultModel
	}
	mc, known := c.cfg.Model(alias)
	if !known {
		mc = ModelConfig{ModelName: alias}
	}
	id := ResolveModelID(alias, mc)

	p := openai.ChatCompletionNewParams{
		Model:          openai.ChatModel(id),
		Messages:       msgs,
		ResponseFormat: format,
	}
	if v := pickFloat(req.Temperature, mc.Temperature); v != nil {
		p.Temperature = openai.Float(*v)
	}
	if v := pickFloat(req.TopP, mc.TopP); v != nil {
		p.TopP = openai.Float(*v)
	}
	if v := pickInt(req.MaxTokens, mc.MaxTokens); v != nil {
		p.MaxTokens = openai.Int(int64(*v))
	}
	return preparedCall{modelID: id, params: p}, nil
}

func pickFloat(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func pickInt(vals ...*int) *int {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func toMessageParams(msgs []Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for i, m := range msgs {
		role := lowerTrim(m.Role)
		if len(m.Images) > 0 && role != "" && role != "user" {
			return nil, fmt.Errorf("llm: message %d: images are only supported on user messages", i)
		}
		var p openai.ChatCompletionMessageParamUnion
		switch role {
		case "system":
			p = openai.SystemMessage(m.Content)
			if m.Name != "" && p.OfSystem != nil {
				p.OfSystem.Name = openai.String(m.Name)
			}
		case "developer":
			p = openai.DeveloperMessage(m.Content)
		case "assistant":
			p = openai.AssistantMessage(m.Content)
		default:
			p = toUserMessage(m)
			if m.Name != "" && p.OfUser != nil {
				p.OfUser.Name = openai.String(m.Name)
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// toUserMessage emits a content-part array when images are attached, with
// the text part first.
func toUserMessage(m Message) openai.ChatCompletionMessageParamUnion {
	if len(m.Images) == 0 {
		return openai.UserMessage(m.Content)
	}
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, 1+len(m.Images))
	if text := strings.TrimSpace(m.Content); text != "" {
		parts = append(parts, openai.TextContentPart(m.Content))
	}
	for _, img := range m.Images {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL:    img.URL,
			Detail: lowerTrim(img.Detail),
		}))
	}
	return openai.UserMessage(parts)
}

// toResponseFormat returns the zero union for plain text replies, which the
// SDK omits from the request body.
func toResponseFormat(rf *ResponseFormat) (openai.ChatCompletionNewParamsResponseFormatUnion, error) {
	var none openai.ChatCompletionNewParamsResponseFormatUnion
	if rf == nil {
		return none, nil
	}
	switch strings.ToLower(strings.TrimSpace(rf.Type)) {
	case "", "text":
		return none, nil
	case "json_object":
		obj := shared.NewResponseFormatJSONObjectParam()
		return openai.ChatCompletionNewParamsResponseFormatUnion{OfJSONObject: &obj}, nil
	case "json_schema":
		return jsonSchemaFormat(rf)
	default:
		return none, fmt.Errorf("llm: unsupported response format %q", rf.Type)
	}
}

func jsonSchemaFormat(rf *ResponseFormat) (openai.ChatCompletionNewParamsResponseFormatUnion, error) {
	schema, ok := rf.Schema.(map[string]interface{})
	if !ok {
		return openai.ChatCompletionNewParamsResponseFormatUnion{}, errors.New("llm: json_schema requires map schema")
	}
	def := shared.ResponseFormatJSONSchemaJSONSchemaParam{Name: rf.Name, Schema: schema}
	if def.Name == "" {
		def.Name = defaultSchemaName
	}
	if rf.Strict != nil {
		def.Strict = openai.Bool(*rf.Strict)
	}
	if d := strings.TrimSpace(rf.Description); d != "" {
		def.Description = openai.String(d)
	}
	wrapped := shared.ResponseFormatJSONSchemaParam{JSONSchema: def}
	wrapped.Type = wrapped.Type.Default()
	return openai.ChatCompletionNewParamsResponseFormatUnion{OfJSONSchema: &wrapped}, nil
}

func fromCompletion(cc *openai.ChatCompletion) *ChatResponse {
	if cc == nil {
		return &ChatResponse{}
	}
	resp := &ChatResponse{
		ID:          cc.ID,
		Model:       cc.Model,
		Created:     cc.Created,
		RawJSON:     cc.RawJSON(),
		Fingerprint: cc.SystemFingerprint,
		Usage: Usage{
			PromptTokens:     int(cc.Usage.PromptTokens),
			CompletionTokens: int(cc.Usage.CompletionTokens),
			TotalTokens:      int(cc.Usage.TotalTokens),
		},
		Choices: make([]Choice, 0, len(cc.Choices)),
	}
	for _, ch := range cc.Choices {
		resp.Choices = append(resp.Choices, Choice{
			Index:        int(ch.Index),
			Message:      Message{Role: string(ch.Message.Role), Content: ch.Message.Content},
			FinishReason: ch.FinishReason,
			Refusal:      ch.Message.Refusal,
		})
	}
	return resp
}

// summarizeMessages renders a conversation for logs with image payloads
// reduced to a count.
func summarizeMessages(msgs []Message) string {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString(" | ")
		}
		role := lowerTrim(m.Role)
		if role == "" {
			role = "user"
		}
		fmt.Fprintf(&b, "[%d] role=%s content=%s", i, role, strings.TrimSpace(m.Content))
		if n := len(m.Images); n > 0 {
			fmt.Fprintf(&b, " images=%d", n)
		}
	}
	return b.String()
}

func countImages(msgs []Message) (n int) {
	for _, m := range msgs {
		n += len(m.Images)
	}
	return n
}

func trimContent(s string) string {
	return strings.TrimSpace(s)
}

func schemaName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return strings.ToLower(t.Name())
}
