package llm

// ChatRequest describes a single chat completion call.
type ChatRequest struct {
	Model          string          `json:"model,omitempty"`
	Messages       []Message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	TopP           *float64        `json:"top_p,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// Message is one turn of the conversation. Images are only sent for user
// messages, as extra content parts after the text.
type Message struct {
	Role    string     `json:"role"`
	Content string     `json:"content"`
	Name    string     `json:"name,omitempty"`
	Images  []ImageURL `json:"images,omitempty"`
}

// ImageURL references an image by https URL or base64 data URL.
type ImageURL struct {
	URL string `json:"url"`
	// Detail is one of auto, low or high; empty leaves the provider default.
	Detail string `json:"detail,omitempty"`
}

// ResponseFormat controls the structure of the assistant response.
type ResponseFormat struct {
	Type        string      `json:"type"`
	Schema      interface{} `json:"schema,omitempty"`
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description,omitempty"`
	Strict      *bool       `json:"strict,omitempty"`
}

// ChatResponse captures a completion result.
type ChatResponse struct {
	ID          string   `json:"id"`
	Model       string   `json:"model"`
	Choices     []Choice `json:"choices"`
	Usage       Usage    `json:"usage"`
	Created     int64    `json:"created"`
	RawJSON     string   `json:"raw_json,omitempty"`
	Fingerprint string   `json:"fingerprint,omitempty"`
}

// Content returns the trimmed text of the first choice, or "" when the
// response carries no choices.
func (r *ChatResponse) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return trimContent(r.Choices[0].Message.Content)
}

// Choice represents a single completion choice.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
	Refusal      string  `json:"refusal,omitempty"`
}

// Usage summarises token accounting for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
