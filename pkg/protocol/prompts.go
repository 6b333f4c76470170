package protocol

import "github.com/gptr-ai/researcher-mcp/pkg/schema"

// Prompt describes one named prompt template as seen by clients.
type Prompt struct {
	Name            string        `json:"name"`
	Description     string        `json:"description,omitempty"`
	ParameterSchema schema.Schema `json:"parameterSchema,omitempty"`
}

// PromptMessage is one rendered message. Renderers may only return an
// ordered sequence of these, never an arbitrary payload.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ListPromptsParams defines parameters for listing prompts.
type ListPromptsParams struct{}

// ListPromptsResult defines the response for listing prompts, in
// registration order.
type ListPromptsResult struct {
	Prompts []Prompt `json:"prompts"`
}

// GetPromptParams defines parameters for rendering a prompt.
type GetPromptParams struct {
	Name  string                 `json:"name"`
	Input map[string]interface{} `json:"input,omitempty"`
}

// PromptPayload is the payload carried inside a successful prompt
// envelope.
type PromptPayload struct {
	Messages []PromptMessage `json:"messages"`
}
