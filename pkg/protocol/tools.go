package protocol

import "github.com/gptr-ai/researcher-mcp/pkg/schema"

// Tool describes one named operation as seen by clients.
type Tool struct {
	Name            string        `json:"name"`
	Description     string        `json:"description,omitempty"`
	ParameterSchema schema.Schema `json:"parameterSchema,omitempty"`
}

// ListToolsParams defines parameters for listing tools.
type ListToolsParams struct{}

// ListToolsResult defines the response for listing tools. Tools appear
// in registration order.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// CallToolParams defines parameters for calling a tool.
type CallToolParams struct {
	Name  string                 `json:"name"`
	Input map[string]interface{} `json:"input,omitempty"`
}
