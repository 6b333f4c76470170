package protocol

const (
	// Current protocol revision.
	ProtocolRevision = "2025-03-26"

	// Methods for lifecycle management.
	MethodInitialize  = "initialize"
	MethodInitialized = "initialized"

	// Methods for server features.
	MethodListTools     = "tools/list"
	MethodCallTool      = "tools/call"
	MethodListResources = "resources/list"
	MethodReadResource  = "resources/read"
	MethodListPrompts   = "prompts/list"
	MethodGetPrompt     = "prompts/get"

	// Methods for utilities.
	MethodCancel = "cancel"
	MethodPing   = "ping"
	MethodLog    = "log"
)

// CapabilityType identifies a server capability advertised at
// initialize time.
type CapabilityType string

const (
	CapabilityTools     CapabilityType = "tools"
	CapabilityResources CapabilityType = "resources"
	CapabilityPrompts   CapabilityType = "prompts"
	CapabilityLogging   CapabilityType = "logging"
)

// InitializeParams defines the parameters for the initialize request.
type InitializeParams struct {
	ProtocolVersion string          `json:"protocolVersion"`
	Name            string          `json:"name"`
	Version         string          `json:"version"`
	Capabilities    map[string]bool `json:"capabilities,omitempty"`
	ClientInfo      *ClientInfo     `json:"clientInfo,omitempty"`
}

// ClientInfo provides additional information about the client.
type ClientInfo struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Platform string `json:"platform,omitempty"`
}

// InitializeResult defines the response for the initialize request.
type InitializeResult struct {
	ProtocolVersion string          `json:"protocolVersion"`
	Name            string          `json:"name"`
	Version         string          `json:"version"`
	Capabilities    map[string]bool `json:"capabilities"`
	Instructions    string          `json:"instructions,omitempty"`
	ServerInfo      *ServerInfo     `json:"serverInfo,omitempty"`
}

// ServerInfo provides additional information about the server.
type ServerInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// PingParams defines the parameters for a ping request.
type PingParams struct {
	Timestamp int64 `json:"timestamp,omitempty"`
}

// PingResult defines the response for a ping request.
type PingResult struct {
	Timestamp int64 `json:"timestamp"`
}

// CancelParams defines the parameters for cancelling an in-flight
// request by its JSON-RPC id.
type CancelParams struct {
	ID interface{} `json:"id"`
}

// CancelResult reports whether the request was found and cancelled.
type CancelResult struct {
	Cancelled bool `json:"cancelled"`
}

// LogParams defines the parameters for a log notification.
type LogParams struct {
	Level   string      `json:"level"`
	Message string      `json:"message"`
	Source  string      `json:"source,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
