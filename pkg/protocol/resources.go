package protocol

// Resource describes one readable data endpoint as seen by clients.
type Resource struct {
	URI         string `json:"uri"`
	Description string `json:"description,omitempty"`
	MIMEType    string `json:"mimeType,omitempty"`
}

// ListResourcesParams defines parameters for listing resources.
type ListResourcesParams struct{}

// ListResourcesResult defines the response for listing resources, in
// registration order.
type ListResourcesResult struct {
	Resources []Resource `json:"resources"`
}

// ReadResourceParams defines parameters for reading a resource.
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// ResourceContents is the payload carried inside a successful read
// envelope.
type ResourceContents struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType,omitempty"`
	Text     string `json:"text"`
}
