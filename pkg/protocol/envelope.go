package protocol

import "github.com/gptr-ai/researcher-mcp/pkg/schema"

// ErrorKind classifies an invocation failure inside the envelope.
type ErrorKind string

const (
	// ErrKindNotFound means no tool, resource or prompt is registered
	// under the requested name or URI.
	ErrKindNotFound ErrorKind = "NotFound"

	// ErrKindValidation means the input failed schema validation; the
	// handler was never invoked.
	ErrKindValidation ErrorKind = "ValidationError"

	// ErrKindHandler means the handler ran and reported (or panicked
	// with) a failure.
	ErrKindHandler ErrorKind = "HandlerError"

	// ErrKindTimeout means a configured call timeout elapsed before the
	// handler returned. The handler itself may still be running.
	ErrKindTimeout ErrorKind = "Timeout"
)

// ErrorDescriptor is the structured failure half of the envelope.
type ErrorDescriptor struct {
	Kind    ErrorKind `json:"kind"`
	Name    string    `json:"name,omitempty"`
	Message string    `json:"message,omitempty"`

	// Cause is a machine-readable tag such as "dependency_missing" or
	// "missing_credential", when the handler supplied one.
	Cause string `json:"cause,omitempty"`

	// Violations enumerates every schema violation found, in field
	// declaration order. Only set for ValidationError.
	Violations []schema.Violation `json:"violations,omitempty"`
}

// InvocationResult is the uniform envelope returned for every tool
// call, resource read and prompt render. Exactly one of Payload and
// Error is populated; clients branch on Success, never on transport
// fault codes.
type InvocationResult struct {
	Success bool             `json:"success"`
	Payload interface{}      `json:"payload,omitempty"`
	Error   *ErrorDescriptor `json:"error,omitempty"`
}

// Ok wraps a payload in a success envelope.
func Ok(payload interface{}) InvocationResult {
	return InvocationResult{Success: true, Payload: payload}
}

// Fail wraps an error descriptor in a failure envelope.
func Fail(desc *ErrorDescriptor) InvocationResult {
	return InvocationResult{Success: false, Error: desc}
}

// NotFound builds the failure envelope for an unknown name or URI.
func NotFound(name string) InvocationResult {
	return Fail(&ErrorDescriptor{Kind: ErrKindNotFound, Name: name})
}

// Invalid builds the failure envelope for a validation failure.
func Invalid(name string, violations []schema.Violation) InvocationResult {
	return Fail(&ErrorDescriptor{
		Kind:       ErrKindValidation,
		Name:       name,
		Violations: violations,
	})
}
