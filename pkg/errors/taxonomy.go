package errors

import "fmt"

// CapabilityNotFound creates an error for an unknown tool, resource or
// prompt name.
func CapabilityNotFound(kind, name string) Error {
	return NewError(
		CodeCapabilityNotFound,
		fmt.Sprintf("%s not found: %s", kind, name),
		CategoryNotFound,
		SeverityError,
	)
}

// DuplicateName creates the startup-only error for registering a second
// capability under an existing name. It is the one error that must
// abort startup instead of being converted into an envelope.
func DuplicateName(kind, name string) Error {
	return NewError(
		CodeDuplicateName,
		fmt.Sprintf("duplicate %s name: %s", kind, name),
		CategoryConfig,
		SeverityCritical,
	)
}

// HandlerFailed wraps an error returned by a tool handler, resource
// producer or prompt renderer.
func HandlerFailed(name string, cause error) Error {
	return WrapError(
		cause,
		CodeHandlerFailed,
		fmt.Sprintf("handler %q failed", name),
		CategoryHandler,
		SeverityError,
	).WithDetail(cause.Error())
}

// HandlerPanic converts a recovered panic value into a structured error.
func HandlerPanic(name string, recovered interface{}) Error {
	return NewError(
		CodeHandlerPanic,
		fmt.Sprintf("handler %q panicked", name),
		CategoryHandler,
		SeverityCritical,
	).WithDetail(fmt.Sprintf("%v", recovered)).WithCauseTag("panic")
}

// CallTimeout creates an error for a handler that outlived the
// configured call timeout.
func CallTimeout(name string, timeout string) Error {
	return NewError(
		CodeHandlerTimeout,
		fmt.Sprintf("call to %q timed out after %s", name, timeout),
		CategoryTimeout,
		SeverityError,
	)
}

// CallCancelled creates an error for an invocation cancelled by the
// client or by server shutdown.
func CallCancelled(name string) Error {
	return NewError(
		CodeHandlerCancelled,
		fmt.Sprintf("call to %q was cancelled", name),
		CategoryCancelled,
		SeverityWarning,
	).WithCauseTag("cancelled")
}

// WireUnsafePayload creates an error for a handler result that cannot
// be serialized to the transport payload format.
func WireUnsafePayload(name string, cause error) Error {
	return WrapError(
		cause,
		CodeWireUnsafePayload,
		fmt.Sprintf("handler %q returned a wire-unsafe payload", name),
		CategoryHandler,
		SeverityError,
	).WithCauseTag("wire_unsafe")
}

// MissingParameter creates an error for a missing required request
// parameter at the transport boundary.
func MissingParameter(param string) Error {
	return NewError(
		CodeMissingParameter,
		fmt.Sprintf("missing required parameter: %s", param),
		CategoryValidation,
		SeverityError,
	)
}

// InvalidParameter creates an error for a request parameter that could
// not be decoded into the expected shape.
func InvalidParameter(param string, expected string) Error {
	return NewError(
		CodeInvalidParameter,
		fmt.Sprintf("invalid parameter %q: expected %s", param, expected),
		CategoryValidation,
		SeverityError,
	)
}

// TransportError wraps a low-level transport failure.
func TransportError(transport, operation string, cause error) Error {
	return WrapError(
		cause,
		CodeTransportError,
		fmt.Sprintf("%s transport error during %s", transport, operation),
		CategoryTransport,
		SeverityError,
	)
}

// TransportNotInitialized creates an error for use of a transport
// before Initialize or after Stop.
func TransportNotInitialized(transport string) Error {
	return NewError(
		CodeTransportClosed,
		fmt.Sprintf("%s transport not initialized", transport),
		CategoryTransport,
		SeverityError,
	)
}

// InternalError wraps an unexpected internal failure.
func InternalError(operation string, cause error) Error {
	return WrapError(
		cause,
		CodeInternalError,
		fmt.Sprintf("internal error in %s", operation),
		CategoryInternal,
		SeverityCritical,
	)
}

// ServerInit wraps a failure during server startup.
func ServerInit(reason string, cause error) Error {
	return WrapError(
		cause,
		CodeServerInitError,
		fmt.Sprintf("server initialization failed: %s", reason),
		CategoryInternal,
		SeverityCritical,
	)
}
