package errors

// JSON-RPC 2.0 standard error codes.
const (
	// CodeParseError indicates invalid JSON was received by the server.
	CodeParseError int = -32700

	// CodeInvalidRequest indicates the JSON sent is not a valid Request object.
	CodeInvalidRequest int = -32600

	// CodeMethodNotFound indicates the method does not exist / is not available.
	CodeMethodNotFound int = -32601

	// CodeInvalidParams indicates invalid method parameter(s).
	CodeInvalidParams int = -32602

	// CodeInternalError indicates an internal JSON-RPC error.
	CodeInternalError int = -32603
)

// Server-specific error codes.
const (
	// Startup errors (-32000 to -32099)
	CodeServerInitError int = -32000 // Error during server initialization
	CodeDuplicateName   int = -32001 // Capability registered under an existing name

	// Catalog errors (-32200 to -32299)
	CodeCapabilityNotFound int = -32200 // No tool, resource or prompt under the name

	// Invocation errors (-32300 to -32399)
	CodeHandlerCancelled int = -32300 // Handler context cancelled
	CodeHandlerTimeout   int = -32301 // Configured call timeout elapsed
	CodeHandlerFailed    int = -32302 // Handler reported a failure
	CodeHandlerPanic     int = -32303 // Handler panicked; recovered at dispatch

	// Transport errors (-32500 to -32599)
	CodeTransportError   int = -32500 // Generic transport error
	CodeTransportClosed  int = -32501 // Transport not initialized or already stopped
	CodeConnectionFailed int = -32502 // Failed to establish connection

	// Validation errors (-32750 to -32799)
	CodeValidationError  int = -32750 // One or more input fields failed validation
	CodeMissingParameter int = -32751 // Required request parameter missing
	CodeInvalidParameter int = -32752 // Request parameter has invalid value

	// Payload errors (-32850 to -32899)
	CodeWireUnsafePayload int = -32850 // Handler returned a non-serializable value
)
