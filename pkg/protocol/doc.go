// Package protocol defines the wire contract between a capability
// server and its clients: the JSON-RPC 2.0 message framing, the request
// and response shapes for the tool, resource and prompt methods, and
// the uniform invocation envelope every call returns.
package protocol
