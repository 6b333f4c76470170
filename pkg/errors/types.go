// Package errors provides structured error handling for the capability
// server. Every error carries a JSON-RPC code, a category matching the
// envelope error taxonomy, a severity, and optional context and cause
// information for debugging and programmatic handling.
package errors

import (
	"encoding/json"
	"fmt"
	"time"
)

// Category classifies an error for handling and envelope conversion.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryNotFound   Category = "not_found"
	CategoryHandler    Category = "handler"
	CategoryTimeout    Category = "timeout"
	CategoryCancelled  Category = "cancelled"
	CategoryTransport  Category = "transport"
	CategoryInternal   Category = "internal"
	CategoryProtocol   Category = "protocol"
	CategoryConfig     Category = "config"
)

// Severity indicates how critical an error is.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Context provides additional information about where and when an
// error occurred.
type Context struct {
	RequestID string    `json:"request_id,omitempty"`
	Method    string    `json:"method,omitempty"`
	Component string    `json:"component,omitempty"`
	Operation string    `json:"operation,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Error defines the interface for all structured server errors.
type Error interface {
	error

	// Code returns the JSON-RPC error code.
	Code() int

	// Message returns a human-readable error message.
	Message() string

	// Details returns a detailed technical description for debugging.
	Details() string

	// Category returns the error category for classification.
	Category() Category

	// Severity returns the error severity level.
	Severity() Severity

	// CauseTag returns the machine-readable cause tag carried into
	// HandlerError envelopes, if any.
	CauseTag() string

	// Context returns the error context information.
	Context() *Context

	// WithContext returns a new error with the provided context.
	WithContext(ctx *Context) Error

	// WithDetail returns a new error with additional detail.
	WithDetail(detail string) Error

	// WithCauseTag returns a new error with a machine cause tag.
	WithCauseTag(tag string) Error

	// Unwrap returns the underlying error for chain traversal.
	Unwrap() error

	// ToJSON returns the error as a JSON-serializable map.
	ToJSON() map[string]interface{}
}

// baseError implements the Error interface.
type baseError struct {
	code     int
	message  string
	details  string
	causeTag string
	category Category
	severity Severity
	context  *Context
	cause    error
}

// Error implements the error interface.
func (e *baseError) Error() string {
	if e.details != "" {
		return fmt.Sprintf("%s: %s", e.message, e.details)
	}
	return e.message
}

func (e *baseError) Code() int          { return e.code }
func (e *baseError) Message() string    { return e.message }
func (e *baseError) Details() string    { return e.details }
func (e *baseError) Category() Category { return e.category }
func (e *baseError) Severity() Severity { return e.severity }
func (e *baseError) CauseTag() string   { return e.causeTag }
func (e *baseError) Context() *Context  { return e.context }
func (e *baseError) Unwrap() error      { return e.cause }

// WithContext returns a new error with the provided context.
func (e *baseError) WithContext(ctx *Context) Error {
	newErr := *e
	newErr.context = ctx
	return &newErr
}

// WithDetail returns a new error with additional detail.
func (e *baseError) WithDetail(detail string) Error {
	newErr := *e
	if newErr.details != "" {
		newErr.details = fmt.Sprintf("%s; %s", newErr.details, detail)
	} else {
		newErr.details = detail
	}
	return &newErr
}

// WithCauseTag returns a new error with a machine cause tag.
func (e *baseError) WithCauseTag(tag string) Error {
	newErr := *e
	newErr.causeTag = tag
	return &newErr
}

// ToJSON returns the error as a JSON-serializable map.
func (e *baseError) ToJSON() map[string]interface{} {
	result := map[string]interface{}{
		"code":     e.code,
		"message":  e.message,
		"category": string(e.category),
		"severity": string(e.severity),
	}

	if e.details != "" {
		result["details"] = e.details
	}
	if e.causeTag != "" {
		result["cause"] = e.causeTag
	}
	if e.context != nil {
		result["context"] = e.context
	}
	if e.cause != nil {
		result["wrapped"] = e.cause.Error()
	}

	return result
}

// MarshalJSON implements json.Marshaler for baseError.
func (e *baseError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToJSON())
}

// NewError creates a new Error with the specified parameters.
func NewError(code int, message string, category Category, severity Severity) Error {
	return &baseError{
		code:     code,
		message:  message,
		category: category,
		severity: severity,
		context: &Context{
			Timestamp: time.Now(),
		},
	}
}

// WrapError wraps an existing error as a structured Error.
func WrapError(err error, code int, message string, category Category, severity Severity) Error {
	return &baseError{
		code:     code,
		message:  message,
		category: category,
		severity: severity,
		cause:    err,
		context: &Context{
			Timestamp: time.Now(),
		},
	}
}

// AsError extracts a structured Error from any error chain.
func AsError(err error) (Error, bool) {
	if err == nil {
		return nil, false
	}
	if structured, ok := err.(Error); ok {
		return structured, true
	}
	return nil, false
}

// IsCategory checks if an error is of a specific category.
func IsCategory(err error, category Category) bool {
	if structured, ok := AsError(err); ok {
		return structured.Category() == category
	}
	return false
}
