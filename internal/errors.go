package internal

import (
	"errors"
	"fmt"
)

// ErrBusy is returned by Conversation.Send while a question is in flight.
var ErrBusy = errors.New("a question is already in flight")

// NetworkError means the query channel never produced a response: the
// connection failed, the request timed out, or it was cancelled.
type NetworkError struct {
	Op  string // "ask", "health"
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ProtocolError means a response arrived but was not usable. Status is 0
// when the status was fine but the body could not be decoded.
type ProtocolError struct {
	Status int
	Body   string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("protocol error: malformed response: %v", e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("protocol error: HTTP error! status: %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("protocol error: HTTP error! status: %d", e.Status)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// ValidationError is returned for input rejected before dispatch.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s %s", e.Field, e.Reason)
}

// StorageError represents errors accessing the local state database
type StorageError struct {
	Path string
	Op   string // "open", "read", "write", "delete"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors decoding inbound data
type ParseError struct {
	Source string // "push", "query"
	Key    string // event type or endpoint
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ConfigError represents an invalid configuration value
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error [%s]: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during transcript export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
