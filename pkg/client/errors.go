package client

import (
	"fmt"
)

// ErrorClass represents a classification of fetch errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents undecodable response bodies.
	ErrorClassDecode ErrorClass = "decode"

	// ErrorClassStaleCache represents the 304-with-empty-cache conflict.
	ErrorClassStaleCache ErrorClass = "stale_cache"
)

// classifyStatus categorizes an HTTP status code for observability.
// Statuses below 400 have no error class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// StaleCacheError reports a 304 Not Modified response arriving while no
// cached definitions exist for the source. The upstream believes the
// client holds the payload, the client does not; the call fails hard
// rather than returning empty definitions.
type StaleCacheError struct {
	URL string
}

// Error implements the error interface.
func (e *StaleCacheError) Error() string {
	return fmt.Sprintf("stale cache: 304 Not Modified from %s but no cached definitions", e.URL)
}

// TransportError wraps a network-level failure reaching the
// definitions endpoint.
type TransportError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch definitions from %s: %v", e.URL, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}
