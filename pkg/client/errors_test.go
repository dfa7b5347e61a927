package client

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected ErrorClass
	}{
		{
			name:     "client error 404",
			status:   404,
			expected: ErrorClassClient,
		},
		{
			name:     "client error 403",
			status:   403,
			expected: ErrorClassClient,
		},
		{
			name:     "server error 500",
			status:   500,
			expected: ErrorClassServer,
		},
		{
			name:     "server error 503",
			status:   503,
			expected: ErrorClassServer,
		},
		{
			name:     "success 200",
			status:   200,
			expected: "",
		},
		{
			name:     "not modified 304",
			status:   304,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifyStatus(tt.status)
			if result != tt.expected {
				t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, result, tt.expected)
			}
		})
	}
}

func TestStaleCacheError_Error(t *testing.T) {
	err := &StaleCacheError{URL: "https://toggles.example.com/api"}

	msg := err.Error()
	if !strings.Contains(msg, "https://toggles.example.com/api") {
		t.Errorf("Error message %q does not name the source", msg)
	}
	if !strings.Contains(msg, "304") {
		t.Errorf("Error message %q does not name the status", msg)
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	err := &TransportError{
		URL: "https://toggles.example.com/api",
		Err: io.EOF,
	}

	if !errors.Is(err, io.EOF) {
		t.Error("errors.Is failed to unwrap the transport cause")
	}
	if !strings.Contains(err.Error(), "https://toggles.example.com/api") {
		t.Errorf("Error message %q does not name the endpoint", err.Error())
	}
}
