package upstream

import (
	"errors"
	"testing"
)

func TestUpstreamError_Temporary(t *testing.T) {
	tests := []struct {
		name       string
		errorClass ErrorClass
		expected   bool
	}{
		{
			name:       "client error is permanent",
			errorClass: ErrorClassClient,
			expected:   false,
		},
		{
			name:       "server error is temporary",
			errorClass: ErrorClassServer,
			expected:   true,
		},
		{
			name:       "rate limit is temporary",
			errorClass: ErrorClassRateLimit,
			expected:   true,
		},
		{
			name:       "network error is temporary",
			errorClass: ErrorClassNetwork,
			expected:   true,
		},
		{
			name:       "decode error is permanent",
			errorClass: ErrorClassDecode,
			expected:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &UpstreamError{ErrorClass: tt.errorClass}
			if got := err.Temporary(); got != tt.expected {
				t.Errorf("Temporary() for %q = %v, want %v", tt.errorClass, got, tt.expected)
			}
		})
	}
}

func TestUpstreamError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *UpstreamError
		expected string
	}{
		{
			name: "error with wrapped error",
			err: &UpstreamError{
				StatusCode: 0,
				ErrorClass: ErrorClassNetwork,
				Message:    "request failed",
				Err:        errors.New("connection refused"),
			},
			expected: "upstream network error (status 0): request failed: connection refused",
		},
		{
			name: "error without wrapped error",
			err: &UpstreamError{
				StatusCode: 404,
				ErrorClass: ErrorClassClient,
				Message:    "404 Not Found",
			},
			expected: "upstream client error (status 404): 404 Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestUpstreamError_Unwrap(t *testing.T) {
	wrappedErr := errors.New("wrapped error")
	err := &UpstreamError{
		StatusCode: 200,
		ErrorClass: ErrorClassDecode,
		Message:    "decode",
		Err:        wrappedErr,
	}

	if !errors.Is(err, wrappedErr) {
		t.Error("errors.Is should work with wrapped error")
	}

	if (&UpstreamError{ErrorClass: ErrorClassClient}).Unwrap() != nil {
		t.Error("Unwrap() without wrapped error should be nil")
	}
}
