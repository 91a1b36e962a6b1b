// Package testutil provides testing utilities for the catalog pager.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// MockResponse defines a canned response for a mock catalog endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockCatalog is a configurable mock catalog HTTP API for testing.
//
// Collections registered with SetCollection answer GET requests carrying
// offset and limit query parameters with a JSON array slice.
type MockCatalog struct {
	server      *httptest.Server
	mu          sync.RWMutex
	handlers    map[string]http.HandlerFunc
	collections map[string][]json.RawMessage

	// Tracking
	requests      []Call
	lastUserAgent string
}

// NewMockCatalog creates a new mock catalog server.
func NewMockCatalog() *MockCatalog {
	mock := &MockCatalog{
		handlers:    make(map[string]http.HandlerFunc),
		collections: make(map[string][]json.RawMessage),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		mock.mu.Lock()
		mock.requests = append(mock.requests, Call{Offset: offset, Limit: limit})
		mock.lastUserAgent = r.Header.Get("User-Agent")
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, hasHandler := mock.handlers[r.URL.Path]
		items, hasCollection := mock.collections[r.URL.Path]
		mock.mu.RUnlock()

		switch {
		case hasHandler:
			handler(w, r)
		case hasCollection:
			serveSlice(w, items, offset, limit)
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": "not found"}`))
		}
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockCatalog) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// Reset clears all tracking state.
func (m *MockCatalog) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.lastUserAgent = ""
}

// SetCollection serves items as an offset/limit paginated JSON array at path.
func (m *MockCatalog) SetCollection(path string, items any) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[path] = raw
	return nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockCatalog) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockCatalog) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// Requests returns the offset/limit of every request received, in order.
func (m *MockCatalog) Requests() []Call {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Call, len(m.requests))
	copy(out, m.requests)
	return out
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockCatalog) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// LastUserAgent returns the User-Agent header of the latest request.
func (m *MockCatalog) LastUserAgent() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastUserAgent
}

func serveSlice(w http.ResponseWriter, items []json.RawMessage, offset, limit int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if offset < 0 || limit <= 0 {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "offset and limit are required"}`))
		return
	}

	page := []json.RawMessage{}
	if offset < len(items) {
		page = items[offset:min(len(items), offset+limit)]
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(page)
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Rate limit exceeded"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
			"Retry-After":  "30",
		},
	}
}

// NewMalformedResponse creates a 200 response whose body is not a JSON array.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"status": "ok"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}
