// Package testutil provides testing utilities for instagram-cli.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
)

// RecordedRequest is what the mock server saw for one call.
type RecordedRequest struct {
	Method      string
	Path        string
	RawQuery    string
	Query       url.Values
	ContentType string
	Body        string
}

// MockServer provides a test HTTP server that speaks the Instagram envelope.
type MockServer struct {
	server   *httptest.Server
	handlers map[string]http.HandlerFunc
	requests []RecordedRequest
	mu       sync.RWMutex
}

// NewMockServer creates a new mock server.
func NewMockServer() *MockServer {
	ms := &MockServer{
		handlers: make(map[string]http.HandlerFunc),
	}

	ms.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		key := r.Method + " " + r.URL.Path

		ms.mu.Lock()
		ms.requests = append(ms.requests, RecordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			RawQuery:    r.URL.RawQuery,
			Query:       r.URL.Query(),
			ContentType: r.Header.Get("Content-Type"),
			Body:        string(body),
		})
		handler, ok := ms.handlers[key]
		ms.mu.Unlock()

		if ok {
			handler(w, r)
			return
		}

		http.NotFound(w, r)
	}))

	return ms
}

// URL returns the server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close shuts down the server.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// Handle registers a custom handler for a method+path.
func (ms *MockServer) Handle(method, path string, handler http.HandlerFunc) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.handlers[method+" "+path] = handler
}

// HandleJSON registers a handler that returns JSON with the given status.
func (ms *MockServer) HandleJSON(method, path string, status int, response interface{}) {
	ms.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(response)
	})
}

// HandleRaw registers a handler that writes body verbatim.
func (ms *MockServer) HandleRaw(method, path string, status int, body string) {
	ms.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

// HandleData registers a successful envelope carrying data.
func (ms *MockServer) HandleData(method, path string, data interface{}) {
	ms.HandleJSON(method, path, http.StatusOK, map[string]interface{}{
		"meta": map[string]interface{}{"code": http.StatusOK},
		"data": data,
	})
}

// HandleEmpty registers a successful envelope with null data, as returned by
// like and unlike.
func (ms *MockServer) HandleEmpty(method, path string) {
	ms.HandleJSON(method, path, http.StatusOK, map[string]interface{}{
		"meta": map[string]interface{}{"code": http.StatusOK},
		"data": nil,
	})
}

// HandleError registers an envelope whose meta carries an API error.
func (ms *MockServer) HandleError(method, path string, status int, errorType, message string) {
	ms.HandleJSON(method, path, status, map[string]interface{}{
		"meta": map[string]interface{}{
			"code":          status,
			"error_type":    errorType,
			"error_message": message,
		},
	})
}

// Requests returns a copy of the requests received so far.
func (ms *MockServer) Requests() []RecordedRequest {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	out := make([]RecordedRequest, len(ms.requests))
	copy(out, ms.requests)
	return out
}

// LastRequest returns the most recent request, or false when none arrived.
func (ms *MockServer) LastRequest() (RecordedRequest, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	if len(ms.requests) == 0 {
		return RecordedRequest{}, false
	}
	return ms.requests[len(ms.requests)-1], true
}

// Reset clears all registered handlers and recorded requests.
func (ms *MockServer) Reset() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.handlers = make(map[string]http.HandlerFunc)
	ms.requests = nil
}
