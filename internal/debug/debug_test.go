package debug

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWithDebug(t *testing.T) {
	ctx := context.Background()

	ctx = WithDebug(ctx, true)
	if !IsDebug(ctx) {
		t.Error("Expected IsDebug to return true")
	}

	ctx = WithDebug(ctx, false)
	if IsDebug(ctx) {
		t.Error("Expected IsDebug to return false")
	}
}

func TestIsDebug_NoValue(t *testing.T) {
	ctx := context.Background()
	if IsDebug(ctx) {
		t.Error("Expected IsDebug to return false for context without debug value")
	}
}

func TestRedactToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", "[REDACTED]"},
		{"1234567.abcdef.98765432", "...5432"},
	}
	for _, tt := range tests {
		if got := RedactToken(tt.in); got != tt.want {
			t.Errorf("RedactToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			in:   "https://api.instagram.com/v1/users/self?access_token=1234567.abcdef.98765432&count=5",
			want: "https://api.instagram.com/v1/users/self?access_token=...5432&count=5",
		},
		{
			in:   "https://api.instagram.com/v1/users/self?count=5&access_token=",
			want: "https://api.instagram.com/v1/users/self?count=5&access_token=",
		},
		{
			in:   "https://api.instagram.com/v1/users/self",
			want: "https://api.instagram.com/v1/users/self",
		},
		{
			in:   "http://cb/?access_token=abcdefghijklmn#frag",
			want: "http://cb/?access_token=...klmn#frag",
		},
	}
	for _, tt := range tests {
		if got := RedactURL(tt.in); got != tt.want {
			t.Errorf("RedactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDebugTransport_Request(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"meta": {"code": 200}}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	client := &http.Client{Transport: NewDebugTransport(nil, &buf)}

	req, err := http.NewRequest("GET", server.URL+"/users/self?access_token=secret_token_12345678", nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}
	if !strings.Contains(string(body), `"code": 200`) {
		t.Error("Response body should be restored for the caller")
	}

	output := buf.String()

	if !strings.Contains(output, "--> GET") {
		t.Error("Expected request method and URL in output")
	}
	if strings.Contains(output, "secret_token_12345678") {
		t.Error("Token should be redacted")
	}
	if !strings.Contains(output, "access_token=...5678") {
		t.Errorf("Expected last 4 characters of token to be shown, got: %s", output)
	}
	if !strings.Contains(output, "<-- 200") {
		t.Error("Expected response status in output")
	}
	if !strings.Contains(output, `"meta": {"code": 200}`) {
		t.Error("Expected response body in output")
	}
}

func TestDebugTransport_FormBodyRedacted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var buf bytes.Buffer
	client := &http.Client{Transport: NewDebugTransport(nil, &buf)}

	req, err := http.NewRequest("POST", server.URL, strings.NewReader("text=nice+photo&access_token=secret_token_12345678"))
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	output := buf.String()
	if !strings.Contains(output, "Body: text=nice+photo&access_token=...5678") {
		t.Errorf("Expected redacted request body in output, got: %s", output)
	}
}

func TestDebugTransport_LongBody(t *testing.T) {
	largeBody := strings.Repeat("x", 2000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(largeBody))
	}))
	defer server.Close()

	var buf bytes.Buffer
	client := &http.Client{Transport: NewDebugTransport(nil, &buf)}

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.ReadAll(resp.Body)

	if !strings.Contains(buf.String(), "[truncated]") {
		t.Error("Expected large response body to be truncated")
	}
}

func TestDebugTransport_Error(t *testing.T) {
	var buf bytes.Buffer
	client := &http.Client{Transport: NewDebugTransport(nil, &buf)}

	req, err := http.NewRequest("GET", "http://invalid.localhost.test:99999", nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	_, err = client.Do(req)
	if err == nil {
		t.Fatal("Expected request to fail")
	}

	if !strings.Contains(buf.String(), "<-- ERROR:") {
		t.Error("Expected error to be logged in output")
	}
}

func TestNewDebugTransport_Defaults(t *testing.T) {
	dt := NewDebugTransport(nil, nil)
	if dt.Transport != http.DefaultTransport {
		t.Error("Expected default transport when nil is passed")
	}
	if dt.Output == nil {
		t.Error("Expected output to be set to os.Stderr when nil is passed")
	}
}

func TestDebugTransport_RateLimitHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Ratelimit-Limit", "5000")
		w.Header().Set("X-Ratelimit-Remaining", "4990")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var buf bytes.Buffer
	client := &http.Client{Transport: NewDebugTransport(nil, &buf)}

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !strings.Contains(buf.String(), "Rate-Limit: 4990/5000 remaining") {
		t.Errorf("Expected rate limit info in output, got: %s", buf.String())
	}
}

func TestDebugTransport_NoRateLimitHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var buf bytes.Buffer
	client := &http.Client{Transport: NewDebugTransport(nil, &buf)}

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if strings.Contains(buf.String(), "Rate-Limit:") {
		t.Errorf("Should not show rate limit info when headers are absent")
	}
}
