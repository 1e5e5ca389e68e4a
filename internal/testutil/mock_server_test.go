package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func TestMockServer_HandleData(t *testing.T) {
	ms := NewMockServer()
	defer ms.Close()

	ms.HandleData("GET", "/v1/users/self", map[string]string{"id": "1574083", "username": "snoopdogg"})

	resp, err := http.Get(ms.URL() + "/v1/users/self?access_token=tok")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Meta struct {
			Code int `json:"code"`
		} `json:"meta"`
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if result.Meta.Code != 200 {
		t.Errorf("expected meta code 200, got %d", result.Meta.Code)
	}
	if result.Data["username"] != "snoopdogg" {
		t.Errorf("expected username snoopdogg, got %s", result.Data["username"])
	}
}

func TestMockServer_HandleError(t *testing.T) {
	ms := NewMockServer()
	defer ms.Close()

	ms.HandleError("GET", "/v1/users/self", http.StatusBadRequest, "OAuthAccessTokenException", "The access_token provided is invalid.")

	resp, err := http.Get(ms.URL() + "/v1/users/self")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"error_type":"OAuthAccessTokenException"`) {
		t.Errorf("expected error type in body: %s", body)
	}
}

func TestMockServer_HandleEmpty(t *testing.T) {
	ms := NewMockServer()
	defer ms.Close()

	ms.HandleEmpty("POST", "/v1/media/1/likes")

	resp, err := http.PostForm(ms.URL()+"/v1/media/1/likes", url.Values{"x": {"1"}})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"data":null`) {
		t.Errorf("expected null data: %s", body)
	}
}

func TestMockServer_RecordsRequests(t *testing.T) {
	ms := NewMockServer()
	defer ms.Close()

	ms.HandleEmpty("POST", "/v1/media/1/comments")

	resp, err := http.PostForm(ms.URL()+"/v1/media/1/comments?access_token=tok", url.Values{"text": {"nice"}})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()

	req, ok := ms.LastRequest()
	if !ok {
		t.Fatal("expected a recorded request")
	}
	if req.Method != "POST" || req.Path != "/v1/media/1/comments" {
		t.Errorf("unexpected request %s %s", req.Method, req.Path)
	}
	if req.Query.Get("access_token") != "tok" {
		t.Errorf("expected access_token in query, got %q", req.RawQuery)
	}
	if req.Body != "text=nice" {
		t.Errorf("expected form body, got %q", req.Body)
	}
	if req.ContentType != "application/x-www-form-urlencoded" {
		t.Errorf("unexpected content type %q", req.ContentType)
	}
	if len(ms.Requests()) != 1 {
		t.Errorf("expected 1 request, got %d", len(ms.Requests()))
	}
}

func TestMockServer_Reset(t *testing.T) {
	ms := NewMockServer()
	defer ms.Close()

	ms.HandleData("GET", "/v1/test", map[string]string{"ok": "true"})
	ms.Reset()

	resp, err := http.Get(ms.URL() + "/v1/test")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after reset, got %d", resp.StatusCode)
	}
	if len(ms.Requests()) != 1 {
		t.Errorf("expected only the post-reset request to be recorded, got %d", len(ms.Requests()))
	}
}
