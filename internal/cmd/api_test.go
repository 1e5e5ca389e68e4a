package cmd

import (
	"net/http"
	"strings"
	"testing"

	clierrors "github.com/salmonumbrella/instagram-cli/internal/errors"
)

func TestAPICommand_Get(t *testing.T) {
	h, ms := newAPIHarness(t)
	ms.HandleData("GET", "/tags/sunset", map[string]interface{}{"name": "sunset", "media_count": 100})

	res := h.run("", "api", "/tags/sunset", "-p", "a=1")
	if res.err != nil {
		t.Fatalf("api error = %v", res.err)
	}
	out := decodeJSONMap(t, res.stdout)
	meta, _ := out["meta"].(map[string]interface{})
	if meta["code"] != float64(200) {
		t.Errorf("meta = %v", out["meta"])
	}
	data, _ := out["data"].(map[string]interface{})
	if data["name"] != "sunset" {
		t.Errorf("data = %v", out["data"])
	}

	req, _ := ms.LastRequest()
	if req.RawQuery != "access_token=test-token&a=1" {
		t.Errorf("query = %q", req.RawQuery)
	}
}

func TestAPICommand_KeepsKeyOrder(t *testing.T) {
	h, ms := newAPIHarness(t)
	ms.HandleRaw("GET", "/ordered", http.StatusOK, `{"meta":{"code":200},"data":{"zebra":1,"apple":2,"mango":3}}`)

	res := h.run("", "api", "/ordered", "--compact-json")
	if res.err != nil {
		t.Fatalf("api error = %v", res.err)
	}
	if got := strings.TrimSpace(res.stdout); got != `{"meta":{"code":200},"data":{"zebra":1,"apple":2,"mango":3}}` {
		t.Errorf("stdout = %s", got)
	}
}

func TestAPICommand_PostForm(t *testing.T) {
	h, ms := newAPIHarness(t)
	ms.HandleEmpty(http.MethodPost, "/media/1_1/comments")

	res := h.run("", "api", "media/1_1/comments", "-X", "post", "-p", "text=nice shot")
	if res.err != nil {
		t.Fatalf("api error = %v", res.err)
	}
	req, _ := ms.LastRequest()
	if req.Method != http.MethodPost {
		t.Errorf("method = %s", req.Method)
	}
	if req.Body != "text=nice+shot" {
		t.Errorf("body = %q", req.Body)
	}
	if req.RawQuery != "access_token=test-token" {
		t.Errorf("query = %q", req.RawQuery)
	}
}

func TestAPICommand_EnvelopeError(t *testing.T) {
	h, ms := newAPIHarness(t)
	ms.HandleError("GET", "/locations/1", 400, "APINotAllowedError", "you cannot view this resource")

	res := h.run("", "api", "/locations/1")
	if !clierrors.IsInvalidRequest(res.err) {
		t.Fatalf("error = %v, want invalid request", res.err)
	}
}

func TestAPICommand_Raw(t *testing.T) {
	h, ms := newAPIHarness(t)
	ms.HandleError("GET", "/locations/1", 400, "APINotAllowedError", "nope")

	res := h.run("", "api", "/locations/1", "--raw")
	if res.err != nil {
		t.Fatalf("--raw should not interpret the envelope, got %v", res.err)
	}
	out := decodeJSONMap(t, res.stdout)
	meta, _ := out["meta"].(map[string]interface{})
	if meta["error_message"] != "nope" {
		t.Errorf("meta = %v", out["meta"])
	}
}

func TestAPICommand_DecodingError(t *testing.T) {
	h, ms := newAPIHarness(t)
	ms.HandleRaw("GET", "/broken", http.StatusOK, "<html>")

	res := h.run("", "api", "/broken")
	if !clierrors.IsDecodingError(res.err) {
		t.Fatalf("error = %v, want decoding error", res.err)
	}
}

func TestAPICommand_AllPages(t *testing.T) {
	h, ms := newAPIHarness(t)
	next := ms.URL() + "/users/self/media/recent?max_id=2"
	ms.Handle("GET", "/users/self/media/recent", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("max_id") == "" {
			_, _ = w.Write([]byte(`{"meta":{"code":200},"data":[{"id":"1"},{"id":"2"}],"pagination":{"next_url":"` + next + `","next_max_id":"2"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"meta":{"code":200},"data":[{"id":"3"}],"pagination":{}}`))
	})

	res := h.run("", "api", "/users/self/media/recent", "--all")
	if res.err != nil {
		t.Fatalf("api error = %v", res.err)
	}
	out := decodeJSONMap(t, res.stdout)
	data, _ := out["data"].([]interface{})
	if len(data) != 3 {
		t.Fatalf("merged %d items, want 3: %v", len(data), out)
	}
	if out["has_more"] != false || out["pages"] != float64(2) {
		t.Errorf("has_more = %v, pages = %v", out["has_more"], out["pages"])
	}

	reqs := ms.Requests()
	if len(reqs) != 2 {
		t.Fatalf("server saw %d requests, want 2", len(reqs))
	}
	if got := reqs[1].Query["access_token"]; len(got) != 1 || got[0] != "test-token" {
		t.Errorf("next page access_token = %v", got)
	}
}

func TestAPICommand_AllStopsAtMaxPages(t *testing.T) {
	h, ms := newAPIHarness(t)
	next := ms.URL() + "/feed?page=next"
	ms.Handle("GET", "/feed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"meta":{"code":200},"data":[{"id":"x"}],"pagination":{"next_url":"` + next + `"}}`))
	})

	res := h.run("", "api", "/feed", "--all", "--max-pages", "3")
	if res.err != nil {
		t.Fatalf("api error = %v", res.err)
	}
	out := decodeJSONMap(t, res.stdout)
	if out["has_more"] != true || out["pages"] != float64(3) {
		t.Errorf("has_more = %v, pages = %v", out["has_more"], out["pages"])
	}
	if got := len(ms.Requests()); got != 3 {
		t.Errorf("server saw %d requests, want 3", got)
	}
}

func TestAPICommand_InvalidInput(t *testing.T) {
	h, _ := newAPIHarness(t)

	tests := []struct {
		name string
		args []string
	}{
		{"method", []string{"api", "/x", "-X", "PATCH"}},
		{"param", []string{"api", "/x", "-p", "novalue"}},
		{"raw_all", []string{"api", "/x", "--raw", "--all"}},
		{"max_pages", []string{"api", "/x", "--all", "--max-pages", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := h.run("", tt.args...)
			if res.err == nil {
				t.Fatal("expected an error")
			}
			if ExitCode(res.err) != ExitUser {
				t.Errorf("exit code = %d, want %d (err %v)", ExitCode(res.err), ExitUser, res.err)
			}
		})
	}
}
