package auth

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	clierrors "github.com/salmonumbrella/instagram-cli/internal/errors"
)

type outcome struct {
	token string
	err   error
}

func outcomeCallbacks() (AuthorizationCallbacks, <-chan outcome) {
	ch := make(chan outcome, 2)
	return AuthorizationCallbacks{
		OnToken:   func(token string) { ch <- outcome{token: token} },
		OnFailure: func(err error) { ch <- outcome{err: err} },
	}, ch
}

func waitOutcome(t *testing.T, ch <-chan outcome) outcome {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for authorization outcome")
		return outcome{}
	}
}

func startLoopback(t *testing.T, timeout time.Duration) (*LoopbackSurface, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	redirect := "http://" + ln.Addr().String() + "/callback"
	return &LoopbackSurface{
		RedirectURI: redirect,
		Timeout:     timeout,
		NoBrowser:   true,
		Out:         io.Discard,
		Listener:    ln,
	}, redirect
}

func getBody(t *testing.T, rawURL string) (int, string) {
	t.Helper()
	resp, err := http.Get(rawURL)
	if err != nil {
		t.Fatalf("GET %s: %v", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func TestLoopbackSurface_DeliversToken(t *testing.T) {
	s, redirect := startLoopback(t, time.Minute)
	cb, ch := outcomeCallbacks()
	s.Authorize(context.Background(), "https://api.instagram.com/oauth/authorize?x=1", cb)

	// the provider redirect lands on the bounce page first
	status, body := getBody(t, redirect)
	if status != http.StatusOK || !strings.Contains(body, "location.replace") {
		t.Errorf("bounce page = %d %q", status, body)
	}

	// the bounce page forwards the full location, fragment included
	landed := redirect + "#access_token=123.abc.456"
	status, body = getBody(t, redirect+"?"+hrefParam+"="+url.QueryEscape(landed))
	if status != http.StatusOK || !strings.Contains(body, "Signed in") {
		t.Errorf("landing page = %d %q", status, body)
	}

	o := waitOutcome(t, ch)
	if o.err != nil {
		t.Fatalf("unexpected failure: %v", o.err)
	}
	if o.token != "123.abc.456" {
		t.Errorf("token = %q", o.token)
	}
}

func TestLoopbackSurface_ProviderError(t *testing.T) {
	s, redirect := startLoopback(t, time.Minute)
	cb, ch := outcomeCallbacks()
	s.Authorize(context.Background(), "https://example.com/auth", cb)

	status, _ := getBody(t, redirect+"?error=access_denied&error_reason=user_denied&error_description=denied")
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}

	o := waitOutcome(t, ch)
	var authErr *clierrors.AuthorizationError
	if !errors.As(o.err, &authErr) {
		t.Fatalf("error = %v, want authorization error", o.err)
	}
	if authErr.Reason != "user_denied" {
		t.Errorf("reason = %q", authErr.Reason)
	}
}

func TestLoopbackSurface_MissingToken(t *testing.T) {
	s, redirect := startLoopback(t, time.Minute)
	cb, ch := outcomeCallbacks()
	s.Authorize(context.Background(), "https://example.com/auth", cb)

	status, _ := getBody(t, redirect+"?"+hrefParam+"="+url.QueryEscape(redirect))
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}

	o := waitOutcome(t, ch)
	if !clierrors.IsAuthorizationFailure(o.err) {
		t.Errorf("error = %v, want authorization failure", o.err)
	}
}

func TestLoopbackSurface_Timeout(t *testing.T) {
	s, _ := startLoopback(t, 50*time.Millisecond)
	cb, ch := outcomeCallbacks()
	s.Authorize(context.Background(), "https://example.com/auth", cb)

	o := waitOutcome(t, ch)
	if o.err == nil || !strings.Contains(o.err.Error(), "timed out") {
		t.Errorf("error = %v, want timeout", o.err)
	}
}

func TestLoopbackSurface_ContextCanceled(t *testing.T) {
	s, _ := startLoopback(t, time.Minute)
	cb, ch := outcomeCallbacks()
	ctx, cancel := context.WithCancel(context.Background())
	s.Authorize(ctx, "https://example.com/auth", cb)
	cancel()

	o := waitOutcome(t, ch)
	if !errors.Is(o.err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", o.err)
	}
}

func TestLoopbackSurface_RejectsNonLoopbackRedirect(t *testing.T) {
	s := &LoopbackSurface{RedirectURI: "https://example.com/callback", NoBrowser: true}
	cb, ch := outcomeCallbacks()
	s.Authorize(context.Background(), "https://example.com/auth", cb)

	o := waitOutcome(t, ch)
	if !clierrors.IsUserError(o.err) {
		t.Errorf("error = %v, want user error", o.err)
	}
}

func TestLoopbackSurface_OpensBrowser(t *testing.T) {
	s, _ := startLoopback(t, 50*time.Millisecond)
	s.NoBrowser = false

	var mu sync.Mutex
	var opened string
	s.OpenBrowser = func(u string) error {
		mu.Lock()
		defer mu.Unlock()
		opened = u
		return errors.New("no browser")
	}
	var out bytes.Buffer
	s.Out = &out

	cb, ch := outcomeCallbacks()
	s.Authorize(context.Background(), "https://example.com/auth?client_id=x", cb)
	waitOutcome(t, ch)

	mu.Lock()
	defer mu.Unlock()
	if opened != "https://example.com/auth?client_id=x" {
		t.Errorf("opened = %q", opened)
	}
	if !strings.Contains(out.String(), "Could not open browser") {
		t.Errorf("output = %q", out.String())
	}
}

func TestIsLoopbackHost(t *testing.T) {
	for host, want := range map[string]bool{
		"localhost":   true,
		"127.0.0.1":   true,
		"::1":         true,
		"example.com": false,
		"10.0.0.1":    false,
	} {
		if got := isLoopbackHost(host); got != want {
			t.Errorf("isLoopbackHost(%q) = %v, want %v", host, got, want)
		}
	}
}

func TestIsLoopbackRedirect(t *testing.T) {
	for raw, want := range map[string]bool{
		"http://localhost:8765/callback": true,
		"http://127.0.0.1/cb":            true,
		"https://localhost/cb":           false,
		"https://example.com/cb":         false,
		"::not a url":                    false,
	} {
		if got := IsLoopbackRedirect(raw); got != want {
			t.Errorf("IsLoopbackRedirect(%q) = %v, want %v", raw, got, want)
		}
	}
}
