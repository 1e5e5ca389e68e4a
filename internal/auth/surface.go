package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	clierrors "github.com/salmonumbrella/instagram-cli/internal/errors"
)

// tokenMarker is the fragment prefix the provider appends to the redirect
// URI on a successful implicit grant.
const tokenMarker = "#access_token="

// AuthorizationCallbacks receive the outcome of an authorization attempt.
// A surface invokes at most one of them, at most once.
type AuthorizationCallbacks struct {
	OnToken   func(token string)
	OnFailure func(err error)
}

// AuthorizationSurface drives the interactive part of login: it takes the
// user to authURL and reports the token or the failure. Authorize should
// return promptly and deliver the outcome later through cb.
type AuthorizationSurface interface {
	Authorize(ctx context.Context, authURL string, cb AuthorizationCallbacks)
}

// Policy tells a navigating surface whether to continue.
type Policy int

const (
	PolicyAllow Policy = iota
	PolicyCancel
)

func (p Policy) String() string {
	if p == PolicyCancel {
		return "cancel"
	}
	return "allow"
}

// NavigationGuard inspects navigations and responses seen by a surface and
// fires the callbacks. Once a callback has fired the guard is finished and
// later decisions never fire again.
type NavigationGuard struct {
	cb   AuthorizationCallbacks
	once sync.Once
	done chan struct{}
}

// NewNavigationGuard returns a guard that reports to cb.
func NewNavigationGuard(cb AuthorizationCallbacks) *NavigationGuard {
	return &NavigationGuard{cb: cb, done: make(chan struct{})}
}

// DecideAction inspects a navigation target. A URL carrying the access token
// fragment delivers everything after the marker and is cancelled.
func (g *NavigationGuard) DecideAction(rawURL string) Policy {
	i := strings.Index(rawURL, tokenMarker)
	if i < 0 {
		return PolicyAllow
	}
	g.Token(rawURL[i+len(tokenMarker):])
	return PolicyCancel
}

// DecideResponse inspects the status of a navigation response. HTTP 400
// fails the attempt with ErrBadRequest and is cancelled. It is for embedded
// surfaces that can see response statuses; the loopback and paste surfaces
// only ever see the redirect, so they never call it.
func (g *NavigationGuard) DecideResponse(status int) Policy {
	if status != http.StatusBadRequest {
		return PolicyAllow
	}
	g.Fail(clierrors.ErrBadRequest)
	return PolicyCancel
}

// Token delivers a token obtained out of band. It reports whether this call
// fired the callback.
func (g *NavigationGuard) Token(token string) bool {
	fired := false
	g.once.Do(func() {
		fired = true
		close(g.done)
		if g.cb.OnToken != nil {
			g.cb.OnToken(token)
		}
	})
	return fired
}

// Fail reports a failure. It reports whether this call fired the callback.
func (g *NavigationGuard) Fail(err error) bool {
	fired := false
	g.once.Do(func() {
		fired = true
		close(g.done)
		if g.cb.OnFailure != nil {
			g.cb.OnFailure(err)
		}
	})
	return fired
}

// Done is closed once a callback has fired.
func (g *NavigationGuard) Done() <-chan struct{} {
	return g.done
}

// redirectError extracts a provider error from a redirect URL such as
// ?error=access_denied&error_reason=user_denied&error_description=...
func redirectError(u *url.URL) *clierrors.AuthorizationError {
	q := u.Query()
	code := q.Get("error")
	if code == "" {
		return nil
	}
	reason := q.Get("error_reason")
	if reason == "" {
		reason = code
	}
	return &clierrors.AuthorizationError{
		Reason:      reason,
		Description: q.Get("error_description"),
	}
}
