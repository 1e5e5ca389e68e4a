package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/99designs/keyring"

	"github.com/salmonumbrella/instagram-cli/internal/config"
	"github.com/salmonumbrella/instagram-cli/internal/dispatch"
	clierrors "github.com/salmonumbrella/instagram-cli/internal/errors"
)

// AccessTokenKey is the keychain key, before prefixing, of the access token.
const AccessTokenKey = "AccessToken"

// State is the session lifecycle state.
type State int

const (
	StateLoggedOut State = iota
	StateAwaitingAuthorization
	StateLoggedIn
)

func (s State) String() string {
	switch s {
	case StateAwaitingAuthorization:
		return "awaiting_authorization"
	case StateLoggedIn:
		return "logged_in"
	default:
		return "logged_out"
	}
}

// SessionOptions configures a Session.
type SessionOptions struct {
	// Client is the registered client identity. Login fails with
	// ErrMissingClientConfig when it is nil or incomplete.
	Client *config.ClientConfig
	// AuthURL defaults to config.DefaultAuthURL.
	AuthURL string
	Store   TokenStore
	Surface AuthorizationSurface
	// Dispatcher runs login callbacks. Defaults to dispatch.Main.
	Dispatcher dispatch.Dispatcher
}

// Session owns the login lifecycle and the stored access token.
type Session struct {
	client     *config.ClientConfig
	authURL    string
	store      TokenStore
	surface    AuthorizationSurface
	dispatcher dispatch.Dispatcher

	mu    sync.Mutex
	state State
}

// NewSession builds a session. It starts LoggedIn when the store already
// holds a token.
func NewSession(opts SessionOptions) *Session {
	s := &Session{
		client:     opts.Client,
		authURL:    opts.AuthURL,
		store:      opts.Store,
		surface:    opts.Surface,
		dispatcher: opts.Dispatcher,
	}
	if s.authURL == "" {
		s.authURL = config.DefaultAuthURL
	}
	if s.dispatcher == nil {
		s.dispatcher = dispatch.Main()
	}
	if _, ok := s.RetrieveAccessToken(); ok {
		s.state = StateLoggedIn
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Login starts an authorization attempt. Exactly one of onSuccess and
// onFailure is eventually called, on the session's dispatcher. With no
// scopes, DefaultScopes is requested.
func (s *Session) Login(ctx context.Context, scopes []Scope, onSuccess func(), onFailure func(error)) {
	if onSuccess == nil {
		onSuccess = func() {}
	}
	if onFailure == nil {
		onFailure = func(error) {}
	}
	fail := func(err error) {
		s.post(func() { onFailure(err) })
	}

	if !s.client.Valid() {
		fail(clierrors.ErrMissingClientConfig)
		return
	}
	if s.surface == nil {
		fail(errors.New("no authorization surface configured"))
		return
	}
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	authURL, err := BuildAuthURL(s.authURL, s.client.ClientID, s.client.RedirectURI, scopes)
	if err != nil {
		fail(err)
		return
	}

	s.setState(StateAwaitingAuthorization)
	slog.Debug("authorization started", "scopes", joinScopes(scopes, "+"), "redirect_uri", s.client.RedirectURI)

	s.surface.Authorize(ctx, authURL, AuthorizationCallbacks{
		OnToken: func(token string) {
			s.post(func() {
				if err := s.storeFromLogin(token); err != nil {
					s.setState(StateLoggedOut)
					slog.Debug("authorization token not stored", "error", err)
					onFailure(err)
					return
				}
				slog.Debug("authorization succeeded")
				onSuccess()
			})
		},
		OnFailure: func(err error) {
			s.post(func() {
				s.setState(StateLoggedOut)
				slog.Debug("authorization failed", "error", err)
				onFailure(err)
			})
		},
	})
}

// post runs fn on the dispatcher, or right away if the dispatcher is
// closed.
func (s *Session) post(fn func()) {
	if !s.dispatcher.Post(fn) {
		fn()
	}
}

func (s *Session) storeFromLogin(token string) error {
	if token == "" {
		return &clierrors.TokenStoreError{
			Code: int(ResultInvalidInput),
			Err:  errors.New("provider returned an empty access token"),
		}
	}
	if err := s.StoreAccessToken(token); err != nil {
		return &clierrors.TokenStoreError{Code: int(s.store.LastResultCode()), Err: err}
	}
	return nil
}

// LoginWait runs Login and blocks until it finishes or ctx is done.
func (s *Session) LoginWait(ctx context.Context, scopes []Scope) error {
	done := make(chan error, 1)
	s.Login(ctx, scopes,
		func() { done <- nil },
		func(err error) { done <- err },
	)
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Logout deletes the stored token and reports whether the store is now
// empty. A token that was never stored counts as success. The session is
// LoggedOut afterwards either way.
func (s *Session) Logout() bool {
	if s.store == nil {
		s.setState(StateLoggedOut)
		return true
	}
	err := s.store.Delete(AccessTokenKey)
	s.setState(StateLoggedOut)
	if err == nil || errors.Is(err, ErrTokenNotFound) || errors.Is(err, keyring.ErrKeyNotFound) {
		return true
	}
	slog.Debug("logout failed", "error", err)
	return false
}

// IsAuthenticated reports whether a token is stored. The token is not
// checked against the API, so a revoked token still reports true.
func (s *Session) IsAuthenticated() bool {
	_, ok := s.RetrieveAccessToken()
	return ok
}

// StoreAccessToken saves a token obtained out of band and marks the session
// LoggedIn.
func (s *Session) StoreAccessToken(token string) error {
	if token == "" {
		return &clierrors.ValidationError{Field: "token", Message: "cannot be empty"}
	}
	if s.store == nil {
		return errors.New("no token store configured")
	}
	if err := s.store.Set(AccessTokenKey, token); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	s.setState(StateLoggedIn)
	return nil
}

// RetrieveAccessToken returns the stored token, if any.
func (s *Session) RetrieveAccessToken() (string, bool) {
	if s.store == nil {
		return "", false
	}
	token, err := s.store.Get(AccessTokenKey)
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

// AccessToken returns the stored token or "".
func (s *Session) AccessToken() string {
	token, _ := s.RetrieveAccessToken()
	return token
}
