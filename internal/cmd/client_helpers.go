package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/salmonumbrella/instagram-cli/internal/auth"
	"github.com/salmonumbrella/instagram-cli/internal/debug"
	"github.com/salmonumbrella/instagram-cli/internal/dispatch"
	clierrors "github.com/salmonumbrella/instagram-cli/internal/errors"
	"github.com/salmonumbrella/instagram-cli/internal/instagram"
)

// envAccessToken supplies a token without touching the keyring, for CI.
const envAccessToken = "INSTAGRAM_ACCESS_TOKEN"

func keychainFromContext(ctx context.Context) *auth.Keychain {
	return auth.NewKeychain(ConfigFromContext(ctx).GetKeyPrefix())
}

// newSession builds a session over the configured keychain. surface and d
// may be nil for commands that never log in.
func newSession(ctx context.Context, surface auth.AuthorizationSurface, d dispatch.Dispatcher) *auth.Session {
	cfg := ConfigFromContext(ctx)
	return auth.NewSession(auth.SessionOptions{
		Client:     cfg.ClientConfig(),
		AuthURL:    cfg.GetAuthURL(),
		Store:      keychainFromContext(ctx),
		Surface:    surface,
		Dispatcher: d,
	})
}

// envToken returns the INSTAGRAM_ACCESS_TOKEN override, if set.
func envToken(ctx context.Context) (string, bool) {
	v, ok := appFromContext(ctx).lookupEnv(envAccessToken)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// tokenSourceFromContext prefers the environment token and falls back to the
// keyring session.
func tokenSourceFromContext(ctx context.Context) (instagram.TokenSource, error) {
	if token, ok := envToken(ctx); ok {
		slog.Debug("using access token from environment", "env", envAccessToken)
		return instagram.StaticToken(token), nil
	}
	session := newSession(ctx, nil, nil)
	if !session.IsAuthenticated() {
		return nil, clierrors.AuthRequiredError(nil)
	}
	return session, nil
}

// clientFromContext returns an API client for an authenticated user.
func clientFromContext(ctx context.Context) (*instagram.Client, error) {
	tokens, err := tokenSourceFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return newInstagramClient(ctx, tokens), nil
}

func newInstagramClient(ctx context.Context, tokens instagram.TokenSource) *instagram.Client {
	client := instagram.NewClient(tokens).WithBaseURL(ConfigFromContext(ctx).GetAPIURL())
	if debug.IsDebug(ctx) {
		client.WithDebugOutput(stderrFromContext(ctx))
	}
	return client
}
