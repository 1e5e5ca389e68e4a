package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/salmonumbrella/instagram-cli/internal/auth"
	"github.com/salmonumbrella/instagram-cli/internal/cmdutil"
	"github.com/salmonumbrella/instagram-cli/internal/dispatch"
	clierrors "github.com/salmonumbrella/instagram-cli/internal/errors"
	"github.com/salmonumbrella/instagram-cli/internal/instagram"
	"github.com/salmonumbrella/instagram-cli/internal/ui"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Instagram authentication",
		Long:  `Log in with Instagram and manage the access token kept in the system keyring.`,
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthAddTokenCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthScopesCmd())
	cmd.AddCommand(newAuthURLCmd())

	return cmd
}

type loginOptions struct {
	scopes    []string
	noBrowser bool
	paste     bool
	timeout   time.Duration
	verify    bool
}

func (o *loginOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&o.scopes, "scope", "s", nil, "Scopes to request (basic, comments, relationships, likes, public_content, follower_list)")
	cmd.Flags().BoolVar(&o.noBrowser, "no-browser", false, "Do not auto-open browser; print auth URL instead")
	cmd.Flags().BoolVar(&o.paste, "paste", false, "Paste the redirect URL instead of listening on the redirect URI")
	cmd.Flags().DurationVar(&o.timeout, "timeout", auth.CallbackTimeout, "How long to wait for authorization")
	cmd.Flags().BoolVar(&o.verify, "verify", false, "Fetch the logged-in user after login")
}

func newAuthLoginCmd() *cobra.Command {
	var opts loginOptions

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with Instagram",
		Long: `Authenticate with Instagram using the implicit grant.

Your browser opens the Instagram authorization page. When the redirect URI
is a loopback address (e.g. http://127.0.0.1:8765/callback) ig listens on
it and picks the token up from the redirect. Otherwise, or with --paste,
paste the URL the browser lands on.

The client id and redirect URI come from the config file or the
INSTAGRAM_CLIENT_ID and INSTAGRAM_REDIRECT_URI environment variables.

Example:
  ig auth login
  ig auth login --scope basic,likes,comments
  ig auth login --paste --no-browser`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), opts)
		},
	}

	opts.bind(cmd)
	return cmd
}

func runLogin(ctx context.Context, opts loginOptions) error {
	app := appFromContext(ctx)
	cfg := ConfigFromContext(ctx)
	client := cfg.ClientConfig()
	if client == nil {
		return clierrors.MissingClientConfigError()
	}

	scopes, err := auth.ParseScopes(opts.scopes)
	if err != nil {
		return err
	}
	if len(scopes) == 0 {
		scopes = auth.DefaultScopes
	}

	noBrowser := opts.noBrowser || app.envTruthy("INSTAGRAM_NO_BROWSER") || app.envTruthy("NO_BROWSER")
	timeout := opts.timeout
	if timeout <= 0 {
		timeout = auth.CallbackTimeout
	}

	var surface auth.AuthorizationSurface
	if opts.paste || !auth.IsLoopbackRedirect(client.RedirectURI) {
		surface = &auth.PasteSurface{
			In:          stdinFromContext(ctx),
			Out:         stderrFromContext(ctx),
			NoBrowser:   noBrowser,
			OpenBrowser: app.openBrowser(),
		}
	} else {
		surface = &auth.LoopbackSurface{
			RedirectURI: client.RedirectURI,
			Timeout:     timeout,
			NoBrowser:   noBrowser,
			Out:         stderrFromContext(ctx),
			OpenBrowser: app.openBrowser(),
		}
	}

	queue := dispatch.NewQueue()
	defer queue.Close()
	session := newSession(ctx, surface, queue)

	loginCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := session.LoginWait(loginCtx, scopes); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return clierrors.WrapUserError(err, "timed out waiting for authorization",
				"Run 'ig auth login --paste' and paste the redirect URL, or 'ig auth add-token'")
		}
		return err
	}

	result := map[string]interface{}{
		"status": "success",
		"state":  session.State().String(),
		"scopes": scopeNames(scopes),
	}
	if opts.verify {
		user, err := newInstagramClient(ctx, session).Self(ctx)
		if err != nil {
			return fmt.Errorf("logged in, but verifying the token failed: %w", err)
		}
		result["username"] = user.Username
		result["user_id"] = user.ID
		ui.FromContext(ctx).Success("Logged in as @%s", user.Username)
	} else {
		ui.FromContext(ctx).Success("Logged in")
	}
	return printerForContext(ctx).Print(ctx, result)
}

func scopeNames(scopes []auth.Scope) []string {
	names := make([]string, len(scopes))
	for i, s := range scopes {
		names[i] = string(s)
	}
	return names
}

func newAuthAddTokenCmd() *cobra.Command {
	var tokenFile string
	var verify bool

	cmd := &cobra.Command{
		Use:   "add-token",
		Short: "Store an access token obtained elsewhere",
		Long: `Store an Instagram access token in the system keyring.

The token is read from --token-file ('-' for stdin) or prompted for with
hidden input. The keyring backend is the OS one:
  - macOS: Keychain
  - Linux: Secret Service, with an encrypted file fallback
  - Windows: Credential Manager`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			token, err := readToken(ctx, tokenFile)
			if err != nil {
				return err
			}

			session := newSession(ctx, nil, nil)
			if err := session.StoreAccessToken(token); err != nil {
				return err
			}

			result := map[string]interface{}{
				"status": "success",
				"state":  session.State().String(),
			}
			if verify {
				user, err := newInstagramClient(ctx, session).Self(ctx)
				if err != nil {
					return fmt.Errorf("token stored, but verifying it failed: %w", err)
				}
				result["username"] = user.Username
				result["user_id"] = user.ID
			}
			ui.FromContext(ctx).Success("Token stored")
			return printerForContext(ctx).Print(ctx, result)
		},
	}

	cmd.Flags().StringVar(&tokenFile, "token-file", "", "Read the token from a file ('-' for stdin)")
	cmd.Flags().BoolVar(&verify, "verify", false, "Fetch the user the token belongs to")
	return cmd
}

// readToken reads a token from path, or prompts on a terminal, or reads one
// line of piped stdin.
func readToken(ctx context.Context, path string) (string, error) {
	var (
		token string
		err   error
	)
	stdin := stdinFromContext(ctx)
	switch {
	case path != "":
		token, err = cmdutil.ReadInputSource(path, stdin)
	default:
		if f, ok := isTerminalReader(stdin); ok {
			_, _ = fmt.Fprint(stderrFromContext(ctx), "Enter your Instagram access token: ")
			b, readErr := term.ReadPassword(int(f.Fd()))
			_, _ = fmt.Fprintln(stderrFromContext(ctx))
			token, err = string(b), readErr
		} else {
			token, err = bufio.NewReader(stdin).ReadString('\n')
			if errors.Is(err, io.EOF) {
				err = nil
			}
		}
		if err != nil {
			err = fmt.Errorf("failed to read token: %w", err)
		}
	}
	if err != nil {
		return "", err
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", &clierrors.ValidationError{Field: "token", Message: "cannot be empty"}
	}
	return token, nil
}

func newAuthStatusCmd() *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Long: `Show whether an access token is stored.

The stored token is not checked against Instagram unless --verify is given,
so a revoked token still shows as authenticated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := ConfigFromContext(ctx)

			status := map[string]interface{}{
				"client_configured": cfg.ClientConfig() != nil,
				"key_prefix":        cfg.GetKeyPrefix(),
			}

			var tokens instagram.TokenSource
			if token, ok := envToken(ctx); ok {
				tokens = instagram.StaticToken(token)
				status["authenticated"] = true
				status["source"] = "env"
				status["state"] = auth.StateLoggedIn.String()
			} else {
				session := newSession(ctx, nil, nil)
				status["authenticated"] = session.IsAuthenticated()
				status["state"] = session.State().String()
				if session.IsAuthenticated() {
					status["source"] = "keyring"
					tokens = session
				}
			}

			if verify {
				if tokens == nil {
					return clierrors.AuthRequiredError(nil)
				}
				user, err := newInstagramClient(ctx, tokens).Self(ctx)
				if err != nil {
					return err
				}
				status["verified"] = true
				status["username"] = user.Username
				status["user_id"] = user.ID
			}

			return printerForContext(ctx).Print(ctx, status)
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "Check the token against /users/self")
	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored access token",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store := keychainFromContext(ctx)
	session := auth.NewSession(auth.SessionOptions{Store: store})
	if !session.Logout() {
		return fmt.Errorf("failed to remove token from keyring (result: %s)", store.LastResultCode())
	}
	ui.FromContext(ctx).Success("Logged out")
	return printerForContext(ctx).Print(ctx, map[string]interface{}{
		"status": "success",
		"state":  session.State().String(),
	})
}

func newAuthScopesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scopes",
		Short: "List the scopes login can request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			defaults := make(map[auth.Scope]bool, len(auth.DefaultScopes))
			for _, s := range auth.DefaultScopes {
				defaults[s] = true
			}

			rows := make([]map[string]interface{}, 0, len(auth.AllScopes))
			for _, s := range auth.AllScopes {
				rows = append(rows, map[string]interface{}{"scope": string(s), "default": defaults[s]})
			}
			return printerForContext(ctx).Print(ctx, rows)
		},
	}
}

func newAuthURLCmd() *cobra.Command {
	var scopes []string

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print the authorization URL without logging in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := ConfigFromContext(ctx)
			client := cfg.ClientConfig()
			if client == nil {
				return clierrors.MissingClientConfigError()
			}
			parsed, err := auth.ParseScopes(scopes)
			if err != nil {
				return err
			}
			if len(parsed) == 0 {
				parsed = auth.DefaultScopes
			}
			authURL, err := auth.BuildAuthURL(cfg.GetAuthURL(), client.ClientID, client.RedirectURI, parsed)
			if err != nil {
				return err
			}
			return printerForContext(ctx).Print(ctx, map[string]interface{}{"url": authURL})
		},
	}

	cmd.Flags().StringSliceVarP(&scopes, "scope", "s", nil, "Scopes to request")
	return cmd
}

func newLoginAliasCmd() *cobra.Command {
	var opts loginOptions
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with Instagram (alias for 'auth login')",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), opts)
		},
	}
	opts.bind(cmd)
	return cmd
}

func newLogoutAliasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored access token (alias for 'auth logout')",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
}
