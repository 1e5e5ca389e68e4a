// Package auth handles Instagram login and token storage for instagram-cli.
//
// Tokens are kept in the OS keyring (macOS Keychain, Windows Credential
// Manager, Linux Secret Service) via github.com/99designs/keyring, with an
// encrypted file fallback on headless Linux. Keyring fallback files can be
// directed to a custom root with INSTAGRAM_CREDENTIALS_DIR.
//
// Login uses the OAuth implicit grant: the user is sent to the authorization
// URL and the provider redirects back with #access_token=... in the URL
// fragment. The interactive part is an AuthorizationSurface; LoopbackSurface
// and PasteSurface are the two the CLI ships with.
//
// Example usage:
//
//	session := auth.NewSession(auth.SessionOptions{
//	    Client:  &config.ClientConfig{ClientID: id, RedirectURI: redirect},
//	    Store:   auth.NewKeychain(config.DefaultKeyPrefix),
//	    Surface: &auth.LoopbackSurface{RedirectURI: redirect, Out: os.Stderr},
//	})
//
//	if err := session.LoginWait(ctx, []auth.Scope{auth.ScopeBasic, auth.ScopeLikes}); err != nil {
//	    log.Fatal(err)
//	}
//
//	if session.IsAuthenticated() {
//	    fmt.Println("Token is configured")
//	}
//
//	session.Logout()
package auth
