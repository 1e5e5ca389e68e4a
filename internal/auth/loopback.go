package auth

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"time"

	clierrors "github.com/salmonumbrella/instagram-cli/internal/errors"
)

// CallbackTimeout is how long LoopbackSurface waits for the redirect.
const CallbackTimeout = 2 * time.Minute

// hrefParam carries the full browser location, fragment included, from the
// bounce page back to the listener.
const hrefParam = "_href"

const bouncePage = `<!doctype html>
<html><head><meta charset="utf-8"><title>instagram-cli</title></head>
<body>
<p>Completing sign in&hellip;</p>
<script>
window.location.replace(window.location.pathname + "?` + hrefParam + `=" + encodeURIComponent(window.location.href));
</script>
</body></html>`

const resultPage = `<!doctype html>
<html><head><meta charset="utf-8"><title>instagram-cli</title></head>
<body><h2>%s</h2><p>%s</p></body></html>`

// LoopbackSurface completes login in the user's browser. It listens on the
// redirect URI, which must point at a loopback address, and hands the
// location the browser lands on to a NavigationGuard.
type LoopbackSurface struct {
	RedirectURI string
	Timeout     time.Duration
	NoBrowser   bool
	// Out receives the instructions printed to the user.
	Out io.Writer
	// OpenBrowser defaults to the platform opener.
	OpenBrowser func(url string) error
	// Listener, when set, is used instead of listening on the redirect host.
	Listener net.Listener
}

// Authorize starts the listener and returns. The outcome arrives through cb.
func (s *LoopbackSurface) Authorize(ctx context.Context, authURL string, cb AuthorizationCallbacks) {
	guard := NewNavigationGuard(cb)

	redirect, err := url.Parse(s.RedirectURI)
	if err != nil || !IsLoopbackRedirect(s.RedirectURI) {
		guard.Fail(clierrors.NewUserError(
			fmt.Sprintf("redirect URI %q is not a loopback http address", s.RedirectURI),
			"Use a redirect_uri like http://127.0.0.1:8765/callback, or run 'ig auth login --paste'",
		))
		return
	}

	ln := s.Listener
	if ln == nil {
		host := redirect.Host
		if redirect.Port() == "" {
			host = net.JoinHostPort(redirect.Hostname(), "80")
		}
		ln, err = net.Listen("tcp", host)
		if err != nil {
			guard.Fail(fmt.Errorf("failed to start callback server: %w", err))
			return
		}
	}

	path := redirect.Path
	if path == "" {
		path = "/"
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		serveRedirect(w, r, guard)
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = server.Serve(ln) }()

	out := s.Out
	if out == nil {
		out = io.Discard
	}
	if s.NoBrowser {
		_, _ = fmt.Fprintf(out, "Visit this URL to authorize instagram-cli:\n%s\n\n", authURL)
	} else {
		_, _ = fmt.Fprintln(out, "Opening browser to authorize instagram-cli...")
		open := s.OpenBrowser
		if open == nil {
			open = OpenBrowser
		}
		if err := open(authURL); err != nil {
			_, _ = fmt.Fprintf(out, "Could not open browser. Please visit:\n%s\n\n", authURL)
		}
	}
	_, _ = fmt.Fprintln(out, "Waiting for authorization...")

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = CallbackTimeout
	}

	go func() {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case <-guard.Done():
		case <-ctx.Done():
			guard.Fail(ctx.Err())
		case <-timer.C:
			guard.Fail(fmt.Errorf("timed out waiting for authorization after %s", timeout))
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Debug("callback server shutdown", "error", err)
		}
	}()
}

func serveRedirect(w http.ResponseWriter, r *http.Request, guard *NavigationGuard) {
	if authErr := redirectError(r.URL); authErr != nil {
		guard.Fail(authErr)
		writeResult(w, http.StatusBadRequest, "Authorization failed", authErr.Error())
		return
	}

	href := r.URL.Query().Get(hrefParam)
	if href == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, bouncePage)
		return
	}

	if guard.DecideAction(href) == PolicyCancel {
		writeResult(w, http.StatusOK, "Signed in", "You can close this window and return to the terminal.")
		return
	}

	guard.Fail(&clierrors.AuthorizationError{
		Reason:      "missing_token",
		Description: "the redirect did not carry an access token",
	})
	writeResult(w, http.StatusBadRequest, "Authorization failed", "No access token was found in the redirect.")
}

func writeResult(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, resultPage, html.EscapeString(title), html.EscapeString(message))
}

// IsLoopbackRedirect reports whether redirectURI is a plain http URL on a
// loopback host, i.e. one LoopbackSurface can listen on.
func IsLoopbackRedirect(redirectURI string) bool {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return false
	}
	return u.Scheme == "http" && isLoopbackHost(u.Hostname())
}

func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// OpenBrowser opens url with the platform's default handler.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform")
	}
	return cmd.Start()
}
