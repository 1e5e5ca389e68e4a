package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"golang.org/x/term"

	clierrors "github.com/salmonumbrella/instagram-cli/internal/errors"
)

// PasteSurface prints the authorization URL and reads back either the URL
// the browser was redirected to or the bare token. It works when the
// redirect URI is not reachable from this machine.
type PasteSurface struct {
	In        io.Reader
	Out       io.Writer
	NoBrowser bool
	// OpenBrowser defaults to the platform opener.
	OpenBrowser func(url string) error
}

// Authorize prints instructions and reads the answer in the background.
func (s *PasteSurface) Authorize(ctx context.Context, authURL string, cb AuthorizationCallbacks) {
	guard := NewNavigationGuard(cb)

	out := s.Out
	if out == nil {
		out = io.Discard
	}
	_, _ = fmt.Fprintf(out, "Visit this URL to authorize instagram-cli:\n%s\n\n", authURL)
	if !s.NoBrowser {
		open := s.OpenBrowser
		if open == nil {
			open = OpenBrowser
		}
		_ = open(authURL)
	}
	_, _ = fmt.Fprint(out, "Paste the URL you were redirected to (or the access token): ")

	lines := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		line, err := s.readLine()
		if err != nil {
			errs <- err
			return
		}
		lines <- line
	}()

	go func() {
		select {
		case <-ctx.Done():
			guard.Fail(ctx.Err())
		case err := <-errs:
			guard.Fail(fmt.Errorf("failed to read token: %w", err))
		case line := <-lines:
			_, _ = fmt.Fprintln(out)
			interpretPasted(guard, line)
		}
	}()
}

func (s *PasteSurface) readLine() (string, error) {
	in := s.In
	if in == nil {
		in = os.Stdin
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		return string(b), err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return line, nil
}

func interpretPasted(guard *NavigationGuard, input string) {
	input = strings.TrimSpace(input)
	if input == "" {
		guard.Fail(errors.New("no token entered"))
		return
	}
	if guard.DecideAction(input) == PolicyCancel {
		return
	}
	if strings.Contains(input, "://") {
		if u, err := url.Parse(input); err == nil {
			if authErr := redirectError(u); authErr != nil {
				guard.Fail(authErr)
				return
			}
		}
		guard.Fail(&clierrors.AuthorizationError{
			Reason:      "missing_token",
			Description: "the pasted URL did not carry an access token",
		})
		return
	}
	guard.Token(input)
}
