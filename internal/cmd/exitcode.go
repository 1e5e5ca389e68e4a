package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	clierrors "github.com/salmonumbrella/instagram-cli/internal/errors"
)

const (
	ExitOK        = 0
	ExitSystem    = 1
	ExitUser      = 2
	ExitAuth      = 3
	ExitNotFound  = 4
	ExitRateLimit = 5
	ExitTemp      = 6
	ExitCanceled  = 130
)

// ExitCode maps a command error to a stable process exit code for automation.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return ExitCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ExitTemp
	}

	var reqErr *clierrors.InvalidRequestError
	if errors.As(err, &reqErr) {
		return invalidRequestExitCode(reqErr)
	}

	if clierrors.IsAuthorizationFailure(err) || clierrors.IsAuthError(err) {
		return ExitAuth
	}
	if clierrors.IsValidationError(err) || clierrors.IsUserError(err) || errors.Is(err, clierrors.ErrMissingClientConfig) {
		return ExitUser
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ExitTemp
	}

	return ExitSystem
}

// invalidRequestExitCode classifies the error_type Instagram reports in
// the envelope meta, falling back to the meta code.
func invalidRequestExitCode(e *clierrors.InvalidRequestError) int {
	switch {
	case e.Type == "OAuthRateLimitException" || e.Code == http.StatusTooManyRequests:
		return ExitRateLimit
	case strings.HasPrefix(e.Type, "OAuth"):
		return ExitAuth
	case e.Type == "APINotFoundError" || e.Code == http.StatusNotFound:
		return ExitNotFound
	case e.Code >= 500:
		return ExitTemp
	default:
		return ExitUser
	}
}
