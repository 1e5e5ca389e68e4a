package errors

import (
	"errors"
	"fmt"
)

// ErrMissingClientConfig is returned by login when the client id or the
// redirect URI has not been configured.
var ErrMissingClientConfig = errors.New("missing Instagram client id or redirect URI")

// ErrBadRequest is reported by an authorization surface when the provider
// answers a navigation with HTTP 400.
var ErrBadRequest = errors.New("authorization failed: bad request")

// TokenStoreError reports a failed keychain write of a freshly obtained
// token. Code is the store's last result code.
type TokenStoreError struct {
	Code int
	Err  error
}

func (e *TokenStoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token store error (code %d): %v", e.Code, e.Err)
	}
	return fmt.Sprintf("token store error (code %d)", e.Code)
}

func (e *TokenStoreError) Unwrap() error {
	return e.Err
}

// AuthorizationError is an error the provider reported on the redirect,
// e.g. error=access_denied&error_reason=user_denied.
type AuthorizationError struct {
	Reason      string
	Description string
}

func (e *AuthorizationError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authorization failed: %s (%s)", e.Description, e.Reason)
	}
	return fmt.Sprintf("authorization failed: %s", e.Reason)
}

// InvalidRequestError carries the error_message the API put in the
// envelope meta.
type InvalidRequestError struct {
	Message string
	Type    string
	Code    int
}

func (e *InvalidRequestError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("invalid request: %s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("invalid request: %s", e.Message)
}

// DecodingError means the response body did not match the expected shape.
type DecodingError struct {
	Message string
	Err     error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decoding error: %s", e.Message)
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}

// NewDecodingError wraps a JSON error.
func NewDecodingError(err error) *DecodingError {
	return &DecodingError{Message: err.Error(), Err: err}
}

// ValidationError represents an input validation failure
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// UserError represents an error caused by user input or configuration.
// Suggestion can provide a concrete fix for the user.
type UserError struct {
	Message    string
	Suggestion string
	Err        error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a UserError with a message and optional suggestion.
func NewUserError(message, suggestion string) *UserError {
	return &UserError{Message: message, Suggestion: suggestion}
}

// WrapUserError wraps an underlying error with a user-facing message and suggestion.
func WrapUserError(err error, message, suggestion string) *UserError {
	return &UserError{Message: message, Suggestion: suggestion, Err: err}
}

// AuthError represents authentication failures
type AuthError struct {
	Reason     string
	Suggestion string
	Err        error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication error: %s", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// AuthRequiredError wraps an error with authentication required message and suggestion.
func AuthRequiredError(err error) error {
	return &AuthError{
		Reason:     "authentication required",
		Suggestion: "Run 'ig auth login' or 'ig auth add-token' to configure",
		Err:        err,
	}
}

// MissingClientConfigError explains how to fix ErrMissingClientConfig.
func MissingClientConfigError() error {
	return WrapUserError(ErrMissingClientConfig,
		"login is not configured",
		"Set client_id and redirect_uri with 'ig config set', or export INSTAGRAM_CLIENT_ID and INSTAGRAM_REDIRECT_URI")
}

// Type checkers
func IsAuthError(err error) bool {
	var e *AuthError
	return errors.As(err, &e)
}

func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsUserError(err error) bool {
	var e *UserError
	return errors.As(err, &e)
}

func IsInvalidRequest(err error) bool {
	var e *InvalidRequestError
	return errors.As(err, &e)
}

func IsDecodingError(err error) bool {
	var e *DecodingError
	return errors.As(err, &e)
}

func IsTokenStoreError(err error) bool {
	var e *TokenStoreError
	return errors.As(err, &e)
}

// IsAuthorizationFailure reports whether err came from the authorization
// surface rather than from configuration or storage.
func IsAuthorizationFailure(err error) bool {
	if errors.Is(err, ErrBadRequest) {
		return true
	}
	var e *AuthorizationError
	return errors.As(err, &e)
}

// UserSuggestion returns a suggestion string if err is a UserError or AuthError.
func UserSuggestion(err error) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Suggestion
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Suggestion
	}
	return ""
}
