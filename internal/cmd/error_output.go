package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	clierrors "github.com/salmonumbrella/instagram-cli/internal/errors"
	"github.com/salmonumbrella/instagram-cli/internal/output"
)

func validateErrorFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "auto", "text", "json", "yaml":
		return nil
	default:
		return clierrors.NewUserError(
			fmt.Sprintf("invalid --error-format %q", format),
			"Use one of: auto, text, json, yaml",
		)
	}
}

func effectiveErrorFormat(ctx context.Context) string {
	format := strings.ToLower(strings.TrimSpace(ErrorFormatFromContext(ctx)))
	if format == "" || format == "auto" {
		switch output.FormatFromContext(ctx) {
		case output.FormatJSON, output.FormatNDJSON:
			return "json"
		case output.FormatYAML:
			return "yaml"
		default:
			return "text"
		}
	}
	return format
}

func printCommandError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	switch effectiveErrorFormat(ctx) {
	case "json":
		enc := json.NewEncoder(stderrFromContext(ctx))
		enc.SetEscapeHTML(false)
		_ = enc.Encode(buildErrorEnvelope(err))
		return
	case "yaml":
		enc := yaml.NewEncoder(stderrFromContext(ctx))
		enc.SetIndent(2)
		_ = enc.Encode(buildErrorEnvelope(err))
		_ = enc.Close()
		return
	}

	_, _ = fmt.Fprintf(stderrFromContext(ctx), "Error: %v\n", err)
	if suggestion := clierrors.UserSuggestion(err); suggestion != "" {
		_, _ = fmt.Fprintf(stderrFromContext(ctx), "Hint: %s\n", suggestion)
	}
}

func buildErrorEnvelope(err error) map[string]interface{} {
	errMap := map[string]interface{}{
		"message":   err.Error(),
		"exit_code": ExitCode(err),
	}

	category := "system"
	if clierrors.IsUserError(err) || clierrors.IsValidationError(err) || clierrors.IsAuthError(err) ||
		clierrors.IsAuthorizationFailure(err) || clierrors.IsInvalidRequest(err) {
		category = "user"
	}
	errMap["category"] = category

	if suggestion := clierrors.UserSuggestion(err); suggestion != "" {
		errMap["suggestion"] = suggestion
	}

	var reqErr *clierrors.InvalidRequestError
	if errors.As(err, &reqErr) {
		errMap["type"] = "invalid_request"
		errMap["message"] = reqErr.Message
		if reqErr.Type != "" {
			errMap["error_type"] = reqErr.Type
		}
		if reqErr.Code > 0 {
			errMap["code"] = reqErr.Code
		}
	}

	var decErr *clierrors.DecodingError
	if errors.As(err, &decErr) {
		errMap["type"] = "decoding"
	}

	var authzErr *clierrors.AuthorizationError
	switch {
	case errors.As(err, &authzErr):
		errMap["type"] = "authorization"
		errMap["reason"] = authzErr.Reason
	case errors.Is(err, clierrors.ErrBadRequest):
		errMap["type"] = "authorization"
		errMap["reason"] = "bad_request"
	}

	var storeErr *clierrors.TokenStoreError
	if errors.As(err, &storeErr) {
		errMap["type"] = "token_store"
		errMap["code"] = storeErr.Code
	}

	var authErr *clierrors.AuthError
	if errors.As(err, &authErr) {
		errMap["type"] = "auth"
	}

	var validationErr *clierrors.ValidationError
	if errors.As(err, &validationErr) {
		errMap["type"] = "validation"
		errMap["field"] = validationErr.Field
	}

	if errors.Is(err, clierrors.ErrMissingClientConfig) {
		errMap["type"] = "missing_client_config"
	}

	return map[string]interface{}{"error": errMap}
}
