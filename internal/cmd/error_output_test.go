package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	clierrors "github.com/salmonumbrella/instagram-cli/internal/errors"
	"github.com/salmonumbrella/instagram-cli/internal/iocontext"
	"github.com/salmonumbrella/instagram-cli/internal/output"
)

func errorPayload(t *testing.T, err error) map[string]interface{} {
	t.Helper()
	env := buildErrorEnvelope(err)
	payload, ok := env["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error map, got %T", env["error"])
	}
	return payload
}

func TestBuildErrorEnvelope_UserError(t *testing.T) {
	payload := errorPayload(t, clierrors.NewUserError("invalid flag", "Use --help to see valid flags"))

	if payload["category"] != "user" {
		t.Errorf("category = %v, want user", payload["category"])
	}
	if payload["suggestion"] != "Use --help to see valid flags" {
		t.Errorf("suggestion = %v", payload["suggestion"])
	}
	if payload["exit_code"] != ExitUser {
		t.Errorf("exit_code = %v, want %d", payload["exit_code"], ExitUser)
	}
}

func TestBuildErrorEnvelope_ValidationError(t *testing.T) {
	payload := errorPayload(t, &clierrors.ValidationError{Field: "token", Message: "cannot be empty"})

	if payload["type"] != "validation" || payload["field"] != "token" {
		t.Errorf("unexpected payload: %v", payload)
	}
}

func TestBuildErrorEnvelope_InvalidRequest(t *testing.T) {
	err := &clierrors.InvalidRequestError{Message: "invalid media id", Type: "APINotFoundError", Code: 400}
	payload := errorPayload(t, err)

	if payload["type"] != "invalid_request" {
		t.Errorf("type = %v", payload["type"])
	}
	if payload["message"] != "invalid media id" {
		t.Errorf("message = %v", payload["message"])
	}
	if payload["error_type"] != "APINotFoundError" || payload["code"] != 400 {
		t.Errorf("unexpected payload: %v", payload)
	}
	if payload["category"] != "user" {
		t.Errorf("category = %v, want user", payload["category"])
	}
}

func TestBuildErrorEnvelope_Authorization(t *testing.T) {
	payload := errorPayload(t, &clierrors.AuthorizationError{Reason: "user_denied"})
	if payload["type"] != "authorization" || payload["reason"] != "user_denied" {
		t.Errorf("unexpected payload: %v", payload)
	}

	payload = errorPayload(t, clierrors.ErrBadRequest)
	if payload["type"] != "authorization" || payload["reason"] != "bad_request" {
		t.Errorf("unexpected payload: %v", payload)
	}
}

func TestBuildErrorEnvelope_TokenStore(t *testing.T) {
	payload := errorPayload(t, &clierrors.TokenStoreError{Code: 2, Err: errors.New("locked")})
	if payload["type"] != "token_store" || payload["code"] != 2 {
		t.Errorf("unexpected payload: %v", payload)
	}
	if payload["category"] != "system" {
		t.Errorf("category = %v, want system", payload["category"])
	}
}

func TestBuildErrorEnvelope_MissingClientConfig(t *testing.T) {
	payload := errorPayload(t, clierrors.MissingClientConfigError())
	if payload["type"] != "missing_client_config" {
		t.Errorf("type = %v", payload["type"])
	}
}

func TestBuildErrorEnvelope_SystemError(t *testing.T) {
	payload := errorPayload(t, errors.New("boom"))

	if payload["category"] != "system" {
		t.Errorf("category = %v, want system", payload["category"])
	}
	if _, ok := payload["suggestion"]; ok {
		t.Errorf("expected no suggestion for system error")
	}
}

func TestEffectiveErrorFormat(t *testing.T) {
	tests := []struct {
		name   string
		flag   string
		format output.Format
		want   string
	}{
		{"auto_text", "auto", output.FormatText, "text"},
		{"auto_json", "auto", output.FormatJSON, "json"},
		{"auto_ndjson", "", output.FormatNDJSON, "json"},
		{"auto_yaml", "auto", output.FormatYAML, "yaml"},
		{"auto_table", "auto", output.FormatTable, "text"},
		{"explicit", "yaml", output.FormatJSON, "yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := output.WithFormat(context.Background(), tt.format)
			ctx = WithErrorFormat(ctx, tt.flag)
			if got := effectiveErrorFormat(ctx); got != tt.want {
				t.Errorf("effectiveErrorFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintCommandError_Text(t *testing.T) {
	var stderr bytes.Buffer
	ctx := iocontext.WithIO(context.Background(), &bytes.Buffer{}, &stderr)
	ctx = output.WithFormat(ctx, output.FormatText)

	printCommandError(ctx, clierrors.AuthRequiredError(nil))

	got := stderr.String()
	if !strings.HasPrefix(got, "Error: authentication error: authentication required\n") {
		t.Errorf("stderr = %q", got)
	}
	if !strings.Contains(got, "Hint: Run 'ig auth login'") {
		t.Errorf("missing hint: %q", got)
	}
}

func TestPrintCommandError_YAML(t *testing.T) {
	var stderr bytes.Buffer
	ctx := iocontext.WithIO(context.Background(), &bytes.Buffer{}, &stderr)
	ctx = WithErrorFormat(ctx, "yaml")

	printCommandError(ctx, &clierrors.ValidationError{Field: "limit", Message: "must be >= 0"})

	var env struct {
		Error struct {
			Type  string `yaml:"type"`
			Field string `yaml:"field"`
		} `yaml:"error"`
	}
	if err := yaml.Unmarshal(stderr.Bytes(), &env); err != nil {
		t.Fatalf("stderr is not yaml: %v\n%s", err, stderr.String())
	}
	if env.Error.Type != "validation" || env.Error.Field != "limit" {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestValidateErrorFormat(t *testing.T) {
	for _, ok := range []string{"", "auto", "TEXT", "json", " yaml "} {
		if err := validateErrorFormat(ok); err != nil {
			t.Errorf("validateErrorFormat(%q) = %v", ok, err)
		}
	}
	if err := validateErrorFormat("xml"); !clierrors.IsUserError(err) {
		t.Errorf("validateErrorFormat(xml) = %v, want user error", err)
	}
}
