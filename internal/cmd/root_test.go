package cmd

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/instagram-cli/internal/config"
	clierrors "github.com/salmonumbrella/instagram-cli/internal/errors"
	"github.com/salmonumbrella/instagram-cli/internal/output"
)

// resolvedFormat runs a hidden subcommand and returns the output format the
// root resolved for it.
func resolvedFormat(t *testing.T, h *cliHarness, args ...string) output.Format {
	t.Helper()

	var got output.Format
	app := NewApp()
	app.Stdout = &strings.Builder{}
	app.Stderr = &strings.Builder{}
	app.LookupEnv = func(name string) (string, bool) {
		v, ok := h.env[name]
		return v, ok
	}
	root := app.RootCommand()
	root.AddCommand(&cobra.Command{
		Use:    "format-check",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			got = output.FormatFromContext(cmd.Context())
			return nil
		},
	})
	root.SetArgs(append([]string{"--config", h.configPath, "format-check"}, args...))
	if err := root.Execute(); err != nil {
		t.Fatalf("format-check error = %v", err)
	}
	return got
}

func TestRootFormatResolution(t *testing.T) {
	h := newCLIHarness(t, config.Config{})
	if got := resolvedFormat(t, h); got != output.FormatJSON {
		t.Errorf("non-tty default = %q, want json", got)
	}
	if got := resolvedFormat(t, h, "-o", "yaml"); got != output.FormatYAML {
		t.Errorf("--output yaml = %q", got)
	}
	if got := resolvedFormat(t, h, "--format", "table"); got != output.FormatTable {
		t.Errorf("--format table = %q", got)
	}
	if got := resolvedFormat(t, h, "-o", "yaml", "--json"); got != output.FormatJSON {
		t.Errorf("--json should win, got %q", got)
	}

	h.env[envOutput] = "ndjson"
	if got := resolvedFormat(t, h); got != output.FormatNDJSON {
		t.Errorf("%s=ndjson gave %q", envOutput, got)
	}
	if got := resolvedFormat(t, h, "-o", "text"); got != output.FormatText {
		t.Errorf("flag should beat env, got %q", got)
	}
}

func TestRootFormatFromConfig(t *testing.T) {
	h := newCLIHarness(t, config.Config{Output: "yaml"})
	if got := resolvedFormat(t, h); got != output.FormatYAML {
		t.Errorf("config output yaml gave %q", got)
	}
}

func TestRootValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad_output", []string{"-o", "xml"}, "invalid --output"},
		{"bad_color", []string{"--color", "rainbow"}, "invalid --color"},
		{"query_and_jq", []string{"-q", ".", "--jq", "."}, "use only one of --query or --jq"},
		{"query_and_fields", []string{"-q", ".", "--fields", "id"}, "use only one of"},
		{"fields_and_jsonpath", []string{"--fields", "id", "--jsonpath", "$.id"}, "use only one of"},
		{"negative_limit", []string{"--limit", "-1"}, "limit"},
		{"desc_without_sort", []string{"--desc"}, "--desc requires --sort-by"},
		{"bad_error_format", []string{"--error-format", "xml"}, "invalid --error-format"},
		{"bad_query", []string{"-q", ".[[["}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newCLIHarness(t, config.Config{})
			res := h.run("", append(tt.args, "auth", "scopes")...)
			if res.err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(res.err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", res.err, tt.want)
			}
			if ExitCode(res.err) != ExitUser {
				t.Errorf("exit code = %d, want %d", ExitCode(res.err), ExitUser)
			}
		})
	}
}

func TestRootQueryFilter(t *testing.T) {
	h := newCLIHarness(t, config.Config{})

	res := h.run("", "-q", "[.[] | select(.default) | .scope]", "--compact-json", "auth", "scopes")
	if res.err != nil {
		t.Fatalf("query error = %v", res.err)
	}
	if got := strings.TrimSpace(res.stdout); got != `["basic"]` {
		t.Errorf("stdout = %s", got)
	}
}

func TestRootErrorFormatJSON(t *testing.T) {
	h := newCLIHarness(t, config.Config{})

	res := h.run("", "--error-format", "json", "whoami")
	if !clierrors.IsAuthError(res.err) {
		t.Fatalf("error = %v, want auth error", res.err)
	}
	env := decodeJSONMap(t, res.stderr)
	payload, _ := env["error"].(map[string]interface{})
	if payload["type"] != "auth" || payload["exit_code"] != float64(ExitAuth) {
		t.Errorf("unexpected error envelope: %v", payload)
	}
}

func TestRootVersion(t *testing.T) {
	var out strings.Builder
	app := NewApp()
	app.Version = "1.2.3"
	app.Commit = "abc"
	app.Stdout = &out
	if err := app.Execute(t.Context(), []string{"--version"}); err != nil {
		t.Fatalf("--version error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "ig 1.2.3 (commit: abc") {
		t.Errorf("version output = %q", out.String())
	}
}
