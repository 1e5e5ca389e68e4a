package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/instagram-cli/internal/auth"
	"github.com/salmonumbrella/instagram-cli/internal/config"
)

// cliResult is what one CLI invocation produced.
type cliResult struct {
	stdout string
	stderr string
	err    error
}

// cliHarness runs the CLI against a temp config file, a fixed environment
// and an in-memory keyring.
type cliHarness struct {
	t          *testing.T
	env        map[string]string
	configPath string
	keyring    *auth.MockKeyring
	opened     []string
}

func newCLIHarness(t *testing.T, cfg config.Config) *cliHarness {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	mock := auth.NewMockKeyringProvider()
	auth.SetProviderFunc(func() (auth.KeyringProvider, error) { return mock, nil })
	t.Cleanup(func() { auth.SetProviderFunc(nil) })

	return &cliHarness{
		t:          t,
		env:        map[string]string{},
		configPath: path,
		keyring:    mock,
	}
}

func (h *cliHarness) run(stdin string, args ...string) cliResult {
	h.t.Helper()

	var stdout, stderr bytes.Buffer
	app := NewApp()
	app.Stdin = strings.NewReader(stdin)
	app.Stdout = &stdout
	app.Stderr = &stderr
	app.LookupEnv = func(name string) (string, bool) {
		v, ok := h.env[name]
		return v, ok
	}
	app.OpenBrowser = func(url string) error {
		h.opened = append(h.opened, url)
		return nil
	}

	err := app.Execute(context.Background(), append([]string{"--config", h.configPath}, args...))
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// storedToken reads the token the CLI left in the mock keyring.
func (h *cliHarness) storedToken() (string, bool) {
	item, err := h.keyring.Get(config.DefaultKeyPrefix + auth.AccessTokenKey)
	if err != nil {
		return "", false
	}
	return string(item.Data), true
}

func decodeJSONMap(t *testing.T, s string) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		t.Fatalf("stdout is not a JSON object: %v\n%s", err, s)
	}
	return out
}

func decodeJSONList(t *testing.T, s string) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		t.Fatalf("stdout is not a JSON list: %v\n%s", err, s)
	}
	return out
}
