package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultAPIURL is the Instagram REST base URL.
	DefaultAPIURL = "https://api.instagram.com/v1"
	// DefaultAuthURL is the Instagram authorization endpoint.
	DefaultAuthURL = "https://api.instagram.com/oauth/authorize"
	// DefaultKeyPrefix namespaces keychain entries written by this install.
	DefaultKeyPrefix = "instagram-cli_"

	EnvClientID    = "INSTAGRAM_CLIENT_ID"
	EnvRedirectURI = "INSTAGRAM_REDIRECT_URI"
	EnvAPIBaseURL  = "INSTAGRAM_API_BASE_URL"
)

// ClientConfig identifies the registered Instagram client. It is read once
// at startup and never changes afterwards.
type ClientConfig struct {
	ClientID    string
	RedirectURI string
}

// Valid reports whether both fields are present. A nil ClientConfig is invalid.
func (c *ClientConfig) Valid() bool {
	return c != nil && strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.RedirectURI) != ""
}

// Config represents the CLI configuration
type Config struct {
	// Registered client id and redirect URI
	ClientID    string `yaml:"client_id,omitempty"`
	RedirectURI string `yaml:"redirect_uri,omitempty"`

	// Optional endpoint overrides (for testing)
	APIURL  string `yaml:"api_url,omitempty"`
	AuthURL string `yaml:"auth_url,omitempty"`

	// Keychain namespace prefix
	KeyPrefix string `yaml:"key_prefix,omitempty"`

	// Default output format (text, json, ndjson, table, yaml)
	Output string `yaml:"output,omitempty"`

	// Default color mode (auto, always, never)
	Color string `yaml:"color,omitempty"`
}

// configPathFunc is the function used to get the default config path
// It can be overridden for testing
var configPathFunc = defaultConfigPath

// SetConfigPathFunc sets the config path function for testing.
// Returns the original function so it can be restored.
func SetConfigPathFunc(fn func() (string, error)) func() (string, error) {
	orig := configPathFunc
	configPathFunc = fn
	return orig
}

// defaultConfigPath returns ~/.config/instagram-cli/config.yaml
func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "instagram-cli", "config.yaml"), nil
}

// DefaultConfigPath returns ~/.config/instagram-cli/config.yaml
func DefaultConfigPath() (string, error) {
	return configPathFunc()
}

// Load loads config from the default path, returns empty config if not found
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return &Config{}, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil // Return empty config if file doesn't exist
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	return &cfg, nil
}

// Save saves config to the default path
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveToPath(path)
}

// SaveToPath saves config to a specific path
func (c *Config) SaveToPath(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// ApplyEnv overlays environment values on top of the file values. Empty
// variables are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	overlay := func(dst *string, name string) {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	overlay(&c.ClientID, EnvClientID)
	overlay(&c.RedirectURI, EnvRedirectURI)
	overlay(&c.APIURL, EnvAPIBaseURL)
}

// ClientConfig returns the client identity, or nil when it is incomplete.
func (c *Config) ClientConfig() *ClientConfig {
	cc := &ClientConfig{ClientID: c.ClientID, RedirectURI: c.RedirectURI}
	if !cc.Valid() {
		return nil
	}
	return cc
}

// GetAPIURL returns the configured API base URL or the default.
func (c *Config) GetAPIURL() string {
	if c.APIURL != "" {
		return strings.TrimRight(c.APIURL, "/")
	}
	return DefaultAPIURL
}

// GetAuthURL returns the configured authorization URL or the default.
func (c *Config) GetAuthURL() string {
	if c.AuthURL != "" {
		return c.AuthURL
	}
	return DefaultAuthURL
}

// GetKeyPrefix returns the keychain prefix or the default.
func (c *Config) GetKeyPrefix() string {
	if c.KeyPrefix != "" {
		return c.KeyPrefix
	}
	return DefaultKeyPrefix
}

// GetOutput returns the effective output format (config default or empty)
func (c *Config) GetOutput() string {
	return c.Output
}

// GetColor returns the effective color mode (config default or empty)
func (c *Config) GetColor() string {
	return c.Color
}

func (c *Config) fields() map[string]*string {
	return map[string]*string{
		"client_id":    &c.ClientID,
		"redirect_uri": &c.RedirectURI,
		"api_url":      &c.APIURL,
		"auth_url":     &c.AuthURL,
		"key_prefix":   &c.KeyPrefix,
		"output":       &c.Output,
		"color":        &c.Color,
	}
}

// Keys lists the settable config keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, 7)
	for k := range (&Config{}).fields() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the raw value of a config key.
func (c *Config) Get(key string) (string, error) {
	p, ok := c.fields()[key]
	if !ok {
		return "", fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys(), ", "))
	}
	return *p, nil
}

// Set assigns a config key. An empty value clears it.
func (c *Config) Set(key, value string) error {
	p, ok := c.fields()[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys(), ", "))
	}
	value = strings.TrimSpace(value)
	switch key {
	case "output":
		switch value {
		case "", "text", "json", "ndjson", "jsonl", "table", "yaml":
		default:
			return fmt.Errorf("invalid output %q (expected text, json, ndjson, table or yaml)", value)
		}
	case "color":
		switch value {
		case "", "auto", "always", "never":
		default:
			return fmt.Errorf("invalid color %q (expected auto, always or never)", value)
		}
	}
	*p = value
	return nil
}
