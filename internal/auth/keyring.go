package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

const (
	// ServiceName is the keyring service name for instagram-cli
	ServiceName = "instagram-cli"
	// CredentialsDirEnvVarName controls the credential storage root directory.
	// instagram-cli keyring files are stored under: <dir>/instagram-cli/keyring
	CredentialsDirEnvVarName = "INSTAGRAM_CREDENTIALS_DIR"
	// KeyringPasswordEnvVarName sets the file keyring passphrase for non-interactive setups.
	KeyringPasswordEnvVarName = "INSTAGRAM_KEYRING_PASSWORD"
	// DBUSSessionAddressEnvVarName is used to detect Linux headless mode.
	DBUSSessionAddressEnvVarName = "DBUS_SESSION_BUS_ADDRESS"
)

// ResultCode is the outcome of the most recent keychain operation.
type ResultCode int

const (
	ResultSuccess ResultCode = iota
	ResultItemNotFound
	ResultUnavailable
	ResultInvalidInput
	ResultFailure
)

func (c ResultCode) String() string {
	switch c {
	case ResultSuccess:
		return "success"
	case ResultItemNotFound:
		return "item not found"
	case ResultUnavailable:
		return "keyring unavailable"
	case ResultInvalidInput:
		return "invalid input"
	default:
		return "failure"
	}
}

// ErrTokenNotFound is returned by Get when the key holds no value.
var ErrTokenNotFound = errors.New("no value stored in keychain")

// KeyringProvider defines an interface for keyring operations
type KeyringProvider interface {
	Get(key string) (keyring.Item, error)
	Set(item keyring.Item) error
	Remove(key string) error
}

// TokenStore is the secure string store a Session keeps its token in.
type TokenStore interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
	LastResultCode() ResultCode
}

// osKeyring wraps the actual OS keyring implementation
type osKeyring struct {
	ring keyring.Keyring
}

func keyringFileDir() string {
	if dir := strings.TrimSpace(os.Getenv(CredentialsDirEnvVarName)); dir != "" {
		return filepath.Join(dir, ServiceName, "keyring")
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = os.Getenv("HOME")
	}

	configDir = strings.TrimSpace(configDir)
	if configDir == "" {
		return string(os.PathSeparator) + filepath.Join(ServiceName, "keyring")
	}
	return filepath.Join(configDir, ServiceName, "keyring")
}

func keyringFilePassword() string {
	if password := strings.TrimSpace(os.Getenv(KeyringPasswordEnvVarName)); password != "" {
		return password
	}
	return ServiceName
}

func shouldForceFileBackend(goos string, dbusAddr string) bool {
	return goos == "linux" && strings.TrimSpace(dbusAddr) == ""
}

// newOSKeyring creates a new OS keyring provider
func newOSKeyring() (KeyringProvider, error) {
	cfg := keyring.Config{
		ServiceName: ServiceName,
		// macOS Keychain settings
		KeychainTrustApplication:       true,
		KeychainSynchronizable:         false,
		KeychainAccessibleWhenUnlocked: true,
		// File-based fallback (for environments without GUI keyring)
		FileDir:          keyringFileDir(),
		FilePasswordFunc: func(_ string) (string, error) { return keyringFilePassword(), nil },
	}

	if shouldForceFileBackend(runtime.GOOS, os.Getenv(DBUSSessionAddressEnvVarName)) {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, err
	}
	return &osKeyring{ring: ring}, nil
}

func (k *osKeyring) Get(key string) (keyring.Item, error) {
	return k.ring.Get(key)
}

func (k *osKeyring) Set(item keyring.Item) error {
	return k.ring.Set(item)
}

func (k *osKeyring) Remove(key string) error {
	return k.ring.Remove(key)
}

// defaultProvider is the keyring provider used by NewKeychain.
// Can be overridden for testing using SetProviderFunc.
var defaultProvider func() (KeyringProvider, error) = newOSKeyring

// Keychain is a TokenStore over the OS keyring. Every key is namespaced by
// the prefix so several installs can share one keyring.
type Keychain struct {
	prefix string
	open   func() (KeyringProvider, error)

	mu       sync.Mutex
	provider KeyringProvider
	last     ResultCode
}

// NewKeychain returns a keychain backed by the OS keyring. The keyring is
// opened lazily on first use.
func NewKeychain(prefix string) *Keychain {
	return &Keychain{prefix: prefix, open: defaultProvider}
}

// NewKeychainWithProvider returns a keychain over an already open provider.
func NewKeychainWithProvider(prefix string, p KeyringProvider) *Keychain {
	return &Keychain{
		prefix: prefix,
		open:   func() (KeyringProvider, error) { return p, nil },
	}
}

// Prefix returns the namespace prefix.
func (k *Keychain) Prefix() string {
	return k.prefix
}

// LastResultCode reports the outcome of the most recent operation.
func (k *Keychain) LastResultCode() ResultCode {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.last
}

// providerLocked must be called with k.mu held.
func (k *Keychain) providerLocked() (KeyringProvider, error) {
	if k.provider != nil {
		return k.provider, nil
	}
	p, err := k.open()
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	k.provider = p
	return p, nil
}

// Set stores value under the namespaced key, replacing any previous value.
func (k *Keychain) Set(key, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if key == "" || value == "" {
		k.last = ResultInvalidInput
		return fmt.Errorf("keychain key and value cannot be empty")
	}
	p, err := k.providerLocked()
	if err != nil {
		k.last = ResultUnavailable
		return err
	}
	err = p.Set(keyring.Item{
		Key:   k.prefix + key,
		Label: "Instagram CLI " + key,
		Data:  []byte(value),
	})
	if err != nil {
		k.last = ResultFailure
		return fmt.Errorf("failed to store %s in keyring: %w", key, err)
	}
	k.last = ResultSuccess
	return nil
}

// Get returns the value stored under the namespaced key. A missing or empty
// entry returns ErrTokenNotFound.
func (k *Keychain) Get(key string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	p, err := k.providerLocked()
	if err != nil {
		k.last = ResultUnavailable
		return "", err
	}
	item, err := p.Get(k.prefix + key)
	if errors.Is(err, keyring.ErrKeyNotFound) || (err == nil && len(item.Data) == 0) {
		k.last = ResultItemNotFound
		return "", ErrTokenNotFound
	}
	if err != nil {
		k.last = ResultFailure
		return "", fmt.Errorf("failed to read %s from keyring: %w", key, err)
	}
	k.last = ResultSuccess
	return string(item.Data), nil
}

// Delete removes the namespaced key. Deleting a key that does not exist is
// not an error; LastResultCode reports ResultItemNotFound in that case.
func (k *Keychain) Delete(key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	p, err := k.providerLocked()
	if err != nil {
		k.last = ResultUnavailable
		return err
	}
	err = p.Remove(k.prefix + key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		k.last = ResultItemNotFound
		return nil
	}
	if err != nil {
		k.last = ResultFailure
		return fmt.Errorf("failed to delete %s from keyring: %w", key, err)
	}
	k.last = ResultSuccess
	return nil
}
