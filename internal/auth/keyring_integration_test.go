//go:build integration
// +build integration

package auth

import (
	"errors"
	"testing"
)

// Integration tests for actual keyring operations.
// Run with: go test -tags=integration ./internal/auth/...

const integrationPrefix = "instagram-cli-integration_"

func TestKeyring_StoreAndRetrieve(t *testing.T) {
	kc := NewKeychain(integrationPrefix)
	_ = kc.Delete(AccessTokenKey)

	if err := kc.Set(AccessTokenKey, "integration_token_xyz123"); err != nil {
		t.Fatalf("failed to store token: %v", err)
	}

	got, err := kc.Get(AccessTokenKey)
	if err != nil {
		t.Fatalf("failed to retrieve token: %v", err)
	}
	if got != "integration_token_xyz123" {
		t.Errorf("expected token %q, got %q", "integration_token_xyz123", got)
	}

	if err := kc.Delete(AccessTokenKey); err != nil {
		t.Fatalf("failed to delete token: %v", err)
	}
	if _, err := kc.Get(AccessTokenKey); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound after delete, got %v", err)
	}
}

func TestKeyring_UpdateToken(t *testing.T) {
	kc := NewKeychain(integrationPrefix)
	defer func() { _ = kc.Delete(AccessTokenKey) }()

	for _, token := range []string{"first_token", "second_token"} {
		if err := kc.Set(AccessTokenKey, token); err != nil {
			t.Fatalf("failed to store %s: %v", token, err)
		}
		got, err := kc.Get(AccessTokenKey)
		if err != nil {
			t.Fatalf("failed to get %s: %v", token, err)
		}
		if got != token {
			t.Errorf("expected %q, got %q", token, got)
		}
	}
}
