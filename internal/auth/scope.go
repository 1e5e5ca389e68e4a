package auth

import (
	"fmt"
	"net/url"
	"strings"

	clierrors "github.com/salmonumbrella/instagram-cli/internal/errors"
)

// Scope is an Instagram login permission.
type Scope string

const (
	ScopeBasic         Scope = "basic"
	ScopeComments      Scope = "comments"
	ScopeRelationships Scope = "relationships"
	ScopeLikes         Scope = "likes"
	ScopePublicContent Scope = "public_content"
	ScopeFollowerList  Scope = "follower_list"
)

// AllScopes lists every known scope.
var AllScopes = []Scope{
	ScopeBasic,
	ScopeComments,
	ScopeRelationships,
	ScopeLikes,
	ScopePublicContent,
	ScopeFollowerList,
}

// DefaultScopes is used by Login when the caller passes none.
var DefaultScopes = []Scope{ScopeBasic}

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	for _, known := range AllScopes {
		if s == known {
			return true
		}
	}
	return false
}

// ParseScopes converts names such as "basic" or "public_content" into
// scopes. Comma separated entries are split. Order is kept and duplicates are
// dropped.
func ParseScopes(names []string) ([]Scope, error) {
	var scopes []Scope
	seen := make(map[Scope]bool)
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			s := Scope(part)
			if !s.Valid() {
				return nil, &clierrors.ValidationError{
					Field:   "scope",
					Message: fmt.Sprintf("unknown scope %q (valid: %s)", part, joinScopes(AllScopes, ", ")),
				}
			}
			if seen[s] {
				continue
			}
			seen[s] = true
			scopes = append(scopes, s)
		}
	}
	return scopes, nil
}

func joinScopes(scopes []Scope, sep string) string {
	parts := make([]string, len(scopes))
	for i, s := range scopes {
		parts[i] = string(s)
	}
	return strings.Join(parts, sep)
}

// BuildAuthURL returns the implicit-grant authorization URL. The query gets
// client_id, redirect_uri, response_type=token and scope, in that order,
// after any query already on baseAuthURL. Scopes are joined with a literal
// "+".
func BuildAuthURL(baseAuthURL, clientID, redirectURI string, scopes []Scope) (string, error) {
	if len(scopes) == 0 {
		return "", fmt.Errorf("at least one scope is required")
	}
	u, err := url.Parse(baseAuthURL)
	if err != nil {
		return "", fmt.Errorf("invalid authorization URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid authorization URL %q", baseAuthURL)
	}

	escaped := make([]string, len(scopes))
	for i, s := range scopes {
		escaped[i] = url.QueryEscape(string(s))
	}

	params := []string{
		"client_id=" + url.QueryEscape(clientID),
		"redirect_uri=" + url.QueryEscape(redirectURI),
		"response_type=token",
		"scope=" + strings.Join(escaped, "+"),
	}
	query := strings.Join(params, "&")
	if u.RawQuery != "" {
		query = u.RawQuery + "&" + query
	}
	u.RawQuery = query
	u.Fragment = ""
	return u.String(), nil
}
