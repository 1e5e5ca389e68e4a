package cmdutil

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
)

// NormalizeID trims an Instagram user or media ID and accepts "self" for
// the authenticated user. Media IDs look like 1234567890_987654.
func NormalizeID(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", fmt.Errorf("id is required")
	}
	if strings.ContainsAny(trimmed, "/?#& ") {
		return "", fmt.Errorf("invalid id %q", trimmed)
	}
	return trimmed, nil
}

// ParseParams parses repeated key=value flags into url.Values. A key may
// repeat; a value may contain "=".
func ParseParams(pairs []string) (url.Values, error) {
	values := url.Values{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q (expected key=value)", pair)
		}
		values.Add(key, value)
	}
	return values, nil
}

// ReadInputSource reads a file, or stdin when path is "-". Surrounding
// whitespace is trimmed.
func ReadInputSource(path string, stdin io.Reader) (string, error) {
	if path == "" {
		return "", fmt.Errorf("input file path is required")
	}
	if path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file %q: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
