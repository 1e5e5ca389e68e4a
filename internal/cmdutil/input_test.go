package cmdutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"self", "self", false},
		{"  1574083  ", "1574083", false},
		{"1234567890_987654", "1234567890_987654", false},
		{"", "", true},
		{"   ", "", true},
		{"123/likes", "", true},
		{"123?x=1", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeID(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseParams(t *testing.T) {
	values, err := ParseParams([]string{"count=5", "text=a=b", "tag=x", "tag=y", "empty="})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := values.Get("count"); got != "5" {
		t.Errorf("count = %q", got)
	}
	if got := values.Get("text"); got != "a=b" {
		t.Errorf("text = %q", got)
	}
	if got := values["tag"]; len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("tag = %v", got)
	}
	if _, ok := values["empty"]; !ok {
		t.Error("expected empty value to be kept")
	}
}

func TestParseParams_Invalid(t *testing.T) {
	for _, pair := range []string{"novalue", "=5", " =x"} {
		if _, err := ParseParams([]string{pair}); err == nil {
			t.Errorf("ParseParams(%q) expected error", pair)
		}
	}
}

func TestReadInputSource(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "token.txt")
	if err := os.WriteFile(testFile, []byte("\n  IGQVJ-token  \n\n"), 0o600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr string
	}{
		{name: "file trimmed", path: testFile, want: "IGQVJ-token"},
		{name: "empty path", path: "", wantErr: "input file path is required"},
		{name: "missing file", path: filepath.Join(tmpDir, "nope.txt"), wantErr: "failed to read file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadInputSource(tt.path, nil)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadInputSource_Stdin(t *testing.T) {
	got, err := ReadInputSource("-", strings.NewReader("  .data[0].id\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ".data[0].id" {
		t.Errorf("got %q", got)
	}
}
