// Package ui prints status lines for ig on stderr, colored when the
// terminal allows it.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
)

// ColorMode determines when to use colored output.
type ColorMode int

const (
	// ColorAuto follows the terminal's capabilities.
	ColorAuto ColorMode = iota
	// ColorAlways forces colored output.
	ColorAlways
	// ColorNever disables color.
	ColorNever
)

func (m ColorMode) String() string {
	switch m {
	case ColorAlways:
		return "always"
	case ColorNever:
		return "never"
	default:
		return "auto"
	}
}

// ParseColorMode parses the --color flag and the color config key.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q (expected auto, always, or never)", s)
	}
}

type contextKey struct{}

// UI writes colored status lines. Data never goes through it.
type UI struct {
	out   *termenv.Output
	color ColorMode
}

// New creates a UI writing to stderr. NO_COLOR always wins.
func New(mode ColorMode) *UI {
	return NewWithWriter(os.Stderr, mode)
}

// NewWithWriter creates a UI writing to w.
func NewWithWriter(w io.Writer, mode ColorMode) *UI {
	if w == nil {
		w = os.Stderr
	}
	if os.Getenv("NO_COLOR") != "" {
		mode = ColorNever
	}

	var profile termenv.Profile
	switch mode {
	case ColorNever:
		profile = termenv.Ascii
	case ColorAlways:
		profile = termenv.ColorProfile()
		if profile == termenv.Ascii {
			profile = termenv.ANSI256
		}
	default:
		profile = termenv.NewOutput(w).EnvColorProfile()
	}

	return &UI{
		out:   termenv.NewOutput(w, termenv.WithProfile(profile)),
		color: mode,
	}
}

// WithUI returns a new context with the UI attached.
func WithUI(ctx context.Context, ui *UI) context.Context {
	return context.WithValue(ctx, contextKey{}, ui)
}

// FromContext returns the UI from ctx, or a stderr UI in auto mode.
func FromContext(ctx context.Context) *UI {
	if ui, ok := ctx.Value(contextKey{}).(*UI); ok {
		return ui
	}
	return New(ColorAuto)
}

// Success prints a green check line.
func (u *UI) Success(format string, args ...any) {
	u.line(termenv.ANSIGreen, "✓ ", format, args...)
}

// Warning prints a yellow warning line.
func (u *UI) Warning(format string, args ...any) {
	u.line(termenv.ANSIYellow, "⚠ ", format, args...)
}

// Error prints a red failure line.
func (u *UI) Error(format string, args ...any) {
	u.line(termenv.ANSIRed, "✗ ", format, args...)
}

// Info prints a blue informational line.
func (u *UI) Info(format string, args ...any) {
	u.line(termenv.ANSIBlue, "ℹ ", format, args...)
}

func (u *UI) line(color termenv.ANSIColor, icon, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintln(u.out, u.out.String(icon+msg).Foreground(color))
}

// Writer returns the underlying writer.
func (u *UI) Writer() io.Writer {
	return u.out
}

// Mode returns the effective color mode.
func (u *UI) Mode() ColorMode {
	return u.color
}
