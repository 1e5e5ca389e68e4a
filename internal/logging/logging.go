// Package logging provides structured logging configuration using slog.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/salmonumbrella/instagram-cli/internal/debug"
)

// handlerType specifies the output format for the logger.
type handlerType int

const (
	handlerText handlerType = iota
	handlerJSON
)

// setup is the internal helper that configures the global slog logger.
func setup(level slog.Level, w io.Writer, ht handlerType) {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: RedactAttr,
	}

	var handler slog.Handler
	switch ht {
	case handlerJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
}

func debugLevel(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// Setup configures the global slog logger with text output.
// If debug is true, sets level to Debug; otherwise Info.
// Output goes to the provided writer (defaults to os.Stderr if nil).
func Setup(debug bool, w io.Writer) {
	setup(debugLevel(debug), w, handlerText)
}

// SetupJSON configures the global slog logger with JSON output.
// If debug is true, sets level to Debug; otherwise Info.
// Output goes to the provided writer (defaults to os.Stderr if nil).
func SetupJSON(debug bool, w io.Writer) {
	setup(debugLevel(debug), w, handlerJSON)
}

// SetupLevel configures the global slog logger at an explicit level.
func SetupLevel(level slog.Level, w io.Writer, json bool) {
	ht := handlerText
	if json {
		ht = handlerJSON
	}
	setup(level, w, ht)
}

// RedactAttr masks access tokens in log attributes: an attribute named
// access_token, any string carrying an access_token query parameter, and
// map[string]string parameter sets.
func RedactAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if a.Key == debug.TokenParam {
			return slog.String(a.Key, debug.RedactToken(s))
		}
		if strings.Contains(s, debug.TokenParam+"=") {
			if strings.Contains(s, "?") {
				return slog.String(a.Key, debug.RedactURL(s))
			}
			return slog.String(a.Key, debug.RedactQuery(s))
		}
	case slog.KindAny:
		params, ok := a.Value.Any().(map[string]string)
		if !ok {
			return a
		}
		token, ok := params[debug.TokenParam]
		if !ok {
			return a
		}
		masked := make(map[string]string, len(params))
		for k, v := range params {
			masked[k] = v
		}
		masked[debug.TokenParam] = debug.RedactToken(token)
		return slog.Any(a.Key, masked)
	}
	return a
}
