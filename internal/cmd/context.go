package cmd

import (
	"context"

	"github.com/salmonumbrella/instagram-cli/internal/config"
)

type (
	errorFormatKey struct{}
	configKey      struct{}
	configPathKey  struct{}
	appKey         struct{}
)

// WithErrorFormat stores the error format in the context.
func WithErrorFormat(ctx context.Context, format string) context.Context {
	return context.WithValue(ctx, errorFormatKey{}, format)
}

// ErrorFormatFromContext retrieves the error format from context.
func ErrorFormatFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(errorFormatKey{}).(string); ok {
		return v
	}
	return ""
}

// WithConfig stores the effective config (file plus env overrides).
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// ConfigFromContext retrieves the effective config, or an empty one.
func ConfigFromContext(ctx context.Context) *config.Config {
	if v, ok := ctx.Value(configKey{}).(*config.Config); ok && v != nil {
		return v
	}
	return &config.Config{}
}

// WithConfigPath records an explicit --config path. Empty means the default.
func WithConfigPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, configPathKey{}, path)
}

// ConfigPathFromContext returns the config file path in use.
func ConfigPathFromContext(ctx context.Context) (string, error) {
	if v, ok := ctx.Value(configPathKey{}).(string); ok && v != "" {
		return v, nil
	}
	return config.DefaultConfigPath()
}

func withApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey{}, app)
}

func appFromContext(ctx context.Context) *App {
	if v, ok := ctx.Value(appKey{}).(*App); ok && v != nil {
		return v
	}
	return NewApp()
}
