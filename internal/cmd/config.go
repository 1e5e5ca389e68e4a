package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/instagram-cli/internal/config"
	clierrors "github.com/salmonumbrella/instagram-cli/internal/errors"
	"github.com/salmonumbrella/instagram-cli/internal/ui"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Manage CLI configuration",
		Long: `Manage the ig configuration file at ~/.config/instagram-cli/config.yaml
(or the file given with --config).

Environment variables INSTAGRAM_CLIENT_ID, INSTAGRAM_REDIRECT_URI and
INSTAGRAM_API_BASE_URL override the file at runtime; these commands only
read and write the file itself.`,
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigUnsetCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigKeysCmd())
	return cmd
}

// loadConfigFile reads the config file in use without the environment overlay.
func loadConfigFile(ctx context.Context) (*config.Config, string, error) {
	path, err := ConfigPathFromContext(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to determine config path: %w", err)
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, path, nil
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := stdoutFromContext(ctx)
			cfg, path, err := loadConfigFile(ctx)
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to format config: %w", err)
			}

			if len(data) == 0 || string(data) == "{}\n" {
				_, _ = fmt.Fprintf(out, "No configuration found at %s\n", path)
				_, _ = fmt.Fprintln(out, "\nTo get started, use:")
				_, _ = fmt.Fprintln(out, "  ig config set client_id <id>")
				_, _ = fmt.Fprintln(out, "  ig config set redirect_uri http://localhost:8585/callback")
				return nil
			}

			_, _ = fmt.Fprint(out, string(data))
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, _, err := loadConfigFile(ctx)
			if err != nil {
				return err
			}
			value, err := cfg.Get(args[0])
			if err != nil {
				return &clierrors.ValidationError{Field: "key", Message: err.Error()}
			}
			_, _ = fmt.Fprintln(stdoutFromContext(ctx), value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

Supported keys:
  client_id     - Registered Instagram client id
  redirect_uri  - Registered redirect URI (http://localhost:<port>/... enables browser login)
  api_url       - API base URL override
  auth_url      - Authorization endpoint override
  key_prefix    - Keychain namespace prefix
  output        - Default output format (text, json, ndjson, table, yaml)
  color         - Default color mode (auto, always, never)

Examples:
  ig config set client_id 0123456789abcdef
  ig config set output json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateConfig(cmd.Context(), args[0], args[1])
		},
	}
}

func newConfigUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Clear a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateConfig(cmd.Context(), args[0], "")
		},
	}
}

func updateConfig(ctx context.Context, key, value string) error {
	cfg, path, err := loadConfigFile(ctx)
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return &clierrors.ValidationError{Field: key, Message: err.Error()}
	}
	if err := cfg.SaveToPath(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if value == "" {
		ui.FromContext(ctx).Success("Cleared %s in %s", key, path)
	} else {
		ui.FromContext(ctx).Success("Set %s = %s in %s", key, value, path)
	}
	return nil
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := stdoutFromContext(ctx)
			path, err := ConfigPathFromContext(ctx)
			if err != nil {
				return fmt.Errorf("failed to determine config path: %w", err)
			}

			_, _ = fmt.Fprintln(out, path)
			if _, err := os.Stat(path); err == nil {
				_, _ = fmt.Fprintln(out, "(file exists)")
			} else if os.IsNotExist(err) {
				_, _ = fmt.Fprintln(out, "(file does not exist)")
			}
			return nil
		},
	}
}

func newConfigKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the supported configuration keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := stdoutFromContext(cmd.Context())
			for _, key := range config.Keys() {
				_, _ = fmt.Fprintln(out, key)
			}
			return nil
		},
	}
}
