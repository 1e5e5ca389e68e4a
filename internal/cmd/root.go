package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/instagram-cli/internal/logging"
	"github.com/salmonumbrella/instagram-cli/internal/ui"
)

func newRootCmd(app *App) *cobra.Command {
	var (
		configPath    string
		debugMode     bool
		verbose       bool
		logJSON       bool
		queryFlag     string
		jqFlag        string
		queryFile     string
		fieldsFlag    string
		pickFlag      string
		jsonPathFlag  string
		limitFlag     int
		sortBy        string
		descFlag      bool
		dataOnlyFlag  bool
		failEmptyFlag bool
		compactJSON   bool
		quietFlag     bool
		colorFlag     string
		errorFormat   string
	)

	rootCmd := &cobra.Command{
		Use:   "ig",
		Short: "CLI for the Instagram API",
		Long: `A command-line interface for the Instagram API.

Log in once with 'ig auth login'; the access token is kept in the system
keyring and sent with every request.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.SetupLevel(slog.LevelWarn, app.Stderr, logJSON)

			cfg, err := loadConfig(app, configPath)
			if err != nil {
				return err
			}

			opts, err := parseGlobalOptions(cmd, app, cfg, app.Stdout, globalFlagInput{
				debugMode:     debugMode,
				verbose:       verbose,
				queryFlag:     queryFlag,
				jqFlag:        jqFlag,
				queryFile:     queryFile,
				fieldsFlag:    fieldsFlag,
				pickFlag:      pickFlag,
				jsonPathFlag:  jsonPathFlag,
				limitFlag:     limitFlag,
				sortBy:        sortBy,
				descFlag:      descFlag,
				dataOnlyFlag:  dataOnlyFlag,
				failEmptyFlag: failEmptyFlag,
				compactJSON:   compactJSON,
				quietFlag:     quietFlag,
				colorFlag:     colorFlag,
				errorFormat:   errorFormat,
			})
			if err != nil {
				return err
			}
			if err := validateGlobalOptions(&opts); err != nil {
				return err
			}
			logging.SetupLevel(opts.logLevel, app.Stderr, logJSON)

			ctx := buildRootContext(cmd.Context(), app, cfg, configPath, debugMode, opts)
			if opts.queryNormalized {
				ui.FromContext(ctx).Warning("Normalized --query by removing \\! (shell escape); use ! without backslash.")
			}
			slog.Debug("config loaded", "api_url", cfg.GetAPIURL(), "client_configured", cfg.ClientConfig() != nil)

			cmd.SetContext(ctx)
			// error output in App.Execute reads the root context
			cmd.Root().SetContext(ctx)
			return nil
		},
	}

	rootCmd.Version = app.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("ig %s (commit: %s, built: %s)\n", app.Version, app.Commit, app.BuildTime))
	rootCmd.SetOut(app.Stdout)
	rootCmd.SetErr(app.Stderr)
	rootCmd.SetIn(app.Stdin)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default ~/.config/instagram-cli/config.yaml)")
	pf.StringP("output", "o", "text", "Output format: text|json|ndjson|jsonl|table|yaml")
	pf.BoolP("json", "j", false, "Shorthand for --output json")
	_ = pf.MarkHidden("json")
	pf.StringVarP(&queryFlag, "query", "q", "", "JQ expression to filter JSON output")
	pf.StringVar(&jqFlag, "jq", "", "Alias for --query")
	_ = pf.MarkHidden("jq")
	pf.StringVar(&queryFile, "query-file", "", "Read JQ expression from file ('-' for stdin)")
	pf.StringVar(&fieldsFlag, "fields", "", "Project fields (comma-separated paths, use key=path to rename)")
	pf.StringVar(&pickFlag, "pick", "", "Alias for --fields")
	_ = pf.MarkHidden("pick")
	pf.StringVar(&jsonPathFlag, "jsonpath", "", "Extract a value using JSONPath (e.g. $.data[0].id)")
	pf.IntVar(&limitFlag, "limit", 0, "Limit number of results (0 = no limit)")
	pf.StringVar(&sortBy, "sort-by", "", "Sort results by field (e.g. created_time, likes.count)")
	pf.BoolVar(&descFlag, "desc", false, "Sort in descending order")
	pf.BoolVar(&dataOnlyFlag, "data-only", false, "Print only the data member of the response envelope")
	pf.BoolVar(&failEmptyFlag, "fail-empty", false, "Exit with error when results are empty")
	pf.BoolVar(&compactJSON, "compact-json", false, "Output compact JSON (single-line) instead of pretty JSON")
	pf.BoolVar(&quietFlag, "quiet", false, "Suppress status messages on stderr")
	pf.StringVar(&colorFlag, "color", "auto", "Color mode: auto|always|never")
	pf.StringVar(&errorFormat, "error-format", "auto", "Error output format (auto|text|json|yaml)")
	pf.BoolVar(&debugMode, "debug", false, "Enable debug output (shows HTTP requests/responses)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Log request events")
	pf.BoolVar(&logJSON, "log-json", false, "Write log events as JSON")

	flagAlias(pf, "output", "format")
	flagAlias(pf, "data-only", "items-only")
	flagAlias(pf, "fail-empty", "fe")
	flagAlias(pf, "sort-by", "sb")
	flagAlias(pf, "query-file", "qf")
	flagAlias(pf, "compact-json", "cj")

	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newUserCmd())
	rootCmd.AddCommand(newMediaCmd())
	rootCmd.AddCommand(newAPICmd())
	rootCmd.AddCommand(newCompletionCmd())

	// Top-level shortcuts
	rootCmd.AddCommand(newLoginAliasCmd())
	rootCmd.AddCommand(newLogoutAliasCmd())
	rootCmd.AddCommand(newWhoamiCmd())

	return rootCmd
}
