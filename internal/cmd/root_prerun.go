package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/instagram-cli/internal/cmdutil"
	"github.com/salmonumbrella/instagram-cli/internal/config"
	"github.com/salmonumbrella/instagram-cli/internal/debug"
	clierrors "github.com/salmonumbrella/instagram-cli/internal/errors"
	"github.com/salmonumbrella/instagram-cli/internal/iocontext"
	"github.com/salmonumbrella/instagram-cli/internal/output"
	"github.com/salmonumbrella/instagram-cli/internal/ui"
)

// envOutput overrides the output format when --output is not given.
const envOutput = "INSTAGRAM_OUTPUT"

type globalFlagInput struct {
	debugMode     bool
	verbose       bool
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
}

type globalOptions struct {
	format          output.Format
	query           string
	queryNormalized bool
	fieldsRaw       string
	jsonPathRaw     string
	limit           int
	sortBy          string
	desc            bool
	dataOnly        bool
	failEmpty       bool
	compactJSON     bool
	quiet           bool
	color           ui.ColorMode
	errorFormat     string
	logLevel        slog.Level

	queryFlagSet     bool
	jqFlagSet        bool
	queryFileFlagSet bool
	fieldsFlagSet    bool
	pickFlagSet      bool
}

// loadConfig reads the config file and overlays the environment.
func loadConfig(app *App, path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if strings.TrimSpace(path) != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv(app.lookupEnv)
	return cfg, nil
}

func parseGlobalOptions(cmd *cobra.Command, app *App, cfg *config.Config, stdout io.Writer, flags globalFlagInput) (globalOptions, error) {
	opts := globalOptions{
		limit:       flags.limitFlag,
		sortBy:      strings.TrimSpace(flags.sortBy),
		desc:        flags.descFlag,
		dataOnly:    flags.dataOnlyFlag,
		failEmpty:   flags.failEmptyFlag,
		compactJSON: flags.compactJSON,
		quiet:       flags.quietFlag,
		errorFormat: flags.errorFormat,

		queryFlagSet:  strings.TrimSpace(flags.queryFlag) != "",
		jqFlagSet:     strings.TrimSpace(flags.jqFlag) != "",
		fieldsFlagSet: strings.TrimSpace(flags.fieldsFlag) != "",
		pickFlagSet:   strings.TrimSpace(flags.pickFlag) != "",
	}

	switch {
	case flags.debugMode:
		opts.logLevel = slog.LevelDebug
	case flags.verbose:
		opts.logLevel = slog.LevelInfo
	default:
		opts.logLevel = slog.LevelWarn
	}

	outputFlagSet := commandFlagChanged(cmd, "output") || commandFlagChanged(cmd, "format")
	formatStr, _ := cmd.Flags().GetString("output")
	jsonFlag, _ := cmd.Flags().GetBool("json")
	envFormat, _ := app.lookupEnv(envOutput)
	switch {
	case jsonFlag:
		formatStr = string(output.FormatJSON)
	case outputFlagSet:
	case strings.TrimSpace(envFormat) != "":
		formatStr = envFormat
	case cfg.GetOutput() != "":
		formatStr = cfg.GetOutput()
	case !isTerminal(stdout):
		formatStr = string(output.FormatJSON)
	}

	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return globalOptions{}, clierrors.WrapUserError(err, "invalid --output value", "Use one of: text, json, ndjson, table, yaml")
	}
	opts.format = format

	colorStr := flags.colorFlag
	if !commandFlagChanged(cmd, "color") && cfg.GetColor() != "" {
		colorStr = cfg.GetColor()
	}
	if opts.color, err = ui.ParseColorMode(colorStr); err != nil {
		return globalOptions{}, clierrors.WrapUserError(err, "invalid --color value", "Use one of: auto, always, never")
	}

	opts.query = flags.queryFlag
	if opts.query == "" {
		opts.query = flags.jqFlag
	}
	opts.queryFileFlagSet = strings.TrimSpace(flags.queryFile) != ""
	if opts.queryFileFlagSet {
		loaded, err := cmdutil.ReadInputSource(flags.queryFile, app.Stdin)
		if err != nil {
			return globalOptions{}, err
		}
		opts.query = loaded
	}
	opts.query, opts.queryNormalized = output.NormalizeQuery(opts.query)

	opts.fieldsRaw = strings.TrimSpace(flags.fieldsFlag)
	if opts.fieldsRaw == "" {
		opts.fieldsRaw = strings.TrimSpace(flags.pickFlag)
	}
	opts.jsonPathRaw = strings.TrimSpace(flags.jsonPathFlag)

	return opts, nil
}

func validateGlobalOptions(opts *globalOptions) error {
	if opts.jqFlagSet && opts.queryFlagSet {
		return errOnlyOne("--query", "--jq")
	}
	if opts.queryFileFlagSet && (opts.jqFlagSet || opts.queryFlagSet) {
		return errOnlyOne("--query/--jq", "--query-file")
	}
	if opts.fieldsFlagSet && opts.pickFlagSet {
		return errOnlyOne("--fields", "--pick")
	}
	if opts.query != "" {
		if err := output.ValidateQuery(opts.query); err != nil {
			return clierrors.NewUserError(err.Error(), "Quote the whole expression, e.g. -q '.data[0].id'")
		}
	}
	if opts.fieldsRaw != "" {
		if err := output.ValidateFields(opts.fieldsRaw); err != nil {
			return clierrors.WrapUserError(err, "invalid --fields value", "Example: --fields id,username,followers=counts.followed_by")
		}
	}
	if opts.query != "" && (opts.fieldsRaw != "" || opts.jsonPathRaw != "") {
		return errOnlyOne("--query/--jq/--query-file", "--fields/--pick or --jsonpath")
	}
	if opts.fieldsRaw != "" && opts.jsonPathRaw != "" {
		return errOnlyOne("--fields/--pick", "--jsonpath")
	}
	if opts.limit < 0 {
		return &clierrors.ValidationError{Field: "limit", Message: "must be >= 0"}
	}
	if opts.desc && opts.sortBy == "" {
		return clierrors.NewUserError("--desc requires --sort-by", "Example: --sort-by created_time --desc")
	}
	return validateErrorFormat(opts.errorFormat)
}

func buildRootContext(ctx context.Context, app *App, cfg *config.Config, configPath string, debugMode bool, opts globalOptions) context.Context {
	ctx = iocontext.WithStreams(ctx, iocontext.Streams{In: app.Stdin, Out: app.Stdout, ErrOut: app.Stderr})
	ctx = withApp(ctx, app)
	ctx = output.WithFormat(ctx, opts.format)
	ctx = output.WithQuery(ctx, opts.query)
	ctx = output.WithFields(ctx, opts.fieldsRaw)
	ctx = output.WithJSONPath(ctx, opts.jsonPathRaw)
	ctx = output.WithLimit(ctx, opts.limit)
	ctx = output.WithSort(ctx, opts.sortBy, opts.desc)
	ctx = output.WithDataOnly(ctx, opts.dataOnly)
	ctx = output.WithFailEmpty(ctx, opts.failEmpty)
	ctx = output.WithCompactJSON(ctx, opts.compactJSON)
	ctx = debug.WithDebug(ctx, debugMode)
	ctx = WithConfig(ctx, cfg)
	ctx = WithConfigPath(ctx, configPath)
	ctx = WithErrorFormat(ctx, opts.errorFormat)

	uiOut := app.Stderr
	if opts.quiet {
		uiOut = io.Discard
	}
	ctx = ui.WithUI(ctx, ui.NewWithWriter(uiOut, opts.color))
	return ctx
}

func errOnlyOne(left, right string) error {
	return clierrors.NewUserError(fmt.Sprintf("use only one of %s or %s", left, right), "")
}

func commandFlagChanged(cmd *cobra.Command, name string) bool {
	for current := cmd; current != nil; current = current.Parent() {
		if flag := current.Flags().Lookup(name); flag != nil && flag.Changed {
			return true
		}
		if flag := current.PersistentFlags().Lookup(name); flag != nil && flag.Changed {
			return true
		}
	}
	return false
}
