package cmd

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/instagram-cli/internal/auth"
)

// App owns CLI wiring and execution configuration.
type App struct {
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	Version   string
	Commit    string
	BuildTime string

	// LookupEnv reads INSTAGRAM_* overrides. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	// OpenBrowser opens the authorization URL. Defaults to auth.OpenBrowser.
	OpenBrowser func(url string) error
}

// NewApp constructs an App with default settings.
func NewApp() *App {
	return &App{
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Version:     "dev",
		Commit:      "unknown",
		BuildTime:   "unknown",
		LookupEnv:   os.LookupEnv,
		OpenBrowser: auth.OpenBrowser,
	}
}

// Execute runs the CLI with the provided args.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := newRootCmd(a)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		errCtx := root.Context()
		if errCtx == nil {
			errCtx = ctx
		}
		printCommandError(withAppIO(errCtx, a), err)
		return err
	}
	return nil
}

// RootCommand exposes the root Cobra command for embedding/tests.
func (a *App) RootCommand() *cobra.Command {
	return newRootCmd(a)
}

func (a *App) lookupEnv(name string) (string, bool) {
	if a.LookupEnv == nil {
		return os.LookupEnv(name)
	}
	return a.LookupEnv(name)
}

func (a *App) envTruthy(name string) bool {
	value, ok := a.lookupEnv(name)
	if !ok {
		return false
	}
	return isTruthy(value)
}

func (a *App) openBrowser() func(string) error {
	if a.OpenBrowser == nil {
		return auth.OpenBrowser
	}
	return a.OpenBrowser
}
