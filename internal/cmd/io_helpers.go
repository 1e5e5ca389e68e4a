package cmd

import (
	"context"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/salmonumbrella/instagram-cli/internal/iocontext"
	"github.com/salmonumbrella/instagram-cli/internal/output"
)

func stdinFromContext(ctx context.Context) io.Reader {
	return iocontext.Stdin(ctx)
}

func stdoutFromContext(ctx context.Context) io.Writer {
	return iocontext.Stdout(ctx)
}

func stderrFromContext(ctx context.Context) io.Writer {
	return iocontext.Stderr(ctx)
}

func printerForContext(ctx context.Context) *output.Printer {
	return output.NewPrinter(stdoutFromContext(ctx), output.FormatFromContext(ctx))
}

func withAppIO(ctx context.Context, app *App) context.Context {
	return iocontext.WithStreams(ctx, iocontext.Streams{
		In:     app.Stdin,
		Out:    app.Stdout,
		ErrOut: app.Stderr,
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func isTerminalReader(r io.Reader) (*os.File, bool) {
	f, ok := r.(*os.File)
	if !ok {
		return nil, false
	}
	return f, term.IsTerminal(int(f.Fd()))
}
