// Package iocontext carries the command's standard streams in a context so
// commands and the login prompt can be driven from tests.
package iocontext

import (
	"context"
	"io"
	"os"
)

// Streams is the set of standard streams a command uses.
type Streams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// System returns the process streams.
func System() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, ErrOut: os.Stderr}
}

type ctxKey struct{}

// WithStreams attaches s to ctx. Nil members fall back to the process
// streams on lookup.
func WithStreams(ctx context.Context, s Streams) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// WithIO attaches stdout and stderr, keeping any stdin already set.
func WithIO(ctx context.Context, stdout, stderr io.Writer) context.Context {
	s, _ := ctx.Value(ctxKey{}).(Streams)
	s.Out, s.ErrOut = stdout, stderr
	return WithStreams(ctx, s)
}

// From returns the streams in ctx, filled in with the process streams.
func From(ctx context.Context) Streams {
	s, _ := ctx.Value(ctxKey{}).(Streams)
	sys := System()
	if s.In == nil {
		s.In = sys.In
	}
	if s.Out == nil {
		s.Out = sys.Out
	}
	if s.ErrOut == nil {
		s.ErrOut = sys.ErrOut
	}
	return s
}

// Stdin returns the input stream.
func Stdin(ctx context.Context) io.Reader { return From(ctx).In }

// Stdout returns the output stream.
func Stdout(ctx context.Context) io.Writer { return From(ctx).Out }

// Stderr returns the error stream.
func Stderr(ctx context.Context) io.Writer { return From(ctx).ErrOut }
