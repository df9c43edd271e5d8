package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Logger writes user-facing output on out and diagnostic chatter on err.
// Verbosity comes from the repeatable -v flag: 0 shows errors and results,
// 1 adds info lines, 2 and up adds debug lines. quiet suppresses info.
type Logger struct {
	out       io.Writer
	err       io.Writer
	verbosity int
	quiet     bool
}

func DefaultLogger() Logger {
	return Logger{
		out: os.Stdout,
		err: os.Stderr,
	}
}

func NewLogger(out, err io.Writer, verbosity int, quiet bool) Logger {
	return Logger{
		out:       out,
		err:       err,
		verbosity: verbosity,
		quiet:     quiet,
	}
}

// Out prints a result line on stdout.
func (l Logger) Out(f string, args ...interface{}) {
	fmt.Fprintf(l.out, f+"\n", args...)
}

func (l Logger) OutRaw(s string) {
	fmt.Fprintf(l.out, "%s", s)
}

func (l Logger) Error(tag string, f string, args ...interface{}) {
	print(l.err, color.New(color.FgHiRed), tag, f, args...)
}

func (l Logger) Info(tag string, f string, args ...interface{}) {
	if l.quiet || l.verbosity < 1 {
		return
	}
	print(l.err, color.New(color.FgHiGreen), tag, f, args...)
}

func (l Logger) Debug(tag string, f string, args ...interface{}) {
	if l.verbosity < 2 {
		return
	}
	print(l.err, color.New(color.FgGreen), tag, f, args...)
}

func print(w io.Writer, tagColor *color.Color, tag, f string, args ...interface{}) {
	str := fmt.Sprintf(f, args...)
	for _, line := range strings.Split(str, "\n") {
		fmt.Fprintf(w, "%s  %s\n",
			tagColor.Sprint(tag),
			color.WhiteString(line))
	}
}

type ctxKey struct{}

// WithContext returns a context carrying this logger.
func (l Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// Ctx returns the logger carried by ctx, or a default logger if none is set.
func Ctx(ctx context.Context) Logger {
	l, ok := ctx.Value(ctxKey{}).(Logger)
	if !ok {
		return DefaultLogger()
	}
	return l
}
